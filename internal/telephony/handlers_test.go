package telephony

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"frontdesk/internal/agents"
	"frontdesk/internal/audit"
	"frontdesk/internal/calls"
	"frontdesk/internal/dialogue"
	"frontdesk/internal/leases"
	"frontdesk/internal/oracle"
)

func newTestRouter(extractor *oracle.StubExtractor, pool *agents.MemoryRepo, ledger *calls.MemoryRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	ctrl := &dialogue.Controller{
		Extractor: extractor,
		Verifier:  &oracle.StubVerifier{Result: oracle.Verification{IsValid: true, ConfidenceScore: 0.9}},
		Agents:    pool,
		Ledger:    ledger,
		Leases:    leases.NewMemoryStore(),
		Audit:     audit.NewService(audit.NewMemoryRepo()),
	}
	h := Handlers{Controller: ctrl}

	r := gin.New()
	r.POST(IncomingPath, h.Incoming)
	r.POST(GatherPath, h.Gather)
	r.POST(DialStatusPath, h.DialStatus)
	return r
}

func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var actionRe = regexp.MustCompile(`<Gather[^>]*action="([^"]+)"`)

func TestCallFlowEndToEnd(t *testing.T) {
	extractor := &oracle.StubExtractor{Results: []oracle.Extraction{
		{Name: "John Doe", ReadyForHuman: false, Response: "How old are you, John?"},
		{Name: "John Doe", Age: 30, ReadyForHuman: true, Response: "Connecting you now."},
	}}
	pool := agents.NewMemoryRepo(agents.Agent{ID: "agent-alice", Name: "Alice", PhoneNumber: "+15558675309", Status: agents.StatusAvailable})
	ledger := calls.NewMemoryRepo()
	r := newTestRouter(extractor, pool, ledger)

	// First contact greets and gathers.
	w := postForm(t, r, IncomingPath, url.Values{"CallSid": {"CA1"}, "From": {"+15551112222"}, "To": {"+15559998888"}})
	if w.Code != http.StatusOK {
		t.Fatalf("incoming status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), dialogue.SpeechGreeting) {
		t.Fatalf("expected greeting:\n%s", w.Body.String())
	}

	// Turn 1: name only. The response gathers again and its action URL carries
	// the transcript so far.
	w = postForm(t, r, GatherPath, url.Values{
		"CallSid": {"CA1"}, "SpeechResult": {"My name is John Doe."}, "Confidence": {"0.95"},
	})
	m := actionRe.FindStringSubmatch(w.Body.String())
	if m == nil {
		t.Fatalf("no gather action in:\n%s", w.Body.String())
	}
	action := strings.ReplaceAll(m[1], "&amp;", "&")
	if !strings.Contains(action, "conversation=") {
		t.Fatalf("action must carry the token: %q", action)
	}

	// Turn 2: age, posted to the action URL the caller's carrier would follow.
	w = postForm(t, r, action, url.Values{
		"CallSid": {"CA1"}, "SpeechResult": {"I am thirty years old."}, "Confidence": {"0.95"},
	})
	body := w.Body.String()
	if !strings.Contains(body, "<Dial") || !strings.Contains(body, "+15558675309") {
		t.Fatalf("expected dial to the agent:\n%s", body)
	}

	// The oracle saw the full accumulated history on turn 2.
	want := "My name is John Doe. I am thirty years old."
	if got := extractor.Calls[1]; got != want {
		t.Fatalf("oracle transcript = %q, want %q", got, want)
	}

	// Dial teardown: agent back in the pool, empty TwiML response.
	w = postForm(t, r, DialStatusPath+"?agentId=agent-alice", url.Values{
		"CallSid": {"CA1"}, "DialCallStatus": {"completed"},
	})
	if strings.Contains(w.Body.String(), "<Dial") || strings.Contains(w.Body.String(), "<Say") {
		t.Fatalf("dial status must answer with an empty document:\n%s", w.Body.String())
	}
	a, _ := pool.GetByID(context.Background(), "agent-alice")
	if a.Status != agents.StatusAvailable {
		t.Fatalf("agent must be released, got %q", a.Status)
	}
	c, _ := ledger.Get(context.Background(), "CA1")
	if c.Status != calls.StatusCompleted {
		t.Fatalf("call must be completed, got %q", c.Status)
	}
}

func TestGatherWithoutCallSidIsRejected(t *testing.T) {
	r := newTestRouter(&oracle.StubExtractor{}, agents.NewMemoryRepo(), calls.NewMemoryRepo())
	w := postForm(t, r, GatherPath, url.Values{"SpeechResult": {"hello"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUnclearSpeechReprompts(t *testing.T) {
	extractor := &oracle.StubExtractor{}
	r := newTestRouter(extractor, agents.NewMemoryRepo(), calls.NewMemoryRepo())

	postForm(t, r, IncomingPath, url.Values{"CallSid": {"CA1"}})
	w := postForm(t, r, GatherPath+"?conversation="+url.QueryEscape("earlier words"), url.Values{
		"CallSid": {"CA1"}, "SpeechResult": {"mmm"}, "Confidence": {"0.2"},
	})
	body := w.Body.String()
	// Apostrophes come out XML-escaped; compare after unescaping.
	if !strings.Contains(html.UnescapeString(body), dialogue.SpeechUnclear) {
		t.Fatalf("expected re-prompt:\n%s", body)
	}
	// The token travels on unchanged.
	if !strings.Contains(body, "conversation=earlier+words") {
		t.Fatalf("token must be preserved:\n%s", body)
	}
	if len(extractor.Calls) != 0 {
		t.Fatalf("oracle must not run on unclear speech")
	}
}
