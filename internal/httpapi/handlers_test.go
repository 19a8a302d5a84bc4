package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"frontdesk/internal/agents"
	"frontdesk/internal/audit"
	"frontdesk/internal/calls"
	"frontdesk/internal/reporting"
)

type testEnv struct {
	router *gin.Engine
	pool   *agents.MemoryRepo
	ledger *calls.MemoryRepo
	audit  *audit.MemoryRepo
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		pool: agents.NewMemoryRepo(
			agents.Agent{ID: "agent-alice", Name: "Alice", PhoneNumber: "+15558675309", Status: agents.StatusAvailable},
			agents.Agent{ID: "agent-bob", Name: "Bob", PhoneNumber: "+15552223333", Status: agents.StatusAvailable},
		),
		ledger: calls.NewMemoryRepo(),
		audit:  audit.NewMemoryRepo(),
	}
	h := Handlers{
		Agents:    env.pool,
		Ledger:    env.ledger,
		Reporting: reporting.NewService(env.ledger),
		Audit:     audit.NewService(env.audit),
	}

	r := gin.New()
	r.GET("/agents", h.ListAgents)
	r.PUT("/agents", h.SetAgentStatus)
	r.GET("/calls", h.ListCalls)
	r.GET("/calls/summary", h.CallSummary)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestListAgents(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodGet, "/agents", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Agents []agents.Agent `json:"agents"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Agents) != 2 || resp.Agents[0].Name != "Alice" {
		t.Fatalf("unexpected agents: %+v", resp.Agents)
	}
}

func TestSetAgentStatusOverride(t *testing.T) {
	env := newTestEnv()
	w := env.do(t, http.MethodPut, "/agents", `{"agent_id":"agent-alice","status":"offline"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	a, _ := env.pool.GetByID(context.Background(), "agent-alice")
	if a.Status != agents.StatusOffline {
		t.Fatalf("expected offline, got %q", a.Status)
	}

	events := env.audit.Events()
	if len(events) != 1 || events[0].Type != audit.EventTypeStatusOverride {
		t.Fatalf("expected one override audit event, got %+v", events)
	}
}

func TestSetAgentStatusAllowsBusyOverride(t *testing.T) {
	env := newTestEnv()
	// Overrides bypass the reservation protocol entirely, busy included.
	w := env.do(t, http.MethodPut, "/agents", `{"agent_id":"agent-bob","status":"busy"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	a, _ := env.pool.GetByID(context.Background(), "agent-bob")
	if a.Status != agents.StatusBusy {
		t.Fatalf("expected busy, got %q", a.Status)
	}
}

func TestSetAgentStatusValidation(t *testing.T) {
	env := newTestEnv()
	cases := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing fields", `{"agent_id":"agent-alice"}`, http.StatusBadRequest},
		{"unknown status", `{"agent_id":"agent-alice","status":"on-break"}`, http.StatusBadRequest},
		{"unknown agent", `{"agent_id":"agent-zed","status":"busy"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPut, "/agents", tc.body); w.Code != tc.want {
				t.Fatalf("status %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestListCallsResolvesAgent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.ledger.Create(ctx, "CA1", "+15551112222", "+15559998888")
	st := calls.StatusCompleted
	agentID := "agent-alice"
	env.ledger.Update(ctx, "CA1", calls.Patch{Status: &st, AgentID: &agentID})
	env.ledger.Create(ctx, "CA2", "+15553334444", "+15559998888")

	w := env.do(t, http.MethodGet, "/calls", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Calls []struct {
			CallSid string `json:"call_sid"`
			Agent   *struct {
				Name string `json:"name"`
			} `json:"agent"`
		} `json:"calls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(resp.Calls))
	}
	// Newest first.
	if resp.Calls[0].CallSid != "CA2" {
		t.Fatalf("expected CA2 first, got %q", resp.Calls[0].CallSid)
	}
	if resp.Calls[1].Agent == nil || resp.Calls[1].Agent.Name != "Alice" {
		t.Fatalf("expected resolved agent on CA1: %+v", resp.Calls[1])
	}
}

func TestCallSummary(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.ledger.Create(ctx, "CA1", "+15551112222", "+15559998888")
	st := calls.StatusCompleted
	env.ledger.Update(ctx, "CA1", calls.Patch{Status: &st})

	w := env.do(t, http.MethodGet, "/calls/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var sum reporting.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.TotalCalls != 1 || sum.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
