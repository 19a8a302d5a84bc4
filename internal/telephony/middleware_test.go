package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// twilioSign reproduces Twilio's webhook signature: HMAC-SHA1 over the full
// URL followed by the sorted POST parameters, base64 encoded.
func twilioSign(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := fullURL
	for _, k := range keys {
		payload += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signedRequest(t *testing.T, mw gin.HandlerFunc, path, signature string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(path, mw, func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignatureMiddlewareAcceptsValidSignature(t *testing.T) {
	const token = "secret-auth-token"
	form := url.Values{"CallSid": {"CA1"}, "From": {"+15551112222"}}
	sig := twilioSign(token, "https://frontdesk.example.com"+IncomingPath, form)

	w := signedRequest(t, SignatureMiddleware(token, "https://frontdesk.example.com", true), IncomingPath, sig, form)
	if w.Code != http.StatusOK {
		t.Fatalf("valid signature rejected: %d %s", w.Code, w.Body.String())
	}
}

func TestSignatureMiddlewareRejectsInvalidInStrictMode(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}}
	w := signedRequest(t, SignatureMiddleware("secret", "https://frontdesk.example.com", true), IncomingPath, "bogus", form)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestSignatureMiddlewareWarnsOnlyOutsideStrictMode(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}}
	w := signedRequest(t, SignatureMiddleware("secret", "http://localhost:8080", false), IncomingPath, "bogus", form)
	if w.Code != http.StatusOK {
		t.Fatalf("non-strict mode must continue, got %d", w.Code)
	}
}

func TestSignatureMiddlewareSkipsWithoutToken(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}}
	w := signedRequest(t, SignatureMiddleware("", "http://localhost:8080", true), IncomingPath, "", form)
	if w.Code != http.StatusOK {
		t.Fatalf("missing token must disable validation, got %d", w.Code)
	}
}
