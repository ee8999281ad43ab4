package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestIDFromContext(r.Context()) == "" {
			t.Fatal("expected request id in context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Result().Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID response header")
	}
}

func TestRequestIDMiddlewareKeepsInboundID(t *testing.T) {
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := RequestIDFromContext(r.Context()); got != "ui-abc-123" {
			t.Fatalf("request id = %q, want %q", got, "ui-abc-123")
		}
	}))

	r := httptest.NewRequest(http.MethodPost, "/session/submit", nil)
	r.Header.Set("X-Request-ID", "ui-abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Result().Header.Get("X-Request-ID"); got != "ui-abc-123" {
		t.Fatalf("response header = %q, want %q", got, "ui-abc-123")
	}
}
