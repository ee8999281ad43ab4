package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompactStack(t *testing.T) {
	long := strings.Repeat("frame\n", 40)
	got := compactStack(long)
	if strings.Count(got, "\n") > 16 {
		t.Fatalf("expected compact stack, got %d lines", strings.Count(got, "\n"))
	}
}

func TestRecoverMiddlewareConvertsPanic(t *testing.T) {
	h := RecoverMiddleware("server", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	r := httptest.NewRequest(http.MethodPost, "/session/submit", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
