package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestRecoveryMiddleware_Panic_Returns500AndLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := NewRequestIDMiddleware()(NewRecoveryMiddleware(newBufferLogger(&buf))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set(RequestIDHeader, "req-panic-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "panic recovered" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["request_id"] != "req-panic-1" {
		t.Errorf("request_id = %v, want req-panic-1", entry["request_id"])
	}
	if entry["panic"] != "boom" {
		t.Errorf("panic = %v, want boom", entry["panic"])
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
}

func TestRecoveryMiddleware_AbortHandler_IsRepanicked(t *testing.T) {
	var buf bytes.Buffer
	handler := NewRecoveryMiddleware(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered = %v, want http.ErrAbortHandler", rec)
		}
		if buf.Len() != 0 {
			t.Errorf("aborted request should not be logged, got %s", buf.String())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	t.Error("ServeHTTP should have panicked")
}

func TestRecoveryMiddleware_NoPanic_PassesThrough(t *testing.T) {
	handler := NewRecoveryMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusFound)
	}
}

func TestSecurityHeadersMiddleware_SetsHeaders(t *testing.T) {
	handler := NewSecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Cache-Control":          "no-store",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}
