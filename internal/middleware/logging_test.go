package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest("POST", "/api/chores/9/redeem", nil)
	req.Header.Set(ActorIDHeader, "2")
	req.Header.Set(ActorRoleHeader, "parent")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=409", "path=/api/chores/9/redeem", "actor=parent:2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestRequestLoggerDefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "status=200") {
		t.Errorf("unexpected log line: %s", out)
	}
	if strings.Contains(out, "actor=") {
		t.Errorf("anonymous request logged an actor: %s", out)
	}
}
