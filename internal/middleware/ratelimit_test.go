package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/kidbank/internal/auth"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, period time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, period)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("key") {
		t.Error("6th request should be denied")
	}
	if !rl.Allow("other") {
		t.Error("other key should have its own window")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		rl.Allow("key")
	}
	if rl.Allow("key") {
		t.Error("should be blocked within window")
	}

	clock.advance(time.Minute)
	if !rl.Allow("key") {
		t.Error("should be allowed after window expires")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)

	rl.Allow("expired")
	clock.advance(2 * time.Minute)
	rl.Allow("active")

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.windows["expired"]; ok {
		t.Error("expired window should have been cleaned up")
	}
	if _, ok := rl.windows["active"]; !ok {
		t.Error("active window should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)
	handler := RateLimit(rl, ActorOrIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(a auth.Actor) int {
		req := httptest.NewRequest("POST", "/api/chores/1/redeem", nil)
		req = req.WithContext(auth.WithActor(req.Context(), a))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(auth.Child(3)); code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := send(auth.Child(3)); code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", code, http.StatusTooManyRequests)
	}
	if code := send(auth.Parent(3)); code != http.StatusOK {
		t.Errorf("parent with same id: status = %d, want %d", code, http.StatusOK)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "1.1.1.1"}, "9.9.9.9:80", "1.1.1.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "2.2.2.2, 3.3.3.3"}, "9.9.9.9:80", "2.2.2.2"},
		{"remote addr", nil, "9.9.9.9:80", "9.9.9.9"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tt.remote
		for k, v := range tt.headers {
			req.Header.Set(k, v)
		}
		if got := RealIP(req); got != tt.want {
			t.Errorf("%s: RealIP = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestActorOrIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "5.5.5.5:1234"
	if got := ActorOrIP(req); got != "ip:5.5.5.5" {
		t.Errorf("ActorOrIP = %q, want %q", got, "ip:5.5.5.5")
	}
	req = req.WithContext(auth.WithActor(req.Context(), auth.Parent(2)))
	if got := ActorOrIP(req); got != "parent:2" {
		t.Errorf("ActorOrIP = %q, want %q", got, "parent:2")
	}
}
