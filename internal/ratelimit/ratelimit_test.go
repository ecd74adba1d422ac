package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, rate float64, burst int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(rate, burst)
	l.now = clock.now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestAllowWithinBurst(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 5)

	for i := 0; i < 5; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Errorf("request %d within burst should be allowed", i+1)
		}
	}
	if limiter.allow("192.168.1.1") {
		t.Error("request exceeding burst should be denied")
	}
}

func TestTokensReplenishOverTime(t *testing.T) {
	limiter, clock := newTestLimiter(t, 10, 2)

	limiter.allow("192.168.1.1")
	limiter.allow("192.168.1.1")
	if limiter.allow("192.168.1.1") {
		t.Fatal("expected request to be denied after exhausting burst")
	}

	clock.advance(150 * time.Millisecond)
	if !limiter.allow("192.168.1.1") {
		t.Error("expected request to be allowed after tokens replenished")
	}
}

func TestTokensDoNotExceedBurst(t *testing.T) {
	limiter, clock := newTestLimiter(t, 100, 2)

	limiter.allow("10.0.0.1")
	clock.advance(time.Hour)

	allowed := 0
	for i := 0; i < 5; i++ {
		if limiter.allow("10.0.0.1") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("expected refill capped at burst of 2, got %d allowed", allowed)
	}
}

func TestKeysHaveIndependentLimits(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1)

	limiter.allow("10.0.0.1")
	if !limiter.allow("10.0.0.2") {
		t.Error("expected a different key to have its own bucket")
	}
}

func TestEvictIdle(t *testing.T) {
	limiter, clock := newTestLimiter(t, 1, 1)

	limiter.allow("10.0.0.1")
	clock.advance(idleAfter + time.Second)
	limiter.evictIdle()

	if len(limiter.buckets) != 0 {
		t.Errorf("expected idle bucket to be evicted, %d left", len(limiter.buckets))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.Stop()
	limiter.Stop()
}

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareRateLimits(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1)
	calls := 0
	handler := limiter.Middleware(okHandler(&calls))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(second, req)

	if second.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "10" {
		t.Errorf("expected Retry-After 10, got %q", got)
	}
	if got := second.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", got)
	}
	if got := second.Body.String(); got != `{"error":"too many requests"}` {
		t.Errorf("unexpected body %s", got)
	}
	if calls != 1 {
		t.Errorf("expected next handler called once, got %d", calls)
	}
}

func TestMiddlewareUsesFirstForwardedHop(t *testing.T) {
	tests := []struct {
		name       string
		second     string
		wantStatus int
	}{
		{"same client behind proxy", "203.0.113.50, 10.0.0.2", http.StatusTooManyRequests},
		{"different client", "203.0.113.51", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, _ := newTestLimiter(t, 1, 1)
			calls := 0
			handler := limiter.Middleware(okHandler(&calls))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.99:1234"
			req.Header.Set("X-Forwarded-For", "203.0.113.50")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			req = httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.100:5678"
			req.Header.Set("X-Forwarded-For", tt.second)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestBySessionKeysOnURLParam(t *testing.T) {
	limiter := NewKeyedLimiter(1, 1, BySession)
	t.Cleanup(limiter.Stop)
	calls := 0

	r := chi.NewRouter()
	r.With(limiter.Middleware).Post("/api/sessions/{id}/events", okHandler(&calls).ServeHTTP)

	send := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/events", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("a"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send("a"); code != http.StatusTooManyRequests {
		t.Errorf("expected same session to be limited, got %d", code)
	}
	if code := send("b"); code != http.StatusOK {
		t.Errorf("expected other session on same address to pass, got %d", code)
	}
}
