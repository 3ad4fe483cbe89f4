package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow(context.Background(), "1.2.3.4"); !ok {
			t.Fatalf("request %d should pass", i)
		}
	}
	if ok, _ := rl.Allow(context.Background(), "1.2.3.4"); ok {
		t.Fatalf("third request should be limited")
	}
	if ok, _ := rl.Allow(context.Background(), "5.6.7.8"); !ok {
		t.Fatalf("other clients have their own budget")
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _ := rl.Allow(context.Background(), "1.2.3.4"); !ok {
		t.Fatalf("window should have reset")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := Chain(okHandler, RateLimit(NewRateLimiter(1, time.Minute), discardLogger(), false))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots", nil)
		req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := do(); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", code)
	}
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRedisRateLimiter(rdb, 2, time.Minute, "test")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "client")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, err := rl.Allow(ctx, "client"); err != nil || ok {
		t.Fatalf("expected limit, ok=%v err=%v", ok, err)
	}

	mr.FastForward(time.Minute + time.Second)
	if ok, err := rl.Allow(ctx, "client"); err != nil || !ok {
		t.Fatalf("expected window reset, ok=%v err=%v", ok, err)
	}
	if err := RedisReadyCheck(rdb)(ctx); err != nil {
		t.Fatalf("ready check: %v", err)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}

func TestRateLimitFailOpen(t *testing.T) {
	for _, tc := range []struct {
		failOpen bool
		want     int
	}{
		{true, http.StatusOK},
		{false, http.StatusServiceUnavailable},
	} {
		rec := httptest.NewRecorder()
		RateLimit(failingLimiter{}, discardLogger(), tc.failOpen)(okHandler).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != tc.want {
			t.Fatalf("failOpen=%v: got %d want %d", tc.failOpen, rec.Code, tc.want)
		}
	}
}

func TestPublicBookingCORSPreflight(t *testing.T) {
	h := WithCORS(PublicBookingCORS(nil))(okHandler)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/public/book", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin %q", got)
	}
}

func TestCORSSubdomainOrigins(t *testing.T) {
	h := WithCORS(PublicBookingCORS([]string{"https://*.sitesprintz.app", "https://shop.example.com"}))(okHandler)

	for origin, want := range map[string]string{
		"https://acme.sitesprintz.app": "https://acme.sitesprintz.app",
		"https://SHOP.example.com":     "https://SHOP.example.com",
		"https://sitesprintz.app":      "",
		"http://acme.sitesprintz.app":  "",
		"https://evil-sitesprintz.app": "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", origin, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Fatalf("%s: allow origin %q want %q", origin, got, want)
		}
		if want != "" && rec.Header().Get("Access-Control-Expose-Headers") != RequestIDHeader {
			t.Fatalf("%s: request id not exposed", origin)
		}
	}
}

func TestCORSPreflightRejectsUnlistedMethod(t *testing.T) {
	h := WithCORS(PublicBookingCORS(nil))(okHandler)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/public/book", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("preflight status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Fatalf("methods advertised on a rejected preflight")
	}
}

func TestOnPrefix(t *testing.T) {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}
	h := OnPrefix("/api/v1/public/", blocked)(okHandler)

	for path, want := range map[string]int{
		"/api/v1/public/slots": http.StatusTeapot,
		"/api/v1/services":     http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: got %d want %d", path, rec.Code, want)
		}
	}
}

func TestRecoverAndRequestID(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := Chain(panicking, WithRequestID, WithAccessLog(discardLogger()), WithRecover(discardLogger()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) != "req-1" {
		t.Fatalf("request id not echoed")
	}
}
