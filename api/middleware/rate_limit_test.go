package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	pkgredis "github.com/angelmondragon/vidrobox-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

func newRateStore(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return pkgredis.NewFromRaw(raw), mr
}

func quoteRequest(ip, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/public/budgets", strings.NewReader(body))
	req.RemoteAddr = ip + ":5678"
	return req
}

func TestRateLimitBlocksPerIP(t *testing.T) {
	store, mr := newRateStore(t)
	handler := RateLimit(NewRateLimitPolicy("quote", time.Minute, 2, 0), store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, quoteRequest("10.0.0.1", `{}`))
		want := http.StatusOK
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Fatalf("attempt %d: expected %d got %d", i+1, want, rec.Code)
		}
		if i == 2 && rec.Header().Get("Retry-After") != "60" {
			t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, quoteRequest("10.0.0.2", `{}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("other IP should pass, got %d", rec.Code)
	}

	mr.FastForward(2 * time.Minute)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, quoteRequest("10.0.0.1", `{}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("window should reset, got %d", rec.Code)
	}
}

func TestRateLimitEmailKeepsBodyReadable(t *testing.T) {
	store, _ := newRateStore(t)
	var seen string
	handler := RateLimit(NewRateLimitPolicy("login", time.Minute, 0, 1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"email":" Ana@Vidrobox.com.br ","password":"x"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, quoteRequest("10.0.0.1", body))
	if rec.Code != http.StatusOK || seen != body {
		t.Fatalf("expected pass-through with intact body, code=%d body=%q", rec.Code, seen)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, quoteRequest("10.0.0.9", `{"email":"ana@vidrobox.com.br"}`))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same normalized email should be limited across IPs, got %d", rec.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store, _ := newRateStore(t)
	handler := RateLimit(NewRateLimitPolicy("off", 0, 1, 1), store, nil)(okHandler())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, quoteRequest("10.0.0.1", `{}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled policy blocked request %d", i)
		}
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := quoteRequest("10.0.0.1", `{}`)
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("unexpected client ip %q", got)
	}
}
