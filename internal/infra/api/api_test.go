package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"coloring-book-generator/internal/infra/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func TestRouter_HealthMetricsAndTrace(t *testing.T) {
	r := NewRouter(logging.Nop(), time.Second, func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
			if _, ok := req.Context().Deadline(); !ok {
				t.Error("api routes must carry the request timeout")
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("expected echoed request id, got %d %q", rec.Code, rec.Header().Get("X-Request-ID"))
	}
}

func TestRecover(t *testing.T) {
	h := Recover(logging.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

type countingLimiter struct {
	hits map[string]int
	err  error
}

func (c *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	c.hits[key]++
	return c.hits[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	l := &countingLimiter{hits: map[string]int{}}
	h := RateLimit(l, func(c string) string { return "k:" + c }, 1, time.Minute, logging.Nop())(okHandler())

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if do("10.0.0.1:5000") != http.StatusNoContent {
		t.Fatal("first request must pass")
	}
	if do("10.0.0.1:5001") != http.StatusTooManyRequests {
		t.Fatal("second request from the same host must be limited")
	}
	if do("10.0.0.2:5000") != http.StatusNoContent {
		t.Fatal("other clients are counted separately")
	}

	l.err = errors.New("redis down")
	if do("10.0.0.1:5000") != http.StatusNoContent {
		t.Fatal("limiter errors must fail open")
	}
}

func TestAuth_MintAndRequireSession(t *testing.T) {
	am := NewAuthManager("hmac-secret", "pw", false, time.Hour)
	if !am.CheckPassword("pw") || am.CheckPassword("nope") {
		t.Fatal("password check is wrong")
	}
	rec := httptest.NewRecorder()
	tok, err := am.Mint(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "cbg_session=") {
		t.Error("mint must set the session cookie")
	}

	h := RequireSession(am)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected pass with bearer token, got %d", rec.Code)
	}

	other := NewAuthManager("different", "pw", false, time.Hour)
	if _, err := other.parse(tok); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
	if RequireSession(nil)(okHandler()) == nil {
		t.Fatal("nil manager must pass through")
	}
}
