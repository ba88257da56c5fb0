package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coloring-book-generator/internal/domain"
)

// fakeClient is an in-memory Client; expirations are recorded, not enforced.
type fakeClient struct {
	mu      sync.Mutex
	values  map[string]string
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]string{}, counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeClient) Ping(context.Context) error { return nil }
func (f *fakeClient) Close() error               { return nil }

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	f.expires[key] = exp
	return nil
}

func (f *fakeClient) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (f *fakeClient) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeClient) Expire(_ context.Context, key string, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = exp
	return nil
}

func (f *fakeClient) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestSecretRepository(t *testing.T) {
	ctx := context.Background()
	fc := newFakeClient()
	repo := NewSecretRepository(fc)

	if _, err := repo.Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if fc.expires[secretPrefix+"k"] != 0 {
		t.Error("secrets must not expire")
	}
	if got, _ := repo.Get(ctx, "k"); got != "v" {
		t.Fatalf("got %q", got)
	}
	_ = repo.Delete(ctx, "k")
	if _, err := repo.Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	fc := newFakeClient()
	rl := NewRateLimiter(fc)
	key := ClientActionKey("10.0.0.1", "batch")

	for i := 1; i <= 3; i++ {
		ok, err := rl.Allow(ctx, key, 2, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if want := i <= 2; ok != want {
			t.Fatalf("call %d: allow=%v, want %v", i, ok, want)
		}
	}
	if fc.expires[key] != time.Minute {
		t.Errorf("window not applied on first hit: %v", fc.expires[key])
	}
}
