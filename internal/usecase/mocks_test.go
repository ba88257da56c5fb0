//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/infra/imaging"
	"coloring-book-generator/internal/infra/worker"
)

// scriptedAI answers the n-th call (1-based) with script[n]; unscripted calls succeed.
type scriptedAI struct {
	mu      sync.Mutex
	calls   int
	script  map[int]func(ctx context.Context) (string, error)
	secrets []string
	prompts []string
}

func newScriptedAI() *scriptedAI {
	return &scriptedAI{script: map[int]func(context.Context) (string, error){}}
}

func (s *scriptedAI) Name() string { return "scripted" }

// Supports knows the default ("") and its own name.
func (s *scriptedAI) Supports(provider string) bool {
	return provider == "" || provider == "scripted"
}

func (s *scriptedAI) Generate(ctx context.Context, req adapter.ImageRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.secrets = append(s.secrets, req.Secret)
	s.prompts = append(s.prompts, req.Prompt)
	fn := s.script[n]
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return imaging.DataURL("image/png", []byte{0x89, 'P', 'N', 'G'}), nil
}

func (s *scriptedAI) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fail(msg string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", errors.New(msg) }
}

func block(gate <-chan struct{}) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		<-gate
		return "https://img.example/blocked.png", nil
	}
}

func panics(v any) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { panic(v) }
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(d time.Duration) {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
}

func (r *recordingSleeper) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delays)
}

type staticSecret string

func (s staticSecret) Current() string { return string(s) }

type rejectingDispatcher struct{}

func (rejectingDispatcher) Submit(worker.Task) error { return errors.New("queue full") }

type fakeDescriber struct {
	text string
	err  error
}

func (f fakeDescriber) Describe(context.Context, string, string, []byte) (string, error) {
	return f.text, f.err
}

type fakeRenderer struct {
	calls int
	refs  []string
	title string
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, refs []string, title string) ([]byte, error) {
	f.calls++
	f.refs = refs
	f.title = title
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fakeSink struct {
	names []string
}

func (f *fakeSink) Save(_ context.Context, name, _ string, _ []byte) (string, error) {
	f.names = append(f.names, name)
	return "/out/" + name, nil
}

type fakeNotifier struct {
	sent int
	err  error
}

func (f *fakeNotifier) SendBooklet(context.Context, string, []byte, string) error {
	f.sent++
	return f.err
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func statuses(pages []model.ColoringPage) []model.PageStatus {
	out := make([]model.PageStatus, len(pages))
	for i, p := range pages {
		out[i] = p.Status
	}
	return out
}
