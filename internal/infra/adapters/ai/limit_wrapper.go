package ai

import (
	"context"
	"errors"
	"strings"

	"coloring-book-generator/internal/domain/ports/adapter"
)

// Compile-time check
var (
	_ adapter.ImageGenerator = (*limitedAI)(nil)
	_ adapter.ProviderRouter = (*limitedAI)(nil)
)

// limitedAI caps concurrent provider calls (batch loop plus user retries).
type limitedAI struct {
	inner adapter.ImageGenerator
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.ImageGenerator, maxConcurrent int) adapter.ImageGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedAI) Name() string { return l.inner.Name() }

// Supports delegates to a routing inner adapter; a plain one only knows its own name.
func (l *limitedAI) Supports(provider string) bool {
	if r, ok := l.inner.(adapter.ProviderRouter); ok {
		return r.Supports(provider)
	}
	return provider == "" || strings.EqualFold(provider, l.inner.Name())
}

func (l *limitedAI) Generate(ctx context.Context, req adapter.ImageRequest) (string, error) {
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, req)
}

func (l *limitedAI) Describe(ctx context.Context, secret, mimeType string, data []byte) (string, error) {
	d, ok := l.inner.(adapter.ImageDescriber)
	if !ok {
		return "", errors.New("provider cannot describe images")
	}
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer func() { <-l.sem }()
	return d.Describe(ctx, secret, mimeType, data)
}
