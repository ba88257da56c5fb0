// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/adapter"
)

var (
	_ adapter.ImageGenerator = (*MultiAIAdapter)(nil)
	_ adapter.ImageDescriber = (*MultiAIAdapter)(nil)
	_ adapter.ProviderRouter = (*MultiAIAdapter)(nil)
)

// MultiAIAdapter routes a request to the provider it names, or to the default.
type MultiAIAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.ImageGenerator
}

func NewMultiAIAdapter(defaultProvider string, byProvider map[string]adapter.ImageGenerator) *MultiAIAdapter {
	norm := make(map[string]adapter.ImageGenerator, len(byProvider))
	for k, v := range byProvider {
		if v != nil {
			norm[strings.ToLower(k)] = v
		}
	}
	return &MultiAIAdapter{defaultProvider: strings.ToLower(defaultProvider), byProvider: norm}
}

func (m *MultiAIAdapter) Name() string { return m.defaultProvider }

func (m *MultiAIAdapter) pick(provider string) (adapter.ImageGenerator, error) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		p = m.defaultProvider
	}
	if a := m.byProvider[p]; a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, p)
}

func (m *MultiAIAdapter) Supports(provider string) bool {
	_, err := m.pick(provider)
	return err == nil
}

func (m *MultiAIAdapter) Generate(ctx context.Context, req adapter.ImageRequest) (string, error) {
	a, err := m.pick(req.Provider)
	if err != nil {
		return "", err
	}
	return a.Generate(ctx, req)
}

// Describe uses the default provider when it has a vision model, otherwise any that does.
func (m *MultiAIAdapter) Describe(ctx context.Context, secret, mimeType string, data []byte) (string, error) {
	if d, ok := m.byProvider[m.defaultProvider].(adapter.ImageDescriber); ok {
		return d.Describe(ctx, secret, mimeType, data)
	}
	for _, a := range m.byProvider {
		if d, ok := a.(adapter.ImageDescriber); ok {
			return d.Describe(ctx, secret, mimeType, data)
		}
	}
	return "", errors.New("no provider can describe images")
}
