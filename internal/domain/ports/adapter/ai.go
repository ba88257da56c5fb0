package adapter

import "context"

// ImageRequest is one generation call against a provider.
type ImageRequest struct {
	Secret      string
	Prompt      string
	Provider    string // empty = configured default
	AspectRatio string // e.g. "3:4"
}

// ImageGenerator is the port for text-to-image providers.
// Generate returns a reference to the content: a data: URL or an http(s) URL.
type ImageGenerator interface {
	Name() string
	Generate(ctx context.Context, req ImageRequest) (string, error)
}

// ImageDescriber is implemented by providers with a vision model.
type ImageDescriber interface {
	Describe(ctx context.Context, secret, mimeType string, data []byte) (string, error)
}

// ProviderRouter is implemented by generators that route between named
// providers. Supports("") reports whether a default provider is configured.
type ProviderRouter interface {
	Supports(provider string) bool
}
