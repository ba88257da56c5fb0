package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/infra/imaging"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ImageGenerator = (*OpenAIAdapter)(nil)

// OpenAIAdapter generates pages with the OpenAI Images API.
type OpenAIAdapter struct {
	baseURL string // empty = SDK default
	model   string
}

func NewOpenAIAdapter(baseURL, model string) *OpenAIAdapter {
	if model == "" {
		model = "gpt-image-1"
	}
	return &OpenAIAdapter{baseURL: baseURL, model: model}
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) Generate(ctx context.Context, req adapter.ImageRequest) (string, error) {
	if req.Secret == "" {
		return "", domain.ErrMissingSecret
	}
	opts := []option.RequestOption{option.WithAPIKey(req.Secret), option.WithMaxRetries(0)}
	if o.baseURL != "" {
		opts = append(opts, option.WithBaseURL(o.baseURL))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(o.model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1536,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	for _, img := range resp.Data {
		if img.B64JSON != "" {
			data, err := base64.StdEncoding.DecodeString(img.B64JSON)
			if err != nil {
				return "", fmt.Errorf("openai: decode image: %w", err)
			}
			return imaging.DataURL("image/png", data), nil
		}
		if img.URL != "" {
			return img.URL, nil
		}
	}
	return "", domain.ErrNoImageData
}
