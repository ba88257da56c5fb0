// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/infra/imaging"
)

var (
	_ adapter.ImageGenerator = (*GeminiAdapter)(nil)
	_ adapter.ImageDescriber = (*GeminiAdapter)(nil)
)

const describeInstruction = "Describe this image in detail for a coloring book artist."

// GeminiAdapter generates pages with a Gemini image model. The API key comes
// with each request (it is the user's secret), so clients are cached per key.
type GeminiAdapter struct {
	baseURL     string
	imageModel  string
	visionModel string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiAdapter(baseURL, imageModel, visionModel string) *GeminiAdapter {
	return &GeminiAdapter{
		baseURL:     baseURL,
		imageModel:  imageModel,
		visionModel: visionModel,
		clients:     map[string]*genai.Client{},
	}
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, domain.ErrMissingSecret
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: g.baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: client: %w", err)
	}
	// a changed key replaces the old client
	g.clients = map[string]*genai.Client{apiKey: c}
	return c, nil
}

func (g *GeminiAdapter) Generate(ctx context.Context, req adapter.ImageRequest) (string, error) {
	c, err := g.client(ctx, req.Secret)
	if err != nil {
		return "", err
	}
	prompt := req.Prompt
	if req.AspectRatio != "" {
		prompt += "\nAspect ratio: " + req.AspectRatio + " portrait page."
	}

	resp, err := c.Models.GenerateContent(ctx, g.imageModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	blob := firstInlineImage(resp)
	if blob == nil {
		if reason := blockReason(resp); reason != "" {
			return "", fmt.Errorf("%w: %s", domain.ErrNoImageData, reason)
		}
		return "", domain.ErrNoImageData
	}
	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return imaging.DataURL(mimeType, blob.Data), nil
}

func (g *GeminiAdapter) Describe(ctx context.Context, secret, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("gemini: empty image")
	}
	c, err := g.client(ctx, secret)
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: describeInstruction},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}
	resp, err := c.Models.GenerateContent(ctx, g.visionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return firstText(resp), nil
}

// --- internal ---

func firstInlineImage(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && strings.TrimSpace(part.Text) != "" {
			return strings.TrimSpace(part.Text)
		}
	}
	return ""
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return string(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" &&
		resp.Candidates[0].FinishReason != genai.FinishReasonStop {
		return string(resp.Candidates[0].FinishReason)
	}
	return ""
}
