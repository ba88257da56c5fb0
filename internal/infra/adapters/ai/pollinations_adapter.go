package ai

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/infra/imaging"
)

var _ adapter.ImageGenerator = (*PollinationsAdapter)(nil)

// PollinationsAdapter calls the Pollinations.ai prompt endpoint, which answers
// a GET with the image bytes. The secret is optional there; when present it is
// sent as a bearer token.
type PollinationsAdapter struct {
	base   string // e.g. https://image.pollinations.ai/prompt
	client *http.Client
	width  int
	height int
}

func NewPollinationsAdapter(base string, client *http.Client) *PollinationsAdapter {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &PollinationsAdapter{base: strings.TrimRight(base, "/"), client: client, width: 768, height: 1024}
}

func (p *PollinationsAdapter) Name() string { return "pollinations" }

func (p *PollinationsAdapter) Generate(ctx context.Context, req adapter.ImageRequest) (string, error) {
	q := url.Values{}
	q.Set("width", strconv.Itoa(p.width))
	q.Set("height", strconv.Itoa(p.height))
	q.Set("nologo", "true")
	q.Set("seed", strconv.Itoa(rand.IntN(1_000_000)))
	endpoint := p.base + "/" + url.PathEscape(req.Prompt) + "?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if req.Secret != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Secret)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("pollinations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pollinations: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return "", fmt.Errorf("pollinations: read: %w", err)
	}
	if len(data) == 0 {
		return "", domain.ErrNoImageData
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: got %s", domain.ErrNoImageData, mimeType)
	}
	return imaging.DataURL(mimeType, data), nil
}
