package ai

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"time"

	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/infra/imaging"
)

var (
	_ adapter.ImageGenerator = (*NoopAIAdapter)(nil)
	_ adapter.ImageDescriber = (*NoopAIAdapter)(nil)
)

// NoopAIAdapter is a local/dev provider: it returns a blank framed page
// instead of calling a real model.
type NoopAIAdapter struct {
	latency time.Duration
	page    string
}

func NewNoopAIAdapter(latency time.Duration) *NoopAIAdapter {
	return &NoopAIAdapter{latency: latency, page: imaging.DataURL("image/png", blankPage(60, 80))}
}

func (a *NoopAIAdapter) Name() string { return "noop" }

func (a *NoopAIAdapter) Generate(ctx context.Context, req adapter.ImageRequest) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	return a.page, nil
}

func (a *NoopAIAdapter) Describe(ctx context.Context, secret, mimeType string, data []byte) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	return "A simple outline drawing.", nil
}

// Simulate slight processing time and respect ctx
func (a *NoopAIAdapter) wait(ctx context.Context) error {
	if a.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(a.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// blankPage draws a white page with a black frame.
func blankPage(w, h int) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.Gray{Y: 255}
			if x < 2 || y < 2 || x >= w-2 || y >= h-2 {
				c = color.Gray{Y: 0}
			}
			img.SetGray(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
