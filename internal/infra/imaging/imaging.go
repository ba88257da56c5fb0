// Package imaging moves generated images between data URLs, HTTP references
// and the formats the PDF writer accepts.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// maxRemoteImage bounds downloads of URL references.
const maxRemoteImage = 20 << 20

var (
	ErrUnsupportedReference = errors.New("unsupported image reference")
	ErrImageTooLarge        = errors.New("image too large")
)

// DataURL encodes bytes as a data: URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes a base64 data: URL.
func ParseDataURL(ref string) (string, []byte, error) {
	if !strings.HasPrefix(ref, "data:") {
		return "", nil, ErrUnsupportedReference
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("%w: data url must be base64", ErrUnsupportedReference)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}

// Resolver loads the bytes behind a page reference.
type Resolver struct {
	client   *http.Client
	maxBytes int64
}

func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Resolver{client: client, maxBytes: maxRemoteImage}
}

// Load returns the detected mime type and bytes of a data: or http(s) reference.
func (r *Resolver) Load(ctx context.Context, ref string) (string, []byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		mimeType, data, err := ParseDataURL(ref)
		if err != nil {
			return "", nil, err
		}
		return sniff(mimeType, data), data, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return "", nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return "", nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return "", nil, fmt.Errorf("fetch image: http %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
		if err != nil {
			return "", nil, err
		}
		if int64(len(data)) > r.maxBytes {
			return "", nil, fmt.Errorf("%w: %s is over %d bytes", ErrImageTooLarge, ref, r.maxBytes)
		}
		return sniff(resp.Header.Get("Content-Type"), data), data, nil
	default:
		return "", nil, ErrUnsupportedReference
	}
}

func sniff(declared string, data []byte) string {
	detected := http.DetectContentType(data)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return strings.TrimSpace(strings.Split(declared, ";")[0])
}

// ForPDF returns the gofpdf image type and bytes for an image, re-encoding
// formats the PDF writer cannot embed (webp, or anything unrecognised) as PNG.
func ForPDF(mimeType string, data []byte) (string, []byte, error) {
	switch sniff(mimeType, data) {
	case "image/png":
		return "PNG", data, nil
	case "image/jpeg":
		return "JPG", data, nil
	case "image/gif":
		return "GIF", data, nil
	}
	out, err := ToPNG(data)
	if err != nil {
		return "", nil, err
	}
	return "PNG", out, nil
}

// ToPNG decodes any registered format (png, jpeg, gif, webp) and encodes it as PNG.
func ToPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension maps a mime type to a file extension.
func Extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
