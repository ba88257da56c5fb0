package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/infra/imaging"
)

func TestPollinations_ReturnsDataURL(t *testing.T) {
	png := blankPage(3, 4)
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("nologo") != "true" || r.URL.Query().Get("height") != "1024" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	p := NewPollinationsAdapter(srv.URL+"/prompt/", srv.Client())
	ref, err := p.Generate(context.Background(), adapter.ImageRequest{Prompt: "a cat/dog", Secret: "tok"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(gotPath, "/prompt/a%20cat%2Fdog") {
		t.Errorf("prompt must be path-escaped, got %s", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	mimeType, data, err := imaging.ParseDataURL(ref)
	if err != nil || mimeType != "image/png" || len(data) != len(png) {
		t.Fatalf("unexpected reference: %s %v", mimeType, err)
	}
}

func TestPollinations_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "busy") {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	p := NewPollinationsAdapter(srv.URL, srv.Client())
	if _, err := p.Generate(context.Background(), adapter.ImageRequest{Prompt: "busy"}); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected http 429 error, got %v", err)
	}
	if _, err := p.Generate(context.Background(), adapter.ImageRequest{Prompt: "ok"}); !errors.Is(err, domain.ErrNoImageData) {
		t.Fatalf("expected ErrNoImageData for html body, got %v", err)
	}
}

func TestOpenAI_DecodesBase64Image(t *testing.T) {
	png := blankPage(2, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing api key, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString(png) + `"}]}`))
	}))
	defer srv.Close()

	o := NewOpenAIAdapter(srv.URL+"/v1/", "")
	ref, err := o.Generate(context.Background(), adapter.ImageRequest{Prompt: "x", Secret: "sk-test"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(ref, "data:image/png;base64,") {
		t.Fatalf("unexpected reference %q", ref[:30])
	}
}

func TestProviders_RequireSecret(t *testing.T) {
	for _, g := range []adapter.ImageGenerator{NewOpenAIAdapter("", ""), NewGeminiAdapter("", "m", "v")} {
		if _, err := g.Generate(context.Background(), adapter.ImageRequest{Prompt: "x"}); !errors.Is(err, domain.ErrMissingSecret) {
			t.Errorf("%s: expected ErrMissingSecret, got %v", g.Name(), err)
		}
	}
}

func TestGemini_ResponseExtraction(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "  here you go  "},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2}}},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
	if b := firstInlineImage(resp); b == nil || len(b.Data) != 2 {
		t.Fatalf("expected inline image, got %+v", b)
	}
	if got := firstText(resp); got != "here you go" {
		t.Errorf("unexpected text %q", got)
	}
	if blockReason(resp) != "" {
		t.Errorf("stop is not a block reason")
	}

	blocked := &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}
	if firstInlineImage(blocked) != nil || blockReason(blocked) == "" {
		t.Error("blocked response must yield no image and a reason")
	}
	if firstInlineImage(nil) != nil || firstText(nil) != "" {
		t.Error("nil response must be handled")
	}
}

func TestNoop_ReturnsPNGPage(t *testing.T) {
	n := NewNoopAIAdapter(0)
	ref, err := n.Generate(context.Background(), adapter.ImageRequest{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := imaging.ParseDataURL(ref); err != nil {
		t.Fatalf("noop page must be a data url: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewNoopAIAdapter(50).Generate(ctx, adapter.ImageRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
