//go:build !integration

package apiv1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/domain/ports/adapter"
	ai "coloring-book-generator/internal/infra/adapters/ai"
	"coloring-book-generator/internal/infra/api"
	apiv1 "coloring-book-generator/internal/infra/api/apiv1"
	"coloring-book-generator/internal/infra/export"
	"coloring-book-generator/internal/infra/imaging"
	"coloring-book-generator/internal/infra/logging"
	"coloring-book-generator/internal/infra/storage"
	"coloring-book-generator/internal/infra/store/memory"
	"coloring-book-generator/internal/usecase"
)

type fixture struct {
	router http.Handler
	gen    usecase.GenerationUseCase
}

type denyAfter struct{ n, limit int }

func (d *denyAfter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	d.n++
	return d.n <= d.limit, nil
}

func newFixture(t *testing.T, opts apiv1.Options) *fixture {
	t.Helper()
	log := logging.Nop()
	store := memory.NewPageStore()
	images := ai.NewMultiAIAdapter("noop", map[string]adapter.ImageGenerator{"noop": ai.NewNoopAIAdapter(0)})
	secrets := usecase.NewSecretUseCase(memory.NewSecretRepository(), false, log)
	gen := usecase.NewGenerationUseCase(store, images, images, secrets, nil,
		usecase.GenerationOptions{RequireSecret: true}, log)
	resolver := imaging.NewResolver(nil)
	exp := usecase.NewExportUseCase(store, export.NewPDFRenderer(resolver), storage.NewLocalSink(t.TempDir()), nil, resolver, log)

	srv := apiv1.NewServer(gen, exp, secrets, opts, log)
	router := api.NewRouter(log, 5*time.Second, func(r chi.Router) { apiv1.RegisterAPIV1(r, srv) })
	return &fixture{router: router, gen: gen}
}

func (f *fixture) do(t *testing.T, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Buffer
	if body != "" {
		rd = bytes.NewBufferString(body)
	} else {
		rd = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestBatchFlow_GenerateSelectExport(t *testing.T) {
	f := newFixture(t, apiv1.Options{})

	if rec := f.do(t, http.MethodPost, "/api/v1/batches", `{"subject":"cats"}`); rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 without a secret, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPut, "/api/v1/secret", `{"value":"AIzaSyExample12345"}`); rec.Code != http.StatusOK {
		t.Fatalf("put secret: %d", rec.Code)
	}
	sec := decode[map[string]any](t, f.do(t, http.MethodGet, "/api/v1/secret", ""))
	if sec["configured"] != true || sec["preview"] != "AIza...45" {
		t.Fatalf("unexpected secret view %v", sec)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/batches", `{"subject":"cats","count":2,"difficulty":2}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: %d %s", rec.Code, rec.Body.String())
	}
	batch := decode[model.Batch](t, rec)
	if len(batch.Pages) != 2 {
		t.Fatalf("expected 2 placeholders, got %d", len(batch.Pages))
	}
	f.gen.Wait()

	list := decode[struct {
		Items []model.ColoringPage `json:"items"`
	}](t, f.do(t, http.MethodGet, "/api/v1/pages", ""))
	for _, p := range list.Items {
		if p.Status != model.PageStatusReady {
			t.Fatalf("expected ready pages, got %+v", p)
		}
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/export", `{}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 with nothing selected, got %d", rec.Code)
	}

	sel := decode[model.ColoringPage](t, f.do(t, http.MethodPost, "/api/v1/pages/"+list.Items[1].ID+"/select", ""))
	if !sel.Selected {
		t.Fatal("page must be selected")
	}

	rec = f.do(t, http.MethodPost, "/api/v1/export", `{"title":"Cats"}`, "Accept", "application/pdf")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("export: %d %q", rec.Code, rec.Body.String()[:min(20, rec.Body.Len())])
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Cats_coloring_book.pdf") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	meta := decode[model.ExportResult](t, f.do(t, http.MethodPost, "/api/v1/export", ``))
	if meta.FileName != "cats_coloring_book.pdf" || meta.Pages != 1 {
		t.Errorf("title should default to the subject: %+v", meta)
	}

	img := f.do(t, http.MethodGet, "/api/v1/pages/"+list.Items[0].ID+"/image", "")
	if img.Code != http.StatusOK || img.Header().Get("Content-Type") != "image/png" ||
		!strings.Contains(img.Header().Get("Content-Disposition"), "coloring_page_"+list.Items[0].ID[:8]+".png") {
		t.Errorf("unexpected image download %d %v", img.Code, img.Header())
	}
}

func TestRetryAndRegenerate(t *testing.T) {
	f := newFixture(t, apiv1.Options{})
	f.do(t, http.MethodPut, "/api/v1/secret", `{"value":"key-123456789"}`)
	batch := decode[model.Batch](t, f.do(t, http.MethodPost, "/api/v1/batches", `{"subject":"owls"}`))
	f.gen.Wait()

	if rec := f.do(t, http.MethodPost, "/api/v1/pages/nope/retry", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/api/v1/pages/"+batch.Pages[0].ID+"/retry", "")
	if rec.Code != http.StatusAccepted || decode[model.ColoringPage](t, rec).Status != model.PageStatusPending {
		t.Fatalf("retry: %d %s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/pages/regenerate", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 with nothing selected, got %d", rec.Code)
	}
}

func TestValidation(t *testing.T) {
	f := newFixture(t, apiv1.Options{})
	f.do(t, http.MethodPut, "/api/v1/secret", `{"value":"key-123456789"}`)
	cases := []string{
		`{"subject":""}`,
		`{"subject":"x","difficulty":11}`,
		`{"subject":"x","mode":"watercolor"}`,
		`{"subject":"x","extra":1}`,
		`{not json`,
		`{"subject":"x","count":9}`,
		`{"subject":"x","provider":"dalle"}`,
	}
	for _, body := range cases {
		if rec := f.do(t, http.MethodPost, "/api/v1/batches", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d %s", body, rec.Code, rec.Body.String())
		}
	}
	if pages := f.gen.Pages(); len(pages) != 0 {
		t.Fatalf("rejected batches must not create pages, got %d", len(pages))
	}

	rec := f.do(t, http.MethodPost, "/api/v1/batches", `{"subject":"x","provider":"dalle"}`)
	if body := decode[map[string]string](t, rec); body["code"] != "unknown_provider" {
		t.Errorf("expected unknown_provider code, got %v", body)
	}
}

func TestDescribe(t *testing.T) {
	f := newFixture(t, apiv1.Options{})
	rec := f.do(t, http.MethodPost, "/api/v1/describe", "\x89PNG....", "Content-Type", "image/png")
	if rec.Code != http.StatusOK || decode[map[string]string](t, rec)["description"] == "" {
		t.Fatalf("describe: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/describe", "hello", "Content-Type", "text/plain"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image body, got %d", rec.Code)
	}
}

func TestAuthAndRateLimit(t *testing.T) {
	am := api.NewAuthManager("hmac", "letmein", false, time.Hour)
	f := newFixture(t, apiv1.Options{Auth: am, Limiter: &denyAfter{limit: 1}, BatchLimit: 1})

	if rec := f.do(t, http.MethodGet, "/api/v1/pages", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/login", `{"password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad password, got %d", rec.Code)
	}
	tok := decode[map[string]string](t, f.do(t, http.MethodPost, "/api/v1/login", `{"password":"letmein"}`))["token"]
	bearer := "Bearer " + tok

	if rec := f.do(t, http.MethodGet, "/api/v1/pages", "", "Authorization", bearer); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	f.do(t, http.MethodPut, "/api/v1/secret", `{"value":"key-123456789"}`, "Authorization", bearer)
	if rec := f.do(t, http.MethodPost, "/api/v1/batches", `{"subject":"a"}`, "Authorization", bearer); rec.Code != http.StatusAccepted {
		t.Fatalf("first batch: %d %s", rec.Code, rec.Body.String())
	}
	f.gen.Wait()
	if rec := f.do(t, http.MethodPost, "/api/v1/batches", `{"subject":"a"}`, "Authorization", bearer); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
