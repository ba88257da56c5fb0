// File: internal/usecase/export_uc.go
package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/domain/ports/repository"
	"coloring-book-generator/internal/infra/imaging"
	"coloring-book-generator/internal/infra/logging"
	"coloring-book-generator/internal/infra/metrics"
	"coloring-book-generator/internal/infra/telemetry"
)

// Compile-time check
var _ ExportUseCase = (*exportUC)(nil)

// ExportUseCase handles page selection and booklet export.
type ExportUseCase interface {
	ToggleSelect(ctx context.Context, pageID string) (model.ColoringPage, error)
	Export(ctx context.Context, title string) (*model.ExportResult, error)
	PageImage(ctx context.Context, pageID string) (fileName, mimeType string, data []byte, err error)
}

// ImageLoader resolves a page result reference to bytes.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (mimeType string, data []byte, err error)
}

type exportUC struct {
	store    repository.PageStore
	renderer adapter.BookletRenderer
	sink     adapter.FileSink
	notifier adapter.BookletNotifier
	loader   ImageLoader
	log      *zerolog.Logger
}

// NewExportUseCase: notifier may be nil (no delivery).
func NewExportUseCase(
	store repository.PageStore,
	renderer adapter.BookletRenderer,
	sink adapter.FileSink,
	notifier adapter.BookletNotifier,
	loader ImageLoader,
	logger *zerolog.Logger,
) *exportUC {
	return &exportUC{store: store, renderer: renderer, sink: sink, notifier: notifier, loader: loader, log: logger}
}

func (e *exportUC) ToggleSelect(ctx context.Context, pageID string) (model.ColoringPage, error) {
	var toggleErr error
	if !e.store.Update(pageID, func(p *model.ColoringPage) { toggleErr = p.ToggleSelected() }) {
		return model.ColoringPage{}, domain.ErrNotFound
	}
	page, _ := e.store.Get(pageID)
	if toggleErr != nil {
		return page, toggleErr
	}
	logging.With(logging.WithPageID(ctx, pageID), e.log).Debug().Bool("selected", page.Selected).Msg("selection toggled")
	return page, nil
}

// Export renders selected ready pages in store order and persists the booklet.
func (e *exportUC) Export(ctx context.Context, title string) (*model.ExportResult, error) {
	defer logging.TraceDuration(e.log, "ExportUC.Export")()
	ctx, span := telemetry.Tracer().Start(ctx, "export.booklet")
	defer span.End()

	var refs []string
	for _, p := range e.store.List() {
		if p.Exportable() {
			refs = append(refs, p.Result)
		}
	}
	if len(refs) == 0 {
		metrics.IncExport("empty")
		return nil, domain.ErrNothingSelected
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultBookTitle
	}
	data, err := e.renderer.Render(ctx, refs, title)
	if err != nil {
		metrics.IncExport("error")
		span.RecordError(err)
		return nil, fmt.Errorf("render booklet: %w", err)
	}

	name := BookletFileName(title)
	location, err := e.sink.Save(ctx, name, "application/pdf", data)
	if err != nil {
		metrics.IncExport("error")
		span.RecordError(err)
		return nil, fmt.Errorf("save booklet: %w", err)
	}
	metrics.IncExport("ok")
	metrics.ObserveExportPages(len(refs))
	e.log.Info().Str("file", name).Str("location", location).Int("pages", len(refs)).Msg("booklet exported")

	if e.notifier != nil {
		caption := fmt.Sprintf("%s (%d pages)", title, len(refs))
		if err := e.notifier.SendBooklet(ctx, name, data, caption); err != nil {
			e.log.Warn().Err(err).Str("file", name).Msg("booklet delivery failed")
		}
	}
	return &model.ExportResult{FileName: name, Location: location, Pages: len(refs), Data: data}, nil
}

// PageImage returns a ready page's bytes under its download name.
func (e *exportUC) PageImage(ctx context.Context, pageID string) (string, string, []byte, error) {
	page, ok := e.store.Get(pageID)
	if !ok {
		return "", "", nil, domain.ErrNotFound
	}
	if page.Status != model.PageStatusReady {
		return "", "", nil, domain.ErrPageNotReady
	}
	mimeType, data, err := e.loader.Load(ctx, page.Result)
	if err != nil {
		return "", "", nil, fmt.Errorf("load page image: %w", err)
	}
	if mimeType != "image/png" {
		if data, err = imaging.ToPNG(data); err != nil {
			return "", "", nil, err
		}
		mimeType = "image/png"
	}
	return fmt.Sprintf("coloring_page_%s.png", page.ShortID()), mimeType, data, nil
}

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// BookletFileName is "<title>_coloring_book.pdf" with path separators and
// other characters unsafe in file names replaced.
func BookletFileName(title string) string {
	title = strings.TrimSpace(unsafeFileChars.ReplaceAllString(title, "_"))
	if title == "" {
		title = model.DefaultBookTitle
	}
	return title + "_coloring_book.pdf"
}
