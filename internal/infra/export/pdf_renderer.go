// File: internal/infra/export/pdf_renderer.go
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/infra/imaging"
)

var _ adapter.BookletRenderer = (*PDFRenderer)(nil)

const (
	pageMarginMM = 10
	footerFormat = "Created with AI Coloring Book - Page %d"
)

// ImageLoader resolves a page reference (data URL or http link) to image bytes.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (mimeType string, data []byte, err error)
}

// PDFRenderer lays out one image per A4 portrait page, stretched to the
// margins, with a page footer.
type PDFRenderer struct {
	loader ImageLoader
}

func NewPDFRenderer(loader ImageLoader) *PDFRenderer {
	return &PDFRenderer{loader: loader}
}

func (r *PDFRenderer) Render(ctx context.Context, refs []string, title string) ([]byte, error) {
	if len(refs) == 0 {
		return nil, errors.New("no pages to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("coloring-book-generator", true)
	pdf.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	// footer sits inside the bottom margin; never spill onto a new page
	pdf.SetAutoPageBreak(false, 0)
	pageW, pageH := pdf.GetPageSize()

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mimeType, data, err := r.loader.Load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		imgType, imgData, err := imaging.ForPDF(mimeType, data)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}

		name := fmt.Sprintf("page-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: imgType}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(imgData))

		pdf.AddPage()
		pdf.ImageOptions(name, pageMarginMM, pageMarginMM, pageW-2*pageMarginMM, pageH-2*pageMarginMM, false, opts, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(0, pageH-8)
		pdf.CellFormat(pageW, 6, fmt.Sprintf(footerFormat, i+1), "", 0, "C", false, 0, "")

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
