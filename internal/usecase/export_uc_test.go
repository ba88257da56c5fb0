//go:build !integration

package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"reflect"
	"testing"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/infra/imaging"
	"coloring-book-generator/internal/infra/logging"
	"coloring-book-generator/internal/infra/store/memory"
	"coloring-book-generator/internal/usecase"
)

type exportFixture struct {
	uc       usecase.ExportUseCase
	store    *memory.PageStore
	renderer *fakeRenderer
	sink     *fakeSink
	notifier *fakeNotifier
	pages    []*model.ColoringPage
}

// newExportFixture stores pages in the given statuses; ready pages get result "ref-<index>".
func newExportFixture(t *testing.T, st ...model.PageStatus) *exportFixture {
	t.Helper()
	f := &exportFixture{store: memory.NewPageStore(), renderer: &fakeRenderer{}, sink: &fakeSink{}, notifier: &fakeNotifier{}}
	for i, s := range st {
		p := model.NewColoringPage("b1")
		switch s {
		case model.PageStatusReady:
			_ = p.MarkReady("ref-" + string(rune('0'+i)))
		case model.PageStatusFailed:
			p.MarkFailed("nope")
		}
		f.pages = append(f.pages, p)
	}
	f.store.Replace(f.pages)
	f.uc = usecase.NewExportUseCase(f.store, f.renderer, f.sink, f.notifier, imaging.NewResolver(nil), logging.Nop())
	return f
}

func TestExport_NothingSelectedRendersNothing(t *testing.T) {
	f := newExportFixture(t, model.PageStatusReady, model.PageStatusFailed)
	if _, err := f.uc.Export(context.Background(), "Cats"); !errors.Is(err, domain.ErrNothingSelected) {
		t.Fatalf("expected ErrNothingSelected, got %v", err)
	}
	if f.renderer.calls != 0 || len(f.sink.names) != 0 || f.notifier.sent != 0 {
		t.Fatal("an empty export must not render, write or deliver")
	}
}

func TestExport_SelectedReadyPagesInStoreOrder(t *testing.T) {
	f := newExportFixture(t, model.PageStatusReady, model.PageStatusFailed, model.PageStatusReady, model.PageStatusReady)
	ctx := context.Background()
	for _, i := range []int{3, 0} {
		if _, err := f.uc.ToggleSelect(ctx, f.pages[i].ID); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}

	res, err := f.uc.Export(ctx, "Cats & Dogs")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !reflect.DeepEqual(f.renderer.refs, []string{"ref-0", "ref-3"}) {
		t.Errorf("unexpected page order %v", f.renderer.refs)
	}
	if res.FileName != "Cats & Dogs_coloring_book.pdf" || res.Location != "/out/Cats & Dogs_coloring_book.pdf" || res.Pages != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if f.notifier.sent != 1 {
		t.Errorf("expected delivery, got %d", f.notifier.sent)
	}
}

func TestExport_DefaultTitleAndDeliveryFailure(t *testing.T) {
	f := newExportFixture(t, model.PageStatusReady)
	f.notifier.err = errors.New("telegram down")
	_, _ = f.uc.ToggleSelect(context.Background(), f.pages[0].ID)

	res, err := f.uc.Export(context.Background(), "  ")
	if err != nil {
		t.Fatalf("delivery failure must not fail the export: %v", err)
	}
	if res.FileName != "ColoringBook_coloring_book.pdf" || f.renderer.title != "ColoringBook" {
		t.Errorf("unexpected default naming %+v / %q", res, f.renderer.title)
	}
}

func TestExport_RenderFailure(t *testing.T) {
	f := newExportFixture(t, model.PageStatusReady)
	f.renderer.err = errors.New("bad image")
	_, _ = f.uc.ToggleSelect(context.Background(), f.pages[0].ID)
	if _, err := f.uc.Export(context.Background(), "x"); err == nil {
		t.Fatal("expected render error")
	}
	if len(f.sink.names) != 0 {
		t.Fatal("nothing may be written after a failed render")
	}
}

func TestToggleSelect(t *testing.T) {
	f := newExportFixture(t, model.PageStatusReady, model.PageStatusPending, model.PageStatusFailed)
	ctx := context.Background()

	for _, want := range []bool{true, false} {
		p, err := f.uc.ToggleSelect(ctx, f.pages[0].ID)
		if err != nil || p.Selected != want {
			t.Fatalf("toggle: selected=%v err=%v, want %v", p.Selected, err, want)
		}
	}
	for _, i := range []int{1, 2} {
		p, err := f.uc.ToggleSelect(ctx, f.pages[i].ID)
		if !errors.Is(err, domain.ErrPageNotReady) || p.Selected {
			t.Errorf("page %d: expected ErrPageNotReady and no change, got %v %+v", i, err, p)
		}
	}
	if _, err := f.uc.ToggleSelect(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPageImage(t *testing.T) {
	store := memory.NewPageStore()
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	ready := model.NewColoringPage("b")
	_ = ready.MarkReady(imaging.DataURL("image/jpeg", jpg.Bytes()))
	pending := model.NewColoringPage("b")
	store.Replace([]*model.ColoringPage{ready, pending})
	uc := usecase.NewExportUseCase(store, &fakeRenderer{}, &fakeSink{}, nil, imaging.NewResolver(nil), logging.Nop())

	name, mimeType, data, err := uc.PageImage(context.Background(), ready.ID)
	if err != nil {
		t.Fatalf("page image: %v", err)
	}
	if name != "coloring_page_"+ready.ID[:8]+".png" || mimeType != "image/png" || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("unexpected download %s %s", name, mimeType)
	}
	if _, _, _, err := uc.PageImage(context.Background(), pending.ID); !errors.Is(err, domain.ErrPageNotReady) {
		t.Errorf("expected ErrPageNotReady, got %v", err)
	}
}

func TestBookletFileName(t *testing.T) {
	cases := map[string]string{
		"Cats":       "Cats_coloring_book.pdf",
		"a/b":        "a_b_coloring_book.pdf",
		"":           "ColoringBook_coloring_book.pdf",
		"../../etc":  ".._.._etc_coloring_book.pdf",
		"what?<>now": "what_now_coloring_book.pdf",
	}
	for in, want := range cases {
		if got := usecase.BookletFileName(in); got != want {
			t.Errorf("BookletFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
