// File: internal/usecase/generation_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/domain/ports/repository"
	"coloring-book-generator/internal/infra/logging"
	"coloring-book-generator/internal/infra/metrics"
	"coloring-book-generator/internal/infra/telemetry"
	"coloring-book-generator/internal/infra/worker"
	"coloring-book-generator/internal/prompt"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// GenerationUseCase runs batches of pages one at a time and lets the user
// retry single pages while a batch is still running.
type GenerationUseCase interface {
	// Start validates params, replaces the current batch with pending
	// placeholders and runs the loop in the background.
	Start(ctx context.Context, params model.GenerationParams) (*model.Batch, error)
	// Run is Start followed by Wait; it returns the final page states.
	Run(ctx context.Context, params model.GenerationParams) (*model.Batch, error)
	// Wait blocks until the active run (if any) has finished.
	Wait()
	Retry(ctx context.Context, pageID string) (model.ColoringPage, error)
	RegenerateSelected(ctx context.Context) (int, error)
	Pages() []model.ColoringPage
	Params() model.GenerationParams
	Progress() model.Progress
	Describe(ctx context.Context, mimeType string, data []byte) string
}

// Dispatcher runs a task off the caller's goroutine (the retry worker pool).
type Dispatcher interface {
	Submit(task worker.Task) error
}

// SecretSource yields the provider credential in effect right now.
type SecretSource interface {
	Current() string
}

// GenerationOptions tune the loop. Zero values fall back to defaults, except
// InterItemDelay where zero means no delay.
type GenerationOptions struct {
	InterItemDelay time.Duration
	MaxCount       int
	AspectRatio    string
	// RequireSecret rejects runs while no credential is stored.
	RequireSecret bool
	// Sleep replaces time.Sleep between items (tests).
	Sleep func(time.Duration)
}

type generationUC struct {
	store     repository.PageStore
	ai        adapter.ImageGenerator
	describer adapter.ImageDescriber
	secrets   SecretSource
	retries   Dispatcher
	opts      GenerationOptions
	log       *zerolog.Logger

	mu       sync.Mutex
	running  bool
	done     chan struct{}
	params   model.GenerationParams
	batchID  string
	progress model.Progress
}

// NewGenerationUseCase wires the loop. describer and retries may be nil: without
// a describer Describe returns "", without a dispatcher retries run on their
// own goroutine.
func NewGenerationUseCase(
	store repository.PageStore,
	ai adapter.ImageGenerator,
	describer adapter.ImageDescriber,
	secrets SecretSource,
	retries Dispatcher,
	opts GenerationOptions,
	logger *zerolog.Logger,
) *generationUC {
	if opts.MaxCount <= 0 {
		opts.MaxCount = model.MaxPageCount
	}
	if opts.InterItemDelay < 0 {
		opts.InterItemDelay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	done := make(chan struct{})
	close(done)
	return &generationUC{
		store:     store,
		ai:        ai,
		describer: describer,
		secrets:   secrets,
		retries:   retries,
		opts:      opts,
		log:       logger,
		done:      done,
	}
}

func (g *generationUC) Start(ctx context.Context, params model.GenerationParams) (*model.Batch, error) {
	defer logging.TraceDuration(g.log, "GenerationUC.Start")()
	batch, ids, err := g.begin(params)
	if err != nil {
		return nil, err
	}
	// the run is not tied to the request that started it
	runCtx := logging.WithBatchID(context.WithoutCancel(ctx), batch.ID)
	go g.loop(runCtx, model.RunKindBatch, ids, batch.Params)
	return batch, nil
}

func (g *generationUC) Run(ctx context.Context, params model.GenerationParams) (*model.Batch, error) {
	defer logging.TraceDuration(g.log, "GenerationUC.Run")()
	batch, ids, err := g.begin(params)
	if err != nil {
		return nil, err
	}
	g.loop(logging.WithBatchID(context.WithoutCancel(ctx), batch.ID), model.RunKindBatch, ids, batch.Params)
	batch.Pages = g.store.List()
	return batch, nil
}

func (g *generationUC) begin(params model.GenerationParams) (*model.Batch, []string, error) {
	if g.opts.RequireSecret && g.secrets.Current() == "" {
		return nil, nil, domain.ErrMissingSecret
	}
	if err := params.Normalize(g.opts.MaxCount); err != nil {
		return nil, nil, err
	}
	if err := g.checkProvider(params.Provider); err != nil {
		return nil, nil, err
	}

	batch := &model.Batch{ID: model.NewBatchID(), Params: params, StartedAt: time.Now()}
	pages := make([]*model.ColoringPage, params.Count)
	ids := make([]string, params.Count)
	for i := range pages {
		pages[i] = model.NewColoringPage(batch.ID)
		ids[i] = pages[i].ID
		batch.Pages = append(batch.Pages, *pages[i])
	}

	if err := g.acquire(model.RunKindBatch, len(ids)); err != nil {
		return nil, nil, err
	}
	g.mu.Lock()
	g.params = params
	g.batchID = batch.ID
	g.mu.Unlock()
	g.store.Replace(pages)

	g.log.Info().Str("batch_id", batch.ID).Str("subject", params.Subject).
		Int("count", params.Count).Int("difficulty", params.Difficulty).Str("mode", string(params.Mode)).
		Msg("batch started")
	return batch, ids, nil
}

// checkProvider rejects a provider the generator cannot route before any call is made.
func (g *generationUC) checkProvider(provider string) error {
	if r, ok := g.ai.(adapter.ProviderRouter); ok && !r.Supports(provider) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}
	return nil
}

// acquire takes the single run flag.
func (g *generationUC) acquire(kind model.RunKind, total int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return domain.ErrBatchInProgress
	}
	g.running = true
	g.done = make(chan struct{})
	g.progress = model.Progress{Running: true, Kind: kind, Total: total}
	metrics.SetRunInProgress(true)
	return nil
}

func (g *generationUC) release(kind model.RunKind, failed int) {
	g.mu.Lock()
	g.running = false
	g.progress = model.Progress{}
	close(g.done)
	g.mu.Unlock()

	outcome := "ok"
	if failed > 0 {
		outcome = "partial"
	}
	metrics.SetRunInProgress(false)
	metrics.IncRun(string(kind), outcome)
}

// loop issues one call per page, in order, with the fixed delay between
// consecutive calls. A failed page never stops the loop.
func (g *generationUC) loop(ctx context.Context, kind model.RunKind, ids []string, params model.GenerationParams) {
	ctx, span := telemetry.Tracer().Start(ctx, "generation.run", trace.WithAttributes(
		attribute.String("run.kind", string(kind)),
		attribute.Int("run.total", len(ids)),
	))
	defer span.End()

	failed := 0
	defer func() { g.release(kind, failed) }()

	for i, id := range ids {
		if i > 0 && g.opts.InterItemDelay > 0 {
			g.opts.Sleep(g.opts.InterItemDelay)
		}
		g.setProgress(kind, i+1, len(ids))
		g.store.Update(id, (*model.ColoringPage).StartAttempt)
		if err := g.generate(ctx, id, params); err != nil {
			failed++
		}
	}

	logging.With(ctx, g.log).Info().Str("kind", string(kind)).
		Int("total", len(ids)).Int("failed", failed).Msg("run finished")
}

func (g *generationUC) setProgress(kind model.RunKind, current, total int) {
	label := fmt.Sprintf("drawing... (%d/%d)", current, total)
	if kind == model.RunKindRegenerate {
		label = fmt.Sprintf("regenerating (%d/%d)", current, total)
	}
	g.mu.Lock()
	g.progress = model.Progress{Running: true, Kind: kind, Current: current, Total: total, Label: label}
	g.mu.Unlock()
}

// generate issues exactly one provider call for a page and records the outcome.
func (g *generationUC) generate(ctx context.Context, id string, params model.GenerationParams) error {
	ctx = logging.WithPageID(ctx, id)
	ctx, span := telemetry.Tracer().Start(ctx, "generation.page", trace.WithAttributes(
		attribute.String("page.id", id),
		attribute.String("page.mode", string(params.Mode)),
	))
	defer span.End()
	log := logging.With(ctx, g.log)

	provider := params.Provider
	if provider == "" {
		provider = g.ai.Name()
	}
	start := time.Now()
	ref, err := g.callProvider(ctx, adapter.ImageRequest{
		Secret:      g.secrets.Current(),
		Prompt:      prompt.Build(params.Mode, params.Subject, params.Difficulty),
		Provider:    params.Provider,
		AspectRatio: g.opts.AspectRatio,
	})
	metrics.ObservePageGeneration(provider, time.Since(start), err == nil)

	var outcome error
	applied := g.store.Update(id, func(p *model.ColoringPage) {
		if err != nil {
			p.MarkFailed(err.Error())
			outcome = err
			return
		}
		if markErr := p.MarkReady(ref); markErr != nil {
			p.MarkFailed(domain.ErrNoImageData.Error())
			outcome = domain.ErrNoImageData
		}
	})
	if !applied {
		log.Debug().Msg("page no longer in store; result dropped")
		return nil
	}

	if outcome != nil {
		span.RecordError(outcome)
		span.SetStatus(codes.Error, outcome.Error())
		log.Warn().Err(outcome).Str("provider", provider).Msg("page generation failed")
		return outcome
	}
	log.Debug().Str("provider", provider).Dur("latency", time.Since(start)).Msg("page ready")
	return nil
}

// callProvider turns a provider panic into a page failure.
func (g *generationUC) callProvider(ctx context.Context, req adapter.ImageRequest) (ref string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.With(ctx, g.log).Error().Interface("panic", rec).Msg("image provider panicked")
			err = fmt.Errorf("provider failure: %v", rec)
		}
	}()
	return g.ai.Generate(ctx, req)
}

func (g *generationUC) Wait() {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()
	<-done
}

func (g *generationUC) Retry(ctx context.Context, pageID string) (model.ColoringPage, error) {
	defer logging.TraceDuration(g.log, "GenerationUC.Retry")()
	if g.opts.RequireSecret && g.secrets.Current() == "" {
		return model.ColoringPage{}, domain.ErrMissingSecret
	}
	g.mu.Lock()
	params := g.params
	batchID := g.batchID
	g.mu.Unlock()
	if err := g.checkProvider(params.Provider); err != nil {
		return model.ColoringPage{}, err
	}

	if !g.store.Update(pageID, (*model.ColoringPage).StartAttempt) {
		return model.ColoringPage{}, domain.ErrNotFound
	}
	page, _ := g.store.Get(pageID)

	runCtx := logging.WithBatchID(context.WithoutCancel(ctx), batchID)
	task := func(context.Context) error {
		_ = g.generate(runCtx, pageID, params)
		return nil
	}
	if g.retries == nil {
		go func() { _ = task(runCtx) }()
		return page, nil
	}
	if err := g.retries.Submit(task); err != nil {
		g.store.Update(pageID, func(p *model.ColoringPage) { p.MarkFailed(err.Error()) })
		return model.ColoringPage{}, err
	}
	return page, nil
}

func (g *generationUC) RegenerateSelected(ctx context.Context) (int, error) {
	defer logging.TraceDuration(g.log, "GenerationUC.RegenerateSelected")()
	if g.opts.RequireSecret && g.secrets.Current() == "" {
		return 0, domain.ErrMissingSecret
	}
	var ids []string
	for _, p := range g.store.List() {
		if p.Selected {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return 0, domain.ErrNothingSelected
	}
	g.mu.Lock()
	params := g.params
	batchID := g.batchID
	g.mu.Unlock()
	if err := g.checkProvider(params.Provider); err != nil {
		return 0, err
	}

	if err := g.acquire(model.RunKindRegenerate, len(ids)); err != nil {
		return 0, err
	}
	for _, id := range ids {
		g.store.Update(id, (*model.ColoringPage).MarkPending)
	}

	g.log.Info().Str("batch_id", batchID).Int("count", len(ids)).Msg("regenerating selected pages")
	go g.loop(logging.WithBatchID(context.WithoutCancel(ctx), batchID), model.RunKindRegenerate, ids, params)
	return len(ids), nil
}

func (g *generationUC) Pages() []model.ColoringPage { return g.store.List() }

func (g *generationUC) Params() model.GenerationParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.params
}

func (g *generationUC) Progress() model.Progress {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.progress
}

// Describe never fails: any provider error is logged and yields "".
func (g *generationUC) Describe(ctx context.Context, mimeType string, data []byte) string {
	defer logging.TraceDuration(g.log, "GenerationUC.Describe")()
	if g.describer == nil || len(data) == 0 {
		return ""
	}
	text, err := g.describer.Describe(ctx, g.secrets.Current(), mimeType, data)
	if err != nil {
		lvl := g.log.Warn()
		if errors.Is(err, context.Canceled) {
			lvl = g.log.Debug()
		}
		lvl.Err(err).Msg("reference description failed")
		return ""
	}
	return text
}
