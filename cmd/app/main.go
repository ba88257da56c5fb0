// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"coloring-book-generator/internal/bootstrap"
	"coloring-book-generator/internal/config"
	"coloring-book-generator/internal/infra/api"
	"coloring-book-generator/internal/infra/api/apiv1"
	"coloring-book-generator/internal/infra/export"
	"coloring-book-generator/internal/infra/imaging"
	"coloring-book-generator/internal/infra/logging"
	"coloring-book-generator/internal/infra/metrics"
	red "coloring-book-generator/internal/infra/redis"
	"coloring-book-generator/internal/infra/scheduler"
	"coloring-book-generator/internal/infra/storage"
	"coloring-book-generator/internal/infra/store/memory"
	"coloring-book-generator/internal/infra/telemetry"
	"coloring-book-generator/internal/infra/worker"
	"coloring-book-generator/internal/usecase"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop provider, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Telemetry ----
	metrics.MustRegister()
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry")
	}

	// ---- Secret ----
	secretRepo, closeSecrets, err := bootstrap.SecretRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("secret store")
	}
	defer closeSecrets()

	secretUC := usecase.NewSecretUseCase(secretRepo, cfg.Runtime.Dev, logger)
	if _, err := secretUC.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("load secret")
	}
	if secretUC.Current() == "" && cfg.Secret.Bootstrap != "" {
		if err := secretUC.Set(ctx, cfg.Secret.Bootstrap); err != nil {
			logger.Fatal().Err(err).Msg("bootstrap secret")
		}
	}

	// ---- AI providers ----
	images, describer := bootstrap.ImageService(cfg)
	if bootstrap.RequiresSecret(cfg) && secretUC.Current() == "" {
		logger.Warn().Str("provider", cfg.AI.Provider).Msg("no API key stored yet; batches are rejected until PUT /api/v1/secret")
	}

	// ---- Retry workers ----
	pool := worker.NewPool(cfg.Generation.MaxInFlightRetries, logger)
	pool.Start(ctx)

	// ---- Use cases ----
	pages := memory.NewPageStore()
	genUC := usecase.NewGenerationUseCase(pages, images, describer, secretUC, pool, usecase.GenerationOptions{
		InterItemDelay: cfg.Generation.InterItemDelay,
		MaxCount:       cfg.Generation.MaxCount,
		AspectRatio:    cfg.AI.AspectRatio,
		RequireSecret:  bootstrap.RequiresSecret(cfg),
	}, logger)

	sink, err := bootstrap.FileSink(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("export sink")
	}
	notifier, err := bootstrap.Notifier(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	resolver := imaging.NewResolver(nil)
	exportUC := usecase.NewExportUseCase(pages, export.NewPDFRenderer(resolver), sink, notifier, resolver, logger)

	// ---- Export retention ----
	var pruner *scheduler.Scheduler
	if local, ok := sink.(*storage.LocalSink); ok && cfg.Export.Retention > 0 {
		pruner = scheduler.NewScheduler("export-prune", cfg.Export.PruneInterval, func(ctx context.Context) (int, error) {
			return local.Prune(ctx, cfg.Export.Retention)
		}, logger)
		pruner.Start(ctx)
	}

	// ---- HTTP ----
	opts := apiv1.Options{BatchLimit: cfg.HTTP.BatchRateLimit}
	if cfg.HTTP.BatchRateLimit > 0 {
		rc, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer rc.Close()
		opts.Limiter = red.NewRateLimiter(rc)
	}
	if cfg.Auth.Enabled() {
		opts.Auth = api.NewAuthManager(cfg.Auth.HMACSecret, cfg.Auth.Password, cfg.Auth.Secure, cfg.Auth.TokenTTL)
	}
	v1 := apiv1.NewServer(genUC, exportUC, secretUC, opts, logger)
	router := api.NewRouter(logger, cfg.HTTP.RequestTimeout, func(r chi.Router) { apiv1.RegisterAPIV1(r, v1) })
	srv := api.NewServer(cfg.HTTP, router, logger)
	errc := srv.Start()

	logger.Info().
		Str("version", version).
		Str("provider", cfg.AI.Provider).
		Str("secret_backend", cfg.Secret.Backend).
		Str("export_sink", cfg.Export.Sink).
		Msg("coloring book generator started")

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if pruner != nil {
		pruner.Stop()
	}

	waited := make(chan struct{})
	go func() { genUC.Wait(); close(waited) }()
	select {
	case <-waited:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("generation run still active at shutdown")
	}
	pool.Stop()
	cancel()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("telemetry shutdown")
	}
	logger.Info().Msg("bye")
}
