// Package bootstrap builds the configured adapters shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"coloring-book-generator/internal/config"
	"coloring-book-generator/internal/domain/ports/adapter"
	"coloring-book-generator/internal/domain/ports/repository"
	ai "coloring-book-generator/internal/infra/adapters/ai"
	tele "coloring-book-generator/internal/infra/adapters/telegram"
	pg "coloring-book-generator/internal/infra/db/postgres"
	red "coloring-book-generator/internal/infra/redis"
	"coloring-book-generator/internal/infra/security"
	"coloring-book-generator/internal/infra/storage"
	"coloring-book-generator/internal/infra/store/file"
	"coloring-book-generator/internal/infra/store/memory"
)

// SecretRepository opens the configured secret backend, sealed with
// security.encryption_key when one is set. release closes connections.
func SecretRepository(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (repo repository.SecretRepository, release func(), err error) {
	release = func() {}
	switch cfg.Secret.Backend {
	case "memory":
		repo = memory.NewSecretRepository()
	case "redis":
		client, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, release, fmt.Errorf("redis: %w", err)
		}
		release = func() { _ = client.Close() }
		repo = red.NewSecretRepository(client)
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, release, fmt.Errorf("postgres: %w", err)
		}
		release = pool.Close
		repo = pg.NewPgSecretRepo(pool)
	default:
		repo = file.NewSecretRepository(cfg.Secret.FilePath)
	}

	if cfg.Security.EncryptionKey != "" {
		c, err := security.NewCipher(cfg.Security.EncryptionKey)
		if err != nil {
			release()
			return nil, func() {}, err
		}
		repo = security.NewEncryptedSecretRepository(repo, c)
	} else if !cfg.Runtime.Dev && cfg.Secret.Backend != "memory" {
		log.Warn().Str("backend", cfg.Secret.Backend).Msg("security.encryption_key not set; secret stored in plain text")
	}
	log.Info().Str("backend", cfg.Secret.Backend).Msg("secret store ready")
	return repo, release, nil
}

// ImageService registers every provider behind the router, capped at
// ai.concurrent_limit concurrent calls.
func ImageService(cfg *config.Config) (adapter.ImageGenerator, adapter.ImageDescriber) {
	client := &http.Client{Timeout: cfg.AI.RequestTimeout}
	multi := ai.NewMultiAIAdapter(cfg.AI.Provider, map[string]adapter.ImageGenerator{
		"gemini":       ai.NewGeminiAdapter(cfg.AI.GeminiURL, cfg.AI.GeminiImageModel, cfg.AI.GeminiVisionModel),
		"openai":       ai.NewOpenAIAdapter(cfg.AI.OpenAIBaseURL, cfg.AI.OpenAIImageModel),
		"pollinations": ai.NewPollinationsAdapter(cfg.AI.PollinationsURL, client),
		"noop":         ai.NewNoopAIAdapter(0),
	})
	limited := ai.NewLimitedAI(multi, cfg.AI.ConcurrentLimit)
	describer, _ := limited.(adapter.ImageDescriber)
	return limited, describer
}

// RequiresSecret reports whether the default provider refuses anonymous calls.
func RequiresSecret(cfg *config.Config) bool {
	switch cfg.AI.Provider {
	case "gemini", "openai":
		return true
	}
	return false
}

func FileSink(ctx context.Context, cfg *config.Config) (adapter.FileSink, error) {
	if cfg.Export.Sink == "s3" {
		return storage.NewS3Sink(ctx, cfg.Export.S3)
	}
	return storage.NewLocalSink(cfg.Export.Dir), nil
}

// Notifier returns nil when Telegram delivery is not configured.
func Notifier(cfg *config.Config, log *zerolog.Logger) (adapter.BookletNotifier, error) {
	if !cfg.Telegram.Enabled() {
		if cfg.Runtime.Dev {
			return tele.NewNoopNotifier(log), nil
		}
		return nil, nil
	}
	return tele.NewBookletNotifier(cfg.Telegram)
}
