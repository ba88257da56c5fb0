// File: cmd/demo/main.go
// Command demo runs one batch in the foreground, selects every ready page and
// writes the booklet through the configured export sink.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"coloring-book-generator/internal/bootstrap"
	"coloring-book-generator/internal/config"
	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/infra/export"
	"coloring-book-generator/internal/infra/imaging"
	"coloring-book-generator/internal/infra/logging"
	"coloring-book-generator/internal/infra/store/memory"
	"coloring-book-generator/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", true, "use the offline noop provider unless ai.provider is set")
	subject := flag.String("subject", "cute cats", "what to draw")
	count := flag.Int("count", model.DefaultPageCount, "number of pages")
	difficulty := flag.Int("difficulty", model.DefaultDifficulty, "detail level 1..10")
	mode := flag.String("mode", string(model.AppModeColoring), "coloring|mandala")
	title := flag.String("title", "", "booklet title (defaults to the subject)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	secretRepo, closeSecrets, err := bootstrap.SecretRepository(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("secret store: %v", err)
	}
	defer closeSecrets()
	secretUC := usecase.NewSecretUseCase(secretRepo, cfg.Runtime.Dev, logger)
	if _, err := secretUC.Load(ctx); err != nil {
		log.Fatalf("load secret: %v", err)
	}

	images, describer := bootstrap.ImageService(cfg)
	pages := memory.NewPageStore()
	genUC := usecase.NewGenerationUseCase(pages, images, describer, secretUC, nil, usecase.GenerationOptions{
		InterItemDelay: cfg.Generation.InterItemDelay,
		MaxCount:       cfg.Generation.MaxCount,
		AspectRatio:    cfg.AI.AspectRatio,
		RequireSecret:  bootstrap.RequiresSecret(cfg),
	}, logger)

	sink, err := bootstrap.FileSink(ctx, cfg)
	if err != nil {
		log.Fatalf("export sink: %v", err)
	}
	resolver := imaging.NewResolver(nil)
	exportUC := usecase.NewExportUseCase(pages, export.NewPDFRenderer(resolver), sink, nil, resolver, logger)

	batch, err := genUC.Run(ctx, model.GenerationParams{
		Subject:    *subject,
		Count:      *count,
		Difficulty: *difficulty,
		Mode:       model.AppMode(*mode),
	})
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	for _, p := range batch.Pages {
		fmt.Printf("page %s: %s %s\n", p.ShortID(), p.Status, p.ErrorMessage)
		if p.Status == model.PageStatusReady {
			if _, err := exportUC.ToggleSelect(ctx, p.ID); err != nil {
				log.Fatalf("select %s: %v", p.ID, err)
			}
		}
	}

	name := *title
	if name == "" {
		name = batch.Params.Subject
	}
	res, err := exportUC.Export(ctx, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d page(s) to %s\n", res.Pages, res.Location)
}
