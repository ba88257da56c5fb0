// Command seed stores (or clears) the provider API key in the configured
// secret backend without starting the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"coloring-book-generator/internal/bootstrap"
	"coloring-book-generator/internal/config"
	"coloring-book-generator/internal/infra/logging"
	"coloring-book-generator/internal/usecase"
)

func main() {
	// ---- Flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	key := flag.String("key", os.Getenv("CBG_API_KEY"), "API key to store (default $CBG_API_KEY)")
	remove := flag.Bool("clear", false, "remove the stored key")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	// ---- Store ----
	repo, closeRepo, err := bootstrap.SecretRepository(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("secret store: %v", err)
	}
	defer closeRepo()

	secrets := usecase.NewSecretUseCase(repo, false, logger)
	if _, err := secrets.Load(ctx); err != nil {
		log.Fatalf("load secret: %v", err)
	}

	value := *key
	if *remove {
		value = ""
	} else if value == "" {
		log.Fatal("nothing to store: pass -key or set CBG_API_KEY (or use -clear)")
	}
	if err := secrets.Set(ctx, value); err != nil {
		log.Fatalf("store secret: %v", err)
	}

	if *remove {
		fmt.Printf("secret removed from %s backend\n", cfg.Secret.Backend)
		return
	}
	fmt.Printf("secret %s stored in %s backend\n", secrets.Preview(), cfg.Secret.Backend)
}
