package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/domain/ports/repository"
	"coloring-book-generator/internal/infra/logging"
)

// Compile-time check
var _ SecretUseCase = (*secretUC)(nil)

// SecretUseCase keeps the single provider credential in memory and in the
// configured store under model.SecretKey.
type SecretUseCase interface {
	Load(ctx context.Context) (string, error)
	Set(ctx context.Context, value string) error
	Current() string
	Preview() string
}

type secretUC struct {
	repo repository.SecretRepository
	dev  bool
	log  *zerolog.Logger

	mu      sync.RWMutex
	current string
}

func NewSecretUseCase(repo repository.SecretRepository, dev bool, logger *zerolog.Logger) *secretUC {
	return &secretUC{repo: repo, dev: dev, log: logger}
}

// Load reads the stored value; a missing key is an empty secret.
func (s *secretUC) Load(ctx context.Context) (string, error) {
	defer logging.TraceDuration(s.log, "SecretUC.Load")()
	v, err := s.repo.Get(ctx, model.SecretKey)
	if errors.Is(err, domain.ErrNotFound) {
		v, err = "", nil
	}
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
	return v, nil
}

// Set persists a changed value. The empty string deletes the stored key.
func (s *secretUC) Set(ctx context.Context, value string) error {
	defer logging.TraceDuration(s.log, "SecretUC.Set")()
	value = strings.TrimSpace(value)

	s.mu.Lock()
	defer s.mu.Unlock()
	if value == s.current {
		return nil
	}
	var err error
	if value == "" {
		err = s.repo.Delete(ctx, model.SecretKey)
	} else {
		err = s.repo.Set(ctx, model.SecretKey, value)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to persist secret")
		return err
	}
	s.current = value
	s.log.Info().Str("secret", s.preview()).Msg("secret updated")
	return nil
}

func (s *secretUC) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *secretUC) Preview() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview()
}

func (s *secretUC) preview() string {
	if s.current == "" {
		return ""
	}
	return logging.Redact(s.current, false)
}
