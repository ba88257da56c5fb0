package memory

import (
	"context"
	"sync"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/repository"
)

var _ repository.SecretRepository = (*SecretRepository)(nil)

// SecretRepository keeps secrets for the lifetime of the process (tests, demo).
type SecretRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewSecretRepository() *SecretRepository {
	return &SecretRepository{values: map[string]string{}}
}

func (r *SecretRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (r *SecretRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.values[key] = value
	r.mu.Unlock()
	return nil
}

func (r *SecretRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.values, key)
	r.mu.Unlock()
	return nil
}
