package redis

import (
	"context"
	"errors"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/repository"
)

var _ repository.SecretRepository = (*SecretRepository)(nil)

const secretPrefix = "cbg:secret:"

// SecretRepository stores secrets as plain redis strings without expiry.
type SecretRepository struct {
	client Client
}

func NewSecretRepository(client Client) *SecretRepository {
	return &SecretRepository{client: client}
}

func (r *SecretRepository) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, secretPrefix+key)
	if errors.Is(err, Nil) {
		return "", domain.ErrNotFound
	}
	return v, err
}

func (r *SecretRepository) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, secretPrefix+key, value, 0)
}

func (r *SecretRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, secretPrefix+key)
}
