package repository

import "context"

// SecretRepository is a tiny durable key-value store for the provider credential.
// Get returns domain.ErrNotFound for missing keys.
type SecretRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
