package security

import (
	"context"

	"coloring-book-generator/internal/domain/ports/repository"
)

var _ repository.SecretRepository = (*EncryptedSecretRepository)(nil)

// EncryptedSecretRepository seals values before they reach the wrapped store.
type EncryptedSecretRepository struct {
	inner  repository.SecretRepository
	cipher *Cipher
}

func NewEncryptedSecretRepository(inner repository.SecretRepository, c *Cipher) *EncryptedSecretRepository {
	return &EncryptedSecretRepository{inner: inner, cipher: c}
}

func (r *EncryptedSecretRepository) Get(ctx context.Context, key string) (string, error) {
	sealed, err := r.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return r.cipher.Open(key, sealed)
}

func (r *EncryptedSecretRepository) Set(ctx context.Context, key, value string) error {
	sealed, err := r.cipher.Seal(key, value)
	if err != nil {
		return err
	}
	return r.inner.Set(ctx, key, sealed)
}

func (r *EncryptedSecretRepository) Delete(ctx context.Context, key string) error {
	return r.inner.Delete(ctx, key)
}
