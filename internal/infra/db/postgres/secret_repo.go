package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"coloring-book-generator/internal/domain"
	"coloring-book-generator/internal/domain/ports/repository"
)

var _ repository.SecretRepository = (*PgSecretRepo)(nil)

// Executor is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// PgSecretRepo keeps secrets in the settings table (see deploy/postgres/init.sql).
type PgSecretRepo struct {
	db Executor
}

func NewPgSecretRepo(db Executor) *PgSecretRepo {
	return &PgSecretRepo{db: db}
}

func (r *PgSecretRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *PgSecretRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	return err
}

func (r *PgSecretRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM settings WHERE key = $1`, key)
	return err
}
