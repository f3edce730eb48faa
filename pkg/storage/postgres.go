package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores blobs in the blobs table. Used when S3 is not configured;
// artifacts are small (1 MiB cap) so bytea columns are adequate.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed blob store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Put inserts or replaces a blob.
func (p *Postgres) Put(ctx context.Context, key, contentType string, data []byte) error {
	const q = `INSERT INTO blobs (key, content_type, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data`
	_, err := p.pool.Exec(ctx, q, key, contentType, data)
	return err
}

// Get returns blob bytes and content type.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, string, error) {
	const q = `SELECT data, content_type FROM blobs WHERE key = $1`
	var data []byte
	var contentType string
	err := p.pool.QueryRow(ctx, q, key).Scan(&data, &contentType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// Delete removes a blob.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM blobs WHERE key = $1`, key)
	return err
}
