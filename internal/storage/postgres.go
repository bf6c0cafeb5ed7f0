package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetsync/internal/config"
)

// PostgresBackend stores payloads as JSONB rows.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects a pool from cfg and creates the artifacts table.
func NewPostgresBackend(ctx context.Context, cfg config.StorageConfig) (*PostgresBackend, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

const postgresDDL = `
CREATE TABLE IF NOT EXISTS sheetsync_artifacts (
  path        TEXT PRIMARY KEY,
  payload     JSONB NOT NULL,
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (b *PostgresBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := b.pool.QueryRow(ctx, `SELECT payload::text FROM sheetsync_artifacts WHERE path = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, payload []byte) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO sheetsync_artifacts (path, payload, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (path) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		key, string(payload),
	)
	return err
}

func (b *PostgresBackend) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := b.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sheetsync_artifacts WHERE path = $1)`, key).Scan(&exists)
	return exists, err
}

// Close closes the pool.
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
