package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pierrec/lz4/v4"
)

// SQLiteBackend stores payloads as lz4-compressed blobs in a SQLite table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens a SQLite database at dbPath with WAL mode enabled
// and creates the artifacts table.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database folder: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(sqliteDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

const sqliteDDL = `
CREATE TABLE IF NOT EXISTS artifacts (
  path        TEXT PRIMARY KEY,
  payload     BLOB NOT NULL,
  size        INTEGER NOT NULL,
  updated_at  TIMESTAMP NOT NULL
);
`

func (b *SQLiteBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var compressed []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM artifacts WHERE path = ?`, key).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	payload, err := io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
	if err != nil {
		return nil, false, fmt.Errorf("decompress: %w", err)
	}
	return payload, true, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, payload []byte) error {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO artifacts (path, payload, size, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET payload = excluded.payload, size = excluded.size, updated_at = excluded.updated_at`,
		key, buf.Bytes(), len(payload), time.Now().UTC(),
	)
	return err
}

func (b *SQLiteBackend) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts WHERE path = ?`, key).Scan(&n)
	return n > 0, err
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
