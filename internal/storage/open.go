package storage

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/sheetsync/internal/config"
)

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Driver {
	case config.DriverFile, "":
		backend = NewFileBackend()
	case config.DriverSQLite:
		backend, err = NewSQLiteBackend(cfg.SQLitePath)
	case config.DriverPostgres:
		backend, err = NewPostgresBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}
	return New(backend), nil
}
