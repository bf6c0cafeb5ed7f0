// Package config provides centralized configuration management for sheetsync.
// It loads settings from environment variables with sensible defaults and
// validates them on startup to fail fast on misconfiguration.
//
// The project file (sheets, columns, spreadsheet ID) is user data and lives
// in the project package; this package only covers how the tool runs.
package config

import (
	"strconv"
	"time"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Project  ProjectConfig
	Fetch    FetchConfig
	Storage  StorageConfig
	Server   ServerConfig
	Sync     SyncConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ProjectConfig locates the project file.
type ProjectConfig struct {
	// Path is the HCL project file (default: sheets.hcl)
	Path string `env:"SHEETSYNC_CONFIG" default:"sheets.hcl"`
}

// FetchConfig holds spreadsheet download settings.
type FetchConfig struct {
	// BaseURL is the export origin (default: https://docs.google.com)
	BaseURL string `env:"FETCH_BASE_URL" default:"https://docs.google.com"`

	// Timeout bounds each download; 0 means none (default: 0s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"0s"`
}

// StorageConfig selects where hydrated collections are persisted.
type StorageConfig struct {
	// Driver is one of file, sqlite, postgres (default: file)
	Driver string `env:"STORAGE_DRIVER" default:"file"`

	// SQLitePath is the database file for the sqlite driver
	SQLitePath string `env:"SQLITE_PATH" default:".sheetsync/artifacts.db"`

	// DatabaseURL is the PostgreSQL connection string (postgres driver only)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ServerConfig holds HTTP server settings for `sheetsync serve`.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0 for long syncs)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// SyncConfig holds background sync settings.
type SyncConfig struct {
	// Interval runs sync periodically while serving; 0 disables (default: 0s)
	Interval time.Duration `env:"SYNC_INTERVAL" default:"0s"`
}

// SecurityConfig holds HTTP API access settings.
type SecurityConfig struct {
	// RequireAPIKey guards workflow and edit endpoints (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted X-API-Key values
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
