// Package credstore persists the bearer token and the cached user record
// across process restarts.
package credstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Logical keys held by the store.
const (
	KeyToken    = "token"
	KeyUserData = "userData"
)

// Driver identifiers accepted by New.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Store is a durable key-value store. A missing key is not an error: Get
// reports it with ok == false. Failures of the underlying medium surface as
// clienterr.KindStorage.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites the value under key.
	Set(ctx context.Context, key, value string) error
	// RemoveMany deletes all keys or none of them.
	RemoveMany(ctx context.Context, keys ...string) error
	// Close releases the underlying medium.
	Close() error
}

// Config selects and tunes a driver.
type Config struct {
	// Driver is one of the Driver* constants; empty means DriverFile.
	Driver string
	// Path is the document location for DriverFile.
	Path string
	// Passphrase seals the file document at rest when non-empty.
	Passphrase string
	// DSN is the connection string for DriverPostgres.
	DSN string
	// Redis configures DriverRedis.
	Redis *RedisConfig
}

// RedisConfig captures redis connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	// Prefix namespaces keys; defaults to "vidyasetu:cred:".
	Prefix string
}

// Dependencies carries handles owned by the caller.
type Dependencies struct {
	// DB is used by DriverPostgres instead of opening DSN.
	DB *sql.DB
}

// DefaultPath is where the file driver keeps its document.
const DefaultPath = "credentials.json"

// New builds the store selected by cfg.Driver.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		path := cfg.Path
		if path == "" {
			path = DefaultPath
		}
		return NewFile(path, cfg.Passphrase)
	case DriverPostgres:
		if deps.DB != nil {
			return NewPostgres(deps.DB), nil
		}
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		return OpenPostgres(cfg.DSN)
	case DriverRedis:
		return NewRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported credential store driver: %s", driver)
	}
}
