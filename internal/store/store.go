package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/faceofmind/admin-sync/internal/config"
	"github.com/faceofmind/admin-sync/internal/database"
)

// Errors
var (
	ErrNotFound      = errors.New("key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrClosed        = errors.New("store closed")
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites the value for key.
	Set(ctx context.Context, key, value string) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(cfg.Memory.QuotaBytes), nil

	case config.DriverSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Debug("sqlite store opened", "path", cfg.SQLite.Path)
		return s, nil

	case config.DriverRedis:
		s, err := NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.Debug("redis store opened", "prefix", cfg.Redis.Prefix)
		return s, nil

	case config.DriverPostgres:
		pool, err := database.Connect(ctx, cfg.Postgres.DB)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		s := NewPostgresStore(pool, cfg.Postgres.Table)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.Debug("postgres store opened", "table", cfg.Postgres.Table)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
