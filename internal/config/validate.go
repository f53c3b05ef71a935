package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("api.ws_url", c.API.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit must be >= 0")
	}

	if c.Channel.ReconnectBaseDelay <= 0 {
		return errors.New("channel.reconnect_base_delay must be > 0")
	}
	if c.Channel.MaxAttempts < 1 {
		return errors.New("channel.max_attempts must be >= 1")
	}
	if c.Channel.LiveTimeout <= 0 {
		return errors.New("channel.live_timeout must be > 0")
	}
	if c.Channel.BufferSize < 1 {
		return errors.New("channel.buffer_size must be >= 1")
	}

	if c.Cache.Freshness <= 0 {
		return errors.New("cache.freshness must be > 0")
	}

	if err := c.Store.validate(); err != nil {
		return err
	}

	if c.Refresh.Enabled {
		if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
			return fmt.Errorf("refresh.schedule %q is invalid: %w", c.Refresh.Schedule, err)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case DriverMemory:
		if s.Memory.QuotaBytes < 0 {
			return errors.New("store.memory.quota_bytes must be >= 0")
		}
	case DriverSQLite:
		if s.SQLite.Path == "" {
			return errors.New("store.sqlite.path is required")
		}
	case DriverRedis:
		if s.Redis.URL == "" {
			return errors.New("store.redis.url is required")
		}
	case DriverPostgres:
		if s.Postgres.Table == "" {
			return errors.New("store.postgres.table is required")
		}
		return s.Postgres.DB.validate("store.postgres.db")
	default:
		return fmt.Errorf("store.driver must be one of memory, sqlite, redis, postgres, got %q", s.Driver)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s must use scheme %s, got %q", field, strings.Join(schemes, " or "), u.Scheme)
}
