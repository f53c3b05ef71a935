package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL            = "http://localhost:8000/api"
	DefaultWSURL              = "ws://localhost:8000/ws/analytics/"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRateBurst          = 5
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultMaxAttempts        = 5
	DefaultPingInterval       = 30 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultLiveTimeout        = 10 * time.Second
	DefaultBufferSize         = 256
	DefaultFreshness          = 5 * time.Minute
	DefaultStoreDriver        = "sqlite"
	DefaultSQLitePath         = "adminsync.db"
	DefaultRedisPrefix        = "adminsync:"
	DefaultPostgresTable      = "adminsync_kv"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultRefreshSchedule    = "@every 5m"
	DefaultRefreshTimeout     = 30 * time.Second
	DefaultMetricsPath        = "/metrics"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RateLimit > 0 && c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}

	// Channel defaults
	if c.Channel.ReconnectBaseDelay == 0 {
		c.Channel.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Channel.MaxAttempts == 0 {
		c.Channel.MaxAttempts = DefaultMaxAttempts
	}
	if c.Channel.PingInterval == 0 {
		c.Channel.PingInterval = DefaultPingInterval
	}
	if c.Channel.PingTimeout == 0 {
		c.Channel.PingTimeout = DefaultPingTimeout
	}
	if c.Channel.WriteTimeout == 0 {
		c.Channel.WriteTimeout = DefaultWriteTimeout
	}
	if c.Channel.LiveTimeout == 0 {
		c.Channel.LiveTimeout = DefaultLiveTimeout
	}
	if c.Channel.BufferSize == 0 {
		c.Channel.BufferSize = DefaultBufferSize
	}

	if c.Cache.Freshness == 0 {
		c.Cache.Freshness = DefaultFreshness
	}

	// Store defaults
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = DefaultSQLitePath
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = DefaultRedisPrefix
	}
	if c.Store.Postgres.Table == "" {
		c.Store.Postgres.Table = DefaultPostgresTable
	}
	applyDBDefaults(&c.Store.Postgres.DB)

	// Refresh defaults
	if c.Refresh.Schedule == "" {
		c.Refresh.Schedule = DefaultRefreshSchedule
	}
	if c.Refresh.Timeout == 0 {
		c.Refresh.Timeout = DefaultRefreshTimeout
	}

	if c.Health.MetricsPath == "" {
		c.Health.MetricsPath = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
