package config

import "time"

// Config is the root configuration for the admin sync client.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Channel ChannelConfig `yaml:"channel"`
	Cache   CacheConfig   `yaml:"cache"`
	Store   StoreConfig   `yaml:"store"`
	Refresh RefreshConfig `yaml:"refresh"`
	Health  HealthConfig  `yaml:"health"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig holds admin backend settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url" env:"ADMINSYNC_API_BASE_URL"`
	WSURL      string        `yaml:"ws_url" env:"ADMINSYNC_API_WS_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"ADMINSYNC_API_TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" env:"ADMINSYNC_API_MAX_RETRIES"`
	RateLimit  float64       `yaml:"rate_limit" env:"ADMINSYNC_API_RATE_LIMIT"` // requests per second, 0 = unlimited
	RateBurst  int           `yaml:"rate_burst" env:"ADMINSYNC_API_RATE_BURST"`
}

// ChannelConfig holds live channel settings.
type ChannelConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay" env:"ADMINSYNC_CHANNEL_RECONNECT_BASE_DELAY"`
	MaxAttempts        int           `yaml:"max_attempts" env:"ADMINSYNC_CHANNEL_MAX_ATTEMPTS"`
	PingInterval       time.Duration `yaml:"ping_interval" env:"ADMINSYNC_CHANNEL_PING_INTERVAL"`
	PingTimeout        time.Duration `yaml:"ping_timeout" env:"ADMINSYNC_CHANNEL_PING_TIMEOUT"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"ADMINSYNC_CHANNEL_WRITE_TIMEOUT"`
	LiveTimeout        time.Duration `yaml:"live_timeout" env:"ADMINSYNC_CHANNEL_LIVE_TIMEOUT"` // max wait for a pushed reply
	BufferSize         int           `yaml:"buffer_size" env:"ADMINSYNC_CHANNEL_BUFFER_SIZE"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Freshness time.Duration `yaml:"freshness" env:"ADMINSYNC_CACHE_FRESHNESS"`
}

// StoreConfig selects the key-value store backing persisted client state.
type StoreConfig struct {
	Driver   string         `yaml:"driver" env:"ADMINSYNC_STORE_DRIVER"` // memory, sqlite, redis, postgres
	Memory   MemoryConfig   `yaml:"memory"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MemoryConfig configures the in-process store.
type MemoryConfig struct {
	QuotaBytes int `yaml:"quota_bytes" env:"ADMINSYNC_STORE_MEMORY_QUOTA_BYTES"` // 0 = unlimited
}

// SQLiteConfig configures the file-backed store.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"ADMINSYNC_STORE_SQLITE_PATH"`
}

// RedisConfig configures the shared Redis store.
type RedisConfig struct {
	URL    string `yaml:"url" env:"ADMINSYNC_STORE_REDIS_URL"`
	Prefix string `yaml:"prefix" env:"ADMINSYNC_STORE_REDIS_PREFIX"`
}

// PostgresConfig configures the shared Postgres store.
type PostgresConfig struct {
	DB    DBConfig `yaml:"db"`
	Table string   `yaml:"table" env:"ADMINSYNC_STORE_POSTGRES_TABLE"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host" env:"ADMINSYNC_DB_HOST"`
	Port     int    `yaml:"port" env:"ADMINSYNC_DB_PORT"`
	Name     string `yaml:"name" env:"ADMINSYNC_DB_NAME"`
	User     string `yaml:"user" env:"ADMINSYNC_DB_USER"`
	Password string `yaml:"password" env:"ADMINSYNC_DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"ADMINSYNC_DB_SSL_MODE"`
	MaxConns int    `yaml:"max_conns" env:"ADMINSYNC_DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"ADMINSYNC_DB_MIN_CONNS"`
}

// RefreshConfig holds scheduled bulk refresh settings.
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ADMINSYNC_REFRESH_ENABLED"`
	Schedule string        `yaml:"schedule" env:"ADMINSYNC_REFRESH_SCHEDULE"` // cron spec, e.g. "@every 5m"
	Timeout  time.Duration `yaml:"timeout" env:"ADMINSYNC_REFRESH_TIMEOUT"`
}

// HealthConfig holds the health/metrics HTTP server settings.
type HealthConfig struct {
	Addr        string `yaml:"addr" env:"ADMINSYNC_HEALTH_ADDR"` // "" disables the server
	MetricsPath string `yaml:"metrics_path" env:"ADMINSYNC_HEALTH_METRICS_PATH"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"ADMINSYNC_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"ADMINSYNC_LOG_FORMAT"` // text, json
}
