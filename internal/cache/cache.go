package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/faceofmind/admin-sync/internal/metrics"
	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/store"
)

// KeyPrefix is prepended to the period name to form a storage key.
const KeyPrefix = "analytics_"

// DefaultFreshness is the window in which an entry counts as fresh.
const DefaultFreshness = 5 * time.Minute

// Entry is a snapshot with its capture time.
type Entry struct {
	Timestamp int64                   `json:"timestamp"` // Unix milliseconds
	Data      model.AnalyticsSnapshot `json:"data"`
}

// Age returns how long ago the entry was captured.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.Timestamp))
}

// IsFresh reports whether the entry is younger than window.
func (e Entry) IsFresh(now time.Time, window time.Duration) bool {
	return e.Age(now) < window
}

// Key returns the storage key for period.
func Key(p model.Period) string {
	return KeyPrefix + string(p)
}

// Keys returns the storage keys of every cached period.
func Keys() []string {
	keys := make([]string, len(model.CachedPeriods))
	for i, p := range model.CachedPeriods {
		keys[i] = Key(p)
	}
	return keys
}

// Cache reads and writes snapshot entries in a store.Store.
type Cache struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over s.
func New(s store.Store, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		store:  s,
		logger: logger.With("component", "cache"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time { return c.now() }

// Read returns the entry for period. Missing, unreadable and corrupt entries
// are all reported as a miss.
func (c *Cache) Read(ctx context.Context, p model.Period) (Entry, bool) {
	if !p.Cached() {
		return Entry{}, false
	}

	raw, err := c.store.Get(ctx, Key(p))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("cache read failed", "period", p, "error", err)
		}
		metrics.RecordCacheLookup("miss")
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Warn("discarding corrupt cache entry", "period", p, "error", err)
		metrics.RecordCacheLookup("corrupt")
		return Entry{}, false
	}
	if err := e.Data.Validate(); err != nil {
		c.logger.Warn("discarding corrupt cache entry", "period", p, "error", err)
		metrics.RecordCacheLookup("corrupt")
		return Entry{}, false
	}

	metrics.RecordCacheLookup("hit")
	return e, true
}

// Write stores snap for period with the current time. Failures are logged,
// never returned. Periods without a cache slot are ignored.
func (c *Cache) Write(ctx context.Context, p model.Period, snap model.AnalyticsSnapshot) {
	if !p.Cached() {
		return
	}

	data, err := json.Marshal(Entry{Timestamp: c.now().UnixMilli(), Data: snap})
	if err != nil {
		c.writeFailed(p, err)
		return
	}
	if err := c.store.Set(ctx, Key(p), string(data)); err != nil {
		c.writeFailed(p, err)
		return
	}
	c.logger.Debug("cache written", "period", p, "bytes", len(data))
}

func (c *Cache) writeFailed(p model.Period, err error) {
	metrics.CacheWriteFailuresTotal.Inc()
	c.logger.Warn("cache write failed", "period", p, "error", err)
}

// Clear removes every period entry and nothing else.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, Keys()...)
}
