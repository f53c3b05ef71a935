package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/faceofmind/admin-sync/internal/cache"
	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/observer"
	"github.com/faceofmind/admin-sync/internal/router"
)

// Errors
var (
	ErrFetchInFlight   = errors.New("analytics fetch already in flight")
	ErrLiveUnavailable = errors.New("live channel unavailable")
	ErrLiveTimeout     = errors.New("live analytics request timed out")
)

// LoadErrorMessage is shown when a fetch fails with nothing on screen.
const LoadErrorMessage = "Failed to load analytics. Please try again."

// Source says where a rendered snapshot came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceLive  Source = "live"
	SourceHTTP  Source = "http"
	SourcePush  Source = "push"
)

// ViewStatus is the loading indicator and error line for the active period.
type ViewStatus struct {
	Period  model.Period
	Loading bool
	Error   string
}

// Renderer displays snapshots and status. Calls are serialized.
type Renderer interface {
	Render(period model.Period, snap model.AnalyticsSnapshot, source Source)
	Status(status ViewStatus)
}

// LiveChannel is the part of connection.Channel the coordinator uses.
type LiveChannel interface {
	IsConnected() bool
	RequestAnalytics(period model.Period, requestID string) bool
	Connected() *observer.Behavior[bool]
}

// UpdateSource publishes decoded analytics pushes; router.Router satisfies it.
type UpdateSource interface {
	Analytics() *observer.Registry[router.AnalyticsUpdate]
}

// Fetcher is the HTTP fallback; api.Client satisfies it.
type Fetcher interface {
	GetAnalytics(ctx context.Context, period model.Period) (*model.AnalyticsSnapshot, error)
	GetAllAnalytics(ctx context.Context) (map[model.Period]model.AnalyticsSnapshot, error)
}

// SnapshotCache is the local snapshot cache; *cache.Cache satisfies it.
type SnapshotCache interface {
	Read(ctx context.Context, p model.Period) (cache.Entry, bool)
	Write(ctx context.Context, p model.Period, snap model.AnalyticsSnapshot)
	Clear(ctx context.Context) error
	Now() time.Time
}

// Config holds coordinator settings.
type Config struct {
	// Freshness is the cache freshness window; it only affects logging
	// since cached data is always rendered first.
	Freshness time.Duration

	// LiveTimeout bounds the wait for a live answer before falling back.
	LiveTimeout time.Duration
}

// DefaultConfig returns default coordinator settings.
func DefaultConfig() Config {
	return Config{
		Freshness:   cache.DefaultFreshness,
		LiveTimeout: 10 * time.Second,
	}
}
