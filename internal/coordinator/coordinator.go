package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/faceofmind/admin-sync/internal/api"
	"github.com/faceofmind/admin-sync/internal/metrics"
	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/router"
)

// Coordinator produces the freshest available snapshot for a period.
type Coordinator struct {
	cfg      Config
	live     LiveChannel
	updates  UpdateSource
	fetcher  Fetcher
	cache    SnapshotCache
	renderer Renderer
	logger   *slog.Logger
	newID    func() string

	guard    *semaphore.Weighted
	renderMu sync.Mutex

	mu      sync.Mutex
	baseCtx context.Context
	status  ViewStatus
	shown   map[model.Period]bool
	pending map[string]*waiter
	seq     uint64
	unsubs  []func()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRequestIDs replaces uuid.NewString for live request ids.
func WithRequestIDs(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

// New creates a Coordinator. live and updates may be nil, in which case
// every refresh goes over HTTP.
func New(cfg Config, live LiveChannel, updates UpdateSource, fetcher Fetcher, sc SnapshotCache, renderer Renderer, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		cfg:      cfg,
		live:     live,
		updates:  updates,
		fetcher:  fetcher,
		cache:    sc,
		renderer: renderer,
		logger:   logger.With("component", "coordinator"),
		newID:    uuid.NewString,
		guard:    semaphore.NewWeighted(1),
		baseCtx:  context.Background(),
		shown:    make(map[model.Period]bool),
		pending:  make(map[string]*waiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach subscribes to analytics pushes and channel connectivity. ctx is
// used for cache writes of server-initiated pushes.
func (c *Coordinator) Attach(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	var unsubs []func()
	if c.updates != nil {
		unsubs = append(unsubs, c.updates.Analytics().Subscribe(c.onUpdate))
	}
	if c.live != nil {
		unsubs = append(unsubs, c.live.Connected().Subscribe(c.onConnected))
	}

	c.mu.Lock()
	c.unsubs = append(c.unsubs, unsubs...)
	c.mu.Unlock()
}

// Detach releases every subscription taken by Attach and fails pending
// live requests.
func (c *Coordinator) Detach() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	c.failPending(ErrLiveUnavailable)
}

// Status returns the current view status.
func (c *Coordinator) Status() ViewStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// FetchAnalytics renders the cached snapshot for period, if any, then
// refreshes it. It returns ErrFetchInFlight when another refresh holds the
// guard. A refresh failure is returned only when nothing was ever rendered
// for period.
func (c *Coordinator) FetchAnalytics(ctx context.Context, period model.Period) error {
	if !c.guard.TryAcquire(1) {
		c.logger.Debug("fetch skipped, another is in flight", "period", period)
		return ErrFetchInFlight
	}
	defer c.guard.Release(1)
	defer c.updateStatus(func(s *ViewStatus) { s.Loading = false })

	c.updateStatus(func(s *ViewStatus) {
		s.Period = period
		s.Loading = true
		s.Error = ""
	})

	if entry, ok := c.cache.Read(ctx, period); ok {
		c.logger.Debug("rendering cached analytics",
			"period", period,
			"age", entry.Age(c.cache.Now()),
			"fresh", entry.IsFresh(c.cache.Now(), c.cfg.Freshness),
		)
		c.render(period, entry.Data, SourceCache)
		c.updateStatus(func(s *ViewStatus) {
			s.Loading = false
			s.Error = ""
		})
	}

	snap, source, err := c.refresh(ctx, period)
	if err != nil {
		c.mu.Lock()
		shown := c.shown[period]
		c.mu.Unlock()

		if shown {
			c.logger.Warn("background refresh failed, keeping rendered data", "period", period, "error", err)
			return nil
		}
		c.logger.Error("analytics fetch failed", "period", period, "error", err)
		c.updateStatus(func(s *ViewStatus) { s.Error = api.UserMessage(err, LoadErrorMessage) })
		return err
	}

	c.cache.Write(ctx, period, snap)
	c.render(period, snap, source)
	c.updateStatus(func(s *ViewStatus) { s.Error = "" })
	return nil
}

// refresh fetches period over the live channel when connected, falling back
// to HTTP when the live path cannot answer.
func (c *Coordinator) refresh(ctx context.Context, period model.Period) (model.AnalyticsSnapshot, Source, error) {
	if c.liveConnected() {
		snap, err := c.requestLive(ctx, c.register(period))
		if err == nil {
			return snap, SourceLive, nil
		}
		if ctx.Err() != nil {
			return model.AnalyticsSnapshot{}, SourceLive, ctx.Err()
		}
		c.logger.Info("live request failed, falling back to HTTP", "period", period, "error", err)
	}

	start := time.Now()
	snap, err := c.fetcher.GetAnalytics(ctx, period)
	if err != nil {
		return model.AnalyticsSnapshot{}, SourceHTTP, err
	}
	c.logger.Debug("fetched analytics over HTTP", "period", period, "elapsed", time.Since(start))
	return *snap, SourceHTTP, nil
}

// RefreshAll clears every cached period and refetches all of them: one live
// request per period when connected, else one combined HTTP call. Periods
// the live path cannot answer are filled from a single HTTP call.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	if !c.guard.TryAcquire(1) {
		return ErrFetchInFlight
	}
	defer c.guard.Release(1)

	if err := c.cache.Clear(ctx); err != nil {
		c.logger.Warn("clear cache failed", "error", err)
	}

	missing := model.AllPeriods
	if c.liveConnected() {
		missing = c.refreshAllLive(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(missing) == 0 {
			return nil
		}
		c.logger.Info("falling back to HTTP for unanswered periods", "periods", missing)
	}

	all, err := c.fetcher.GetAllAnalytics(ctx)
	if err != nil {
		return err
	}
	for _, p := range missing {
		snap, ok := all[p]
		if !ok {
			c.logger.Warn("bulk response missing period", "period", p)
			continue
		}
		c.accept(ctx, p, snap, SourceHTTP)
	}
	return nil
}

func (c *Coordinator) refreshAllLive(ctx context.Context) []model.Period {
	waiters := make([]*waiter, len(model.AllPeriods))
	for i, p := range model.AllPeriods {
		waiters[i] = c.register(p)
	}

	var (
		mu      sync.Mutex
		missing []model.Period
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range waiters {
		g.Go(func() error {
			snap, err := c.requestLive(gctx, w)
			if err != nil {
				mu.Lock()
				missing = append(missing, w.period)
				mu.Unlock()
				return nil
			}
			c.accept(ctx, w.period, snap, SourceLive)
			return nil
		})
	}
	g.Wait()

	// keep period order stable for the fallback
	out := make([]model.Period, 0, len(missing))
	for _, p := range model.AllPeriods {
		for _, m := range missing {
			if m == p {
				out = append(out, p)
			}
		}
	}
	return out
}

// accept writes snap to the cache and renders it if period is on screen.
func (c *Coordinator) accept(ctx context.Context, period model.Period, snap model.AnalyticsSnapshot, source Source) {
	c.cache.Write(ctx, period, snap)

	c.mu.Lock()
	active := c.status.Period == period
	c.mu.Unlock()

	if active {
		c.render(period, snap, source)
	}
}

func (c *Coordinator) liveConnected() bool {
	return c.live != nil && c.updates != nil && c.live.IsConnected()
}

func (c *Coordinator) render(period model.Period, snap model.AnalyticsSnapshot, source Source) {
	c.mu.Lock()
	c.shown[period] = true
	c.mu.Unlock()

	if c.renderer == nil {
		return
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.renderer.Render(period, snap, source)
}

func (c *Coordinator) updateStatus(fn func(*ViewStatus)) {
	c.mu.Lock()
	fn(&c.status)
	status := c.status
	c.mu.Unlock()

	if c.renderer == nil {
		return
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.renderer.Status(status)
}

// onUpdate handles analytics pushes from the router.
func (c *Coordinator) onUpdate(u router.AnalyticsUpdate) {
	if u.Snapshot == nil {
		return
	}

	c.mu.Lock()
	w, late := c.matchLocked(u)
	ctx := c.baseCtx
	c.mu.Unlock()

	switch {
	case w != nil:
		w.resolve(*u.Snapshot, nil)
	case late:
		metrics.DroppedPushesTotal.Inc()
		c.logger.Debug("dropping late analytics push", "period", u.Period, "request_id", u.RequestID)
	case u.Period == "":
		c.logger.Debug("dropping analytics push without period")
	default:
		c.logger.Debug("server-initiated analytics push", "period", u.Period)
		c.accept(ctx, u.Period, *u.Snapshot, SourcePush)
	}
}

// onConnected fails pending live requests when the channel drops.
func (c *Coordinator) onConnected(connected bool) {
	if !connected {
		c.failPending(ErrLiveUnavailable)
	}
}

// requestLive sends w's request and waits for the answer. w is always
// unregistered on return.
func (c *Coordinator) requestLive(ctx context.Context, w *waiter) (model.AnalyticsSnapshot, error) {
	defer c.unregister(w.id)

	start := time.Now()
	// The channel may have dropped between the connectivity check and
	// registration; onConnected would have missed w.
	if !c.live.IsConnected() || !c.live.RequestAnalytics(w.period, w.id) {
		metrics.RecordFetch("live", "unavailable", time.Since(start).Seconds())
		return model.AnalyticsSnapshot{}, ErrLiveUnavailable
	}

	timer := time.NewTimer(c.cfg.LiveTimeout)
	defer timer.Stop()

	select {
	case r := <-w.done:
		status := "ok"
		if r.err != nil {
			status = "unavailable"
		}
		metrics.RecordFetch("live", status, time.Since(start).Seconds())
		return r.snap, r.err
	case <-timer.C:
		metrics.RecordFetch("live", "timeout", time.Since(start).Seconds())
		return model.AnalyticsSnapshot{}, ErrLiveTimeout
	case <-ctx.Done():
		return model.AnalyticsSnapshot{}, ctx.Err()
	}
}

// IsLoadError reports whether err is a fetch failure rather than the
// in-flight guard.
func IsLoadError(err error) bool {
	return err != nil && !errors.Is(err, ErrFetchInFlight)
}
