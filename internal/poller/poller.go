package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/faceofmind/admin-sync/internal/coordinator"
)

// Refresher refreshes every analytics period; coordinator.Coordinator
// satisfies it.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Session reports whether scheduled refreshes may run.
type Session interface {
	IsLoggedIn() bool
}

// Config holds poller configuration.
type Config struct {
	Schedule   string        // cron spec or descriptor (default: @every 5m)
	Timeout    time.Duration // per-run timeout (default: 30s)
	RunOnStart bool          // refresh once immediately on Start
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Schedule: "@every 5m",
		Timeout:  30 * time.Second,
	}
}

// Stats counts poller runs.
type Stats struct {
	Runs     int64
	Skipped  int64
	Failures int64
}

// Poller periodically refreshes all analytics periods.
type Poller struct {
	cfg       Config
	refresher Refresher
	session   Session
	logger    *slog.Logger
	cron      *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	runs     atomic.Int64
	skipped  atomic.Int64
	failures atomic.Int64
}

// New creates a new Poller. session may be nil to always run.
func New(cfg Config, refresher Refresher, session Session, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:       cfg,
		refresher: refresher,
		session:   session,
		logger:    logger.With("component", "poller"),
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules the refresh job.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	if _, err := p.cron.AddFunc(p.cfg.Schedule, func() { p.RunOnce(p.ctx) }); err != nil {
		p.cancel()
		return fmt.Errorf("schedule %q: %w", p.cfg.Schedule, err)
	}
	p.cron.Start()

	p.logger.Info("refresh poller started", "schedule", p.cfg.Schedule, "timeout", p.cfg.Timeout)

	if p.cfg.RunOnStart {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.RunOnce(p.ctx)
		}()
	}
	return nil
}

// Stop gracefully shuts down the poller, waiting for a running refresh.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	cronDone := p.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("refresh poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one refresh unless logged out.
func (p *Poller) RunOnce(ctx context.Context) {
	if p.session != nil && !p.session.IsLoggedIn() {
		p.skipped.Add(1)
		p.logger.Debug("skipping refresh, not logged in")
		return
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	p.runs.Add(1)
	err := p.refresher.RefreshAll(ctx)
	switch {
	case err == nil:
		p.logger.Info("refreshed analytics", "duration", time.Since(start))
	case errors.Is(err, coordinator.ErrFetchInFlight):
		p.skipped.Add(1)
		p.logger.Debug("refresh skipped, fetch in flight")
	default:
		p.failures.Add(1)
		p.logger.Warn("refresh failed", "error", err, "duration", time.Since(start))
	}
}

// Stats returns run counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Runs:     p.runs.Load(),
		Skipped:  p.skipped.Load(),
		Failures: p.failures.Load(),
	}
}
