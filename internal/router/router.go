package router

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/faceofmind/admin-sync/internal/connection"
	"github.com/faceofmind/admin-sync/internal/metrics"
	"github.com/faceofmind/admin-sync/internal/observer"
)

// Router decodes channel frames and publishes them to typed sinks.
type Router interface {
	connection.MessageHandler

	// Start begins dispatching queued frames in arrival order.
	Start(ctx context.Context) error

	// Stop drains the queue and shuts down the dispatch loop.
	Stop(ctx context.Context) error

	// Dispatch decodes and publishes one frame synchronously.
	Dispatch(msg connection.TimestampedMessage)

	// Analytics receives analytics_update frames that carry a snapshot.
	Analytics() *observer.Registry[AnalyticsUpdate]

	// Notifications receives analytics_notification message text.
	Notifications() *observer.Registry[Notification]

	// Errors receives server error text and decode failures.
	Errors() *observer.Behavior[string]

	// Stats returns current router statistics.
	Stats() RouterStats
}

type router struct {
	cfg    RouterConfig
	logger *slog.Logger

	analytics     *observer.Registry[AnalyticsUpdate]
	notifications *observer.Registry[Notification]
	errs          *observer.Behavior[string]

	queue   *Queue[connection.TimestampedMessage]
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu              sync.RWMutex
	received        int64
	routed          int64
	parseErrors     int64
	unknownMessages int64
}

// NewRouter creates a Message Router. errs is shared with the channel so
// that connection and message errors surface on one registry; nil creates a
// private one.
func NewRouter(cfg RouterConfig, errs *observer.Behavior[string], logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}
	if errs == nil {
		errs = observer.NewBehavior("")
	}

	return &router{
		cfg:           cfg,
		logger:        logger.With("component", "router"),
		analytics:     observer.NewRegistry[AnalyticsUpdate](),
		notifications: observer.NewRegistry[Notification](),
		errs:          errs,
		queue:         NewQueue[connection.TimestampedMessage](cfg.QueueSize),
	}
}

// Start begins routing messages.
func (r *router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.running.Store(true)

	r.wg.Add(2)
	go r.dispatchLoop()
	go func() {
		defer r.wg.Done()
		<-r.ctx.Done()
		r.queue.Close()
	}()

	r.logger.Info("message router started", "queue_size", r.cfg.QueueSize)
	return nil
}

// Stop gracefully shuts down the router.
func (r *router) Stop(ctx context.Context) error {
	r.logger.Info("stopping message router")

	r.running.Store(false)
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("message router stopped")
	case <-ctx.Done():
		r.logger.Warn("message router stop timed out", "queued", r.queue.Len())
		return ctx.Err()
	}
	return nil
}

// HandleMessage queues the frame while running, otherwise dispatches it inline.
func (r *router) HandleMessage(msg connection.TimestampedMessage) {
	if r.running.Load() && r.queue.Push(msg) {
		return
	}
	r.Dispatch(msg)
}

func (r *router) dispatchLoop() {
	defer r.wg.Done()

	for {
		msg, ok := r.queue.Pop()
		if !ok {
			return
		}
		r.Dispatch(msg)
	}
}

// Dispatch decodes msg and publishes it to the matching sink.
func (r *router) Dispatch(msg connection.TimestampedMessage) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	in, err := Decode(msg.Data)
	if err != nil {
		r.mu.Lock()
		r.parseErrors++
		r.mu.Unlock()
		metrics.DecodeErrorsTotal.Inc()

		var de *DecodeError
		if errors.As(err, &de) {
			r.logger.Warn("dropping malformed message", "reason", de.Reason, "error", de.Err)
		}
		r.errs.Publish(InvalidMessageFormat)
		return
	}

	metrics.MessagesTotal.WithLabelValues(in.inboundType()).Inc()

	switch m := in.(type) {
	case AnalyticsUpdate:
		if m.Snapshot == nil {
			r.logger.Debug("analytics update without data", "period", m.Period)
			return
		}
		m.ReceivedAt = msg.ReceivedAt
		r.logger.Debug("analytics update", "period", m.Period, "request_id", m.RequestID)
		r.analytics.Publish(m)
		r.markRouted()

	case Notification:
		if m.Message == "" {
			return
		}
		r.notifications.Publish(m)
		r.markRouted()

	case Pong:
		r.logger.Debug("pong")

	case ServerError:
		if m.Message == "" {
			r.logger.Debug("server error without message")
			return
		}
		r.logger.Warn("server reported error", "message", m.Message)
		r.errs.Publish(m.Message)
		r.markRouted()

	case Unknown:
		r.mu.Lock()
		r.unknownMessages++
		r.mu.Unlock()
		r.logger.Debug("unknown message type", "type", m.Type)
	}
}

func (r *router) markRouted() {
	r.mu.Lock()
	r.routed++
	r.mu.Unlock()
}

func (r *router) Analytics() *observer.Registry[AnalyticsUpdate] { return r.analytics }

func (r *router) Notifications() *observer.Registry[Notification] { return r.notifications }

func (r *router) Errors() *observer.Behavior[string] { return r.errs }

// Stats returns current statistics.
func (r *router) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RouterStats{
		MessagesReceived: r.received,
		MessagesRouted:   r.routed,
		ParseErrors:      r.parseErrors,
		UnknownMessages:  r.unknownMessages,
		Queue:            r.queue.Stats(),
	}
}
