package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/faceofmind/admin-sync/internal/metrics"
	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/observer"
)

// Session reports whether the caller is still authenticated and supplies
// the bearer token used when dialing.
type Session interface {
	IsLoggedIn() bool
	AccessToken() string
}

// MessageHandler receives inbound frames in arrival order.
type MessageHandler interface {
	HandleMessage(msg TimestampedMessage)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(msg TimestampedMessage)

// HandleMessage calls f(msg).
func (f MessageHandlerFunc) HandleMessage(msg TimestampedMessage) { f(msg) }

// Scheduler runs fn after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (stop func() bool)

func afterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithSession sets the session consulted before each retry and used for the bearer token.
func WithSession(s Session) ChannelOption {
	return func(ch *Channel) { ch.session = s }
}

// WithScheduler replaces time.AfterFunc for retry timers.
func WithScheduler(s Scheduler) ChannelOption {
	return func(ch *Channel) { ch.schedule = s }
}

// WithClientFactory replaces NewClient.
func WithClientFactory(f ClientFactory) ChannelOption {
	return func(ch *Channel) { ch.newClient = f }
}

// Channel is a single reconnecting connection to the analytics endpoint.
//
// Every dial attempt and every Disconnect bumps a generation counter. Retry
// timers and read pumps capture the generation they were started under and
// do nothing once it is stale.
type Channel struct {
	cfg       ChannelConfig
	logger    *slog.Logger
	handler   MessageHandler
	session   Session
	schedule  Scheduler
	newClient ClientFactory
	loopback  bool

	connected *observer.Behavior[bool]
	errs      *observer.Behavior[string]

	mu              sync.Mutex
	state           State
	terminal        bool
	shouldReconnect bool
	attempts        int
	delay           time.Duration
	generation      uint64
	client          Client
	stopTimer       func() bool

	sent     int64
	dropped  int64
	received int64
}

// NewChannel creates a disconnected Channel. Inbound frames go to handler.
// errs is the error registry shared with the message router; nil creates a
// private one.
func NewChannel(cfg ChannelConfig, handler MessageHandler, errs *observer.Behavior[string], logger *slog.Logger, opts ...ChannelOption) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultChannelConfig()
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if errs == nil {
		errs = observer.NewBehavior("")
	}
	if handler == nil {
		handler = MessageHandlerFunc(func(TimestampedMessage) {})
	}

	ch := &Channel{
		cfg:       cfg,
		logger:    logger.With("component", "channel"),
		handler:   handler,
		schedule:  afterFunc,
		newClient: NewClient,
		loopback:  isLoopbackURL(cfg.URL),
		connected: observer.NewBehavior(false),
		errs:      errs,
		delay:     cfg.BaseDelay,
	}
	for _, opt := range opts {
		opt(ch)
	}
	metrics.SetChannelState(int(StateDisconnected))
	return ch
}

// Connected publishes the connectivity signal on every open and close.
func (ch *Channel) Connected() *observer.Behavior[bool] { return ch.connected }

// Errors publishes connection error text; "" clears it.
func (ch *Channel) Errors() *observer.Behavior[string] { return ch.errs }

// State returns the current state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// IsConnected reports whether State is StateConnected.
func (ch *Channel) IsConnected() bool {
	return ch.State() == StateConnected
}

// Terminal reports whether the channel is disconnected with no retry pending,
// either after Disconnect or after retries were exhausted.
func (ch *Channel) Terminal() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.terminal
}

// Stats returns a snapshot of channel counters.
func (ch *Channel) Stats() ChannelStats {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ChannelStats{
		State:      ch.state,
		Terminal:   ch.terminal,
		Attempts:   ch.attempts,
		NextDelay:  ch.delay,
		Generation: ch.generation,
		Sent:       ch.sent,
		Dropped:    ch.dropped,
		Received:   ch.received,
	}
}

// Connect opens the connection unless one is already open or opening.
// A failed dial is handled like a close: a retry is scheduled if attempts remain.
func (ch *Channel) Connect(ctx context.Context) error {
	ch.mu.Lock()
	if ch.state != StateDisconnected {
		ch.mu.Unlock()
		return nil
	}
	ch.shouldReconnect = true
	gen := ch.beginAttemptLocked()
	ch.mu.Unlock()

	return ch.dial(ctx, gen)
}

// Reconnect resets the retry budget and connects.
func (ch *Channel) Reconnect(ctx context.Context) error {
	ch.mu.Lock()
	ch.attempts = 0
	ch.delay = ch.cfg.BaseDelay
	ch.mu.Unlock()
	return ch.Connect(ctx)
}

// Disconnect disables automatic reconnection and closes the connection.
// It is the only way to reach the terminal state while retries remain.
func (ch *Channel) Disconnect() {
	ch.mu.Lock()
	ch.shouldReconnect = false
	ch.generation++
	ch.terminal = true
	stop := ch.stopTimer
	ch.stopTimer = nil
	c := ch.client
	ch.client = nil
	ch.setStateLocked(StateDisconnected)
	ch.mu.Unlock()

	if stop != nil {
		stop()
	}
	if c != nil {
		if err := c.Close(); err != nil {
			ch.logger.Debug("close failed", "error", err)
		}
	}

	ch.logger.Info("channel disconnected")
	ch.connected.Publish(false)
}

// Send transmits msg only while connected. Otherwise the message is dropped
// with a warning and Send returns false.
func (ch *Channel) Send(msg OutboundMessage) bool {
	ch.mu.Lock()
	c := ch.client
	state := ch.state
	ch.mu.Unlock()

	if state != StateConnected || c == nil {
		ch.drop(msg, "channel not connected", state)
		return false
	}

	data, err := json.Marshal(msg)
	if err != nil {
		ch.drop(msg, err.Error(), state)
		return false
	}
	if err := c.Send(data); err != nil {
		ch.drop(msg, err.Error(), state)
		return false
	}

	ch.mu.Lock()
	ch.sent++
	ch.mu.Unlock()
	ch.logger.Debug("sent", "type", msg.Type, "period", msg.Period, "request_id", msg.RequestID)
	return true
}

func (ch *Channel) drop(msg OutboundMessage, reason string, state State) {
	ch.mu.Lock()
	ch.dropped++
	ch.mu.Unlock()
	metrics.DroppedSendsTotal.WithLabelValues(msg.Type).Inc()
	ch.logger.Warn("dropping outbound message",
		"type", msg.Type,
		"state", state,
		"reason", reason,
	)
}

// Ping sends a keep-alive probe.
func (ch *Channel) Ping() bool {
	return ch.Send(OutboundMessage{Type: TypePing})
}

// RequestAnalytics asks the server to push analytics for period.
func (ch *Channel) RequestAnalytics(period model.Period, requestID string) bool {
	return ch.Send(OutboundMessage{Type: TypeRequestAnalytics, Period: period, RequestID: requestID})
}

// beginAttemptLocked moves to Connecting under a fresh generation.
func (ch *Channel) beginAttemptLocked() uint64 {
	ch.generation++
	ch.terminal = false
	if ch.stopTimer != nil {
		ch.stopTimer()
		ch.stopTimer = nil
	}
	ch.setStateLocked(StateConnecting)
	return ch.generation
}

func (ch *Channel) setStateLocked(s State) {
	ch.state = s
	metrics.SetChannelState(int(s))
}

func (ch *Channel) dial(ctx context.Context, gen uint64) error {
	token := ""
	if ch.session != nil {
		token = ch.session.AccessToken()
	}

	c := ch.newClient(ch.cfg.clientConfig(token), ch.logger)
	if err := c.Connect(ctx); err != nil {
		ch.logger.Warn("connect failed", "url", ch.cfg.URL, "error", err)
		ch.handleClose(gen, err)
		return fmt.Errorf("connect %s: %w", ch.cfg.URL, err)
	}

	ch.mu.Lock()
	if gen != ch.generation {
		ch.mu.Unlock()
		c.Close()
		return ErrSuperseded
	}
	ch.client = c
	ch.attempts = 0
	ch.delay = ch.cfg.BaseDelay
	ch.setStateLocked(StateConnected)
	ch.mu.Unlock()

	ch.logger.Info("channel connected", "url", ch.cfg.URL)
	ch.connected.Publish(true)
	ch.errs.Publish("")

	go ch.pump(gen, c)
	ch.Ping()
	return nil
}

// pump forwards frames from c until it closes or fails.
func (ch *Channel) pump(gen uint64, c Client) {
	for {
		select {
		case <-c.Done():
			return
		case err := <-c.Errors():
			ch.drain(c)
			ch.handleClose(gen, err)
			return
		case msg := <-c.Messages():
			ch.deliver(msg)
		}
	}
}

// drain delivers frames buffered before the connection failed.
func (ch *Channel) drain(c Client) {
	for {
		select {
		case msg := <-c.Messages():
			ch.deliver(msg)
		default:
			return
		}
	}
}

func (ch *Channel) deliver(msg TimestampedMessage) {
	ch.mu.Lock()
	ch.received++
	ch.mu.Unlock()
	ch.handler.HandleMessage(msg)
}

// handleClose moves to Disconnected and schedules a retry if allowed.
func (ch *Channel) handleClose(gen uint64, cause error) {
	ch.mu.Lock()
	if gen != ch.generation {
		ch.mu.Unlock()
		return
	}
	c := ch.client
	ch.client = nil
	ch.setStateLocked(StateDisconnected)

	var (
		retry   bool
		attempt int
		delay   time.Duration
	)
	switch {
	case !ch.shouldReconnect:
		ch.terminal = true
	case ch.attempts < ch.cfg.MaxAttempts:
		ch.attempts++
		attempt = ch.attempts
		delay = ch.cfg.BaseDelay * time.Duration(1<<(attempt-1))
		ch.delay = delay
		retry = true
	default:
		ch.terminal = true
	}
	ch.mu.Unlock()

	if c != nil {
		c.Close()
	}

	msg := ConnectionErrorMessage
	if ch.loopback {
		msg = ""
	}
	ch.errs.Publish(msg)
	ch.connected.Publish(false)

	if !retry {
		ch.logger.Warn("channel closed, not reconnecting", "error", cause, "attempts", ch.Stats().Attempts)
		return
	}

	metrics.ReconnectsTotal.Inc()
	ch.logger.Info("reconnect scheduled",
		"attempt", attempt,
		"max_attempts", ch.cfg.MaxAttempts,
		"delay", delay,
		"error", cause,
	)

	stop := ch.schedule(delay, func() { ch.retry(gen) })

	ch.mu.Lock()
	if gen == ch.generation {
		ch.stopTimer = stop
		stop = nil
	}
	ch.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// retry runs when a reconnect timer fires.
func (ch *Channel) retry(gen uint64) {
	ch.mu.Lock()
	if gen != ch.generation || !ch.shouldReconnect || ch.state != StateDisconnected {
		ch.mu.Unlock()
		ch.logger.Debug("discarding stale reconnect timer", "generation", gen)
		return
	}
	ch.stopTimer = nil
	ch.mu.Unlock()

	if ch.session != nil && !ch.session.IsLoggedIn() {
		ch.mu.Lock()
		if gen == ch.generation {
			ch.terminal = true
		}
		ch.mu.Unlock()
		ch.logger.Info("session expired, abandoning reconnect")
		return
	}

	ch.mu.Lock()
	if gen != ch.generation || ch.state != StateDisconnected {
		ch.mu.Unlock()
		return
	}
	next := ch.beginAttemptLocked()
	ch.mu.Unlock()

	_ = ch.dial(context.Background(), next)
}

func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
