package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/faceofmind/admin-sync/internal/version"
)

const (
	handshakeTimeout = 10 * time.Second
	controlTimeout   = time.Second
	keepalivePayload = "keepalive"
)

// Client is one WebSocket connection to the analytics endpoint. A Client is
// used for a single dial; the Channel builds a new one per attempt.
type Client interface {
	// Connect dials the endpoint and starts the read and heartbeat loops.
	Connect(ctx context.Context) error

	// Close sends a normal close frame and releases the connection.
	Close() error

	// Send writes one text frame.
	Send(data []byte) error

	// Messages yields inbound text frames in arrival order.
	Messages() <-chan TimestampedMessage

	// Errors yields the error that ended the connection, at most once.
	Errors() <-chan error

	// Done is closed by Close.
	Done() <-chan struct{}

	IsConnected() bool
}

// ClientFactory builds a Client for one connection attempt.
type ClientFactory func(cfg ClientConfig, logger *slog.Logger) Client

type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	messages chan TimestampedMessage
	errors   chan error
	done     chan struct{}

	// writeMu serializes every frame written to conn, control frames included.
	writeMu sync.Mutex

	mu       sync.RWMutex
	conn     *websocket.Conn
	open     bool
	closed   bool
	lastSeen time.Time
}

// NewClient creates an unconnected Client. Zero config fields take the
// DefaultClientConfig values.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultClientConfig()
	if cfg.BufferSize < 1 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	return &client{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan TimestampedMessage, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
}

func (c *client) handshakeHeader() http.Header {
	h := http.Header{}
	h.Set("User-Agent", version.UserAgent())
	if c.cfg.Token != "" {
		h.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return h
}

func (c *client) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrAlreadyClosed
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, c.handshakeHeader())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	c.conn = conn
	c.open = true
	c.lastSeen = time.Now()
	c.mu.Unlock()

	// Answer server pings ourselves so the reply goes through writeMu.
	conn.SetPingHandler(func(data string) error {
		c.seen()
		return c.writeControl(websocket.PongMessage, []byte(data), controlTimeout)
	})
	conn.SetPongHandler(func(string) error {
		c.seen()
		return nil
	})

	go c.readLoop(conn)
	go c.heartbeatLoop(conn)

	c.logger.Debug("websocket open", "url", c.cfg.URL, "authenticated", c.cfg.Token != "")
	return nil
}

func (c *client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *client) seen() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *client) idle() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Since(c.lastSeen)
}

func (c *client) writeControl(kind int, data []byte, timeout time.Duration) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteControl(kind, data, time.Now().Add(timeout))
}

// Close is idempotent.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.open = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn == nil {
		return nil
	}

	bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.writeControl(websocket.CloseMessage, bye, controlTimeout); err != nil {
		c.logger.Debug("close frame not sent", "error", err)
	}
	return conn.Close()
}

func (c *client) Send(data []byte) error {
	c.mu.RLock()
	conn, open := c.conn, c.open
	c.mu.RUnlock()
	if !open || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) Messages() <-chan TimestampedMessage { return c.messages }

func (c *client) Errors() <-chan error { return c.errors }

func (c *client) Done() <-chan struct{} { return c.done }

func (c *client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// fail marks the connection down and reports err, unless Close already ran.
func (c *client) fail(err error) {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.errors <- err:
	default:
	}
}

func (c *client) readLoop(conn *websocket.Conn) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("server closed connection", "error", err)
			}
			c.fail(err)
			return
		}
		c.seen()

		// The analytics protocol is JSON text only.
		if kind != websocket.TextMessage {
			c.logger.Debug("ignoring non-text frame", "kind", kind, "bytes", len(data))
			continue
		}

		select {
		case c.messages <- TimestampedMessage{Data: data, ReceivedAt: time.Now()}:
		case <-c.done:
			return
		default:
			c.logger.Warn("inbound buffer full, dropping frame", "bytes", len(data), "buffer", c.cfg.BufferSize)
		}
	}
}

// heartbeatLoop pings every HeartbeatInterval and fails the connection when
// nothing was heard from the server for PingTimeout.
func (c *client) heartbeatLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		if err := c.writeControl(websocket.PingMessage, []byte(keepalivePayload), c.cfg.WriteTimeout); err != nil {
			c.logger.Debug("keepalive ping failed", "error", err)
		}

		if idle := c.idle(); c.cfg.PingTimeout > 0 && idle > c.cfg.PingTimeout {
			c.logger.Warn("connection stale", "idle", idle, "timeout", c.cfg.PingTimeout)
			c.fail(ErrStaleConnection)
			conn.Close()
			return
		}
	}
}
