package connection

import (
	"errors"
	"time"

	"github.com/faceofmind/admin-sync/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale: nothing heard within ping timeout")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrSuperseded      = errors.New("connection attempt superseded")
)

// Error text published to the error registry.
const (
	ConnectionErrorMessage = "WebSocket connection error"
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Outbound message types.
const (
	TypePing             = "ping"
	TypeRequestAnalytics = "request_analytics"
)

// OutboundMessage is a message sent to the analytics endpoint.
type OutboundMessage struct {
	Type      string       `json:"type"`
	Period    model.Period `json:"period,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// State is the channel connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// ChannelStats is a point-in-time view of the channel.
type ChannelStats struct {
	State      State
	Terminal   bool
	Attempts   int
	NextDelay  time.Duration
	Generation uint64
	Sent       int64
	Dropped    int64
	Received   int64
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL               string        // WebSocket URL (e.g., wss://admin.example.com/ws/analytics/)
	Token             string        // Bearer token for the Authorization header ("" = no auth)
	PingTimeout       time.Duration // Max time without any inbound frame before the connection is stale
	HeartbeatInterval time.Duration // Interval between keepalive pings
	WriteTimeout      time.Duration // Write deadline for sends
	BufferSize        int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:       60 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        256,
	}
}

// ChannelConfig configures the reconnecting Channel.
type ChannelConfig struct {
	URL               string
	BaseDelay         time.Duration // First retry delay; doubles per attempt
	MaxAttempts       int           // Retries before giving up
	PingTimeout       time.Duration
	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
	BufferSize        int
}

// DefaultChannelConfig returns sensible defaults.
func DefaultChannelConfig() ChannelConfig {
	cc := DefaultClientConfig()
	return ChannelConfig{
		BaseDelay:         1 * time.Second,
		MaxAttempts:       5,
		PingTimeout:       cc.PingTimeout,
		HeartbeatInterval: cc.HeartbeatInterval,
		WriteTimeout:      cc.WriteTimeout,
		BufferSize:        cc.BufferSize,
	}
}

func (c ChannelConfig) clientConfig(token string) ClientConfig {
	return ClientConfig{
		URL:               c.URL,
		Token:             token,
		PingTimeout:       c.PingTimeout,
		HeartbeatInterval: c.HeartbeatInterval,
		WriteTimeout:      c.WriteTimeout,
		BufferSize:        c.BufferSize,
	}
}
