package router

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/faceofmind/admin-sync/internal/model"
)

// Inbound message types.
const (
	TypeAnalyticsUpdate       = "analytics_update"
	TypeAnalyticsNotification = "analytics_notification"
	TypePong                  = "pong"
	TypeError                 = "error"
)

// InvalidMessageFormat is published once per undecodable frame.
const InvalidMessageFormat = "Invalid message format"

// RouterConfig holds configuration for the Message Router.
type RouterConfig struct {
	QueueSize int // Initial dispatch queue capacity. Default: 64
}

// DefaultRouterConfig returns default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		QueueSize: 64,
	}
}

// Inbound is the decoded form of a frame. The concrete type is one of
// AnalyticsUpdate, Notification, Pong, ServerError or Unknown.
type Inbound interface {
	inboundType() string
}

// AnalyticsUpdate carries a pushed snapshot.
// Snapshot is nil when the frame had no data.
type AnalyticsUpdate struct {
	Period     model.Period
	RequestID  string
	Snapshot   *model.AnalyticsSnapshot
	ReceivedAt time.Time
}

// Notification is a server-side analytics notification.
type Notification struct {
	Message string
	Data    json.RawMessage
}

// Pong acknowledges a keep-alive ping.
type Pong struct{}

// ServerError carries an error reported by the server.
type ServerError struct {
	Message string
}

// Unknown is any frame with an unrecognized type tag.
type Unknown struct {
	Type string
}

func (AnalyticsUpdate) inboundType() string { return TypeAnalyticsUpdate }
func (Notification) inboundType() string    { return TypeAnalyticsNotification }
func (Pong) inboundType() string            { return TypePong }
func (ServerError) inboundType() string     { return TypeError }
func (Unknown) inboundType() string         { return "unknown" }

// DecodeError reports a frame that could not be decoded.
type DecodeError struct {
	Type   string // type tag, if one was read
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode inbound message"
	if e.Type != "" {
		msg += " " + e.Type
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived int64
	MessagesRouted   int64
	ParseErrors      int64
	UnknownMessages  int64
	Queue            QueueStats
}

// envelope is the wire shape {type, data?, period?, message?, request_id?}.
type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Period    string          `json:"period"`
	Message   *string         `json:"message"`
	RequestID string          `json:"request_id"`
}
