package router

import (
	"bytes"
	"encoding/json"

	"github.com/faceofmind/admin-sync/internal/model"
)

// Decode parses a raw frame into its Inbound variant.
// Malformed frames return a *DecodeError.
func Decode(data []byte) (Inbound, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &DecodeError{Reason: "not a json object"}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Reason: "invalid json", Err: err}
	}

	switch env.Type {
	case TypeAnalyticsUpdate:
		return decodeAnalyticsUpdate(env)

	case TypeAnalyticsNotification:
		n := Notification{Data: env.Data}
		if env.Message != nil {
			n.Message = *env.Message
		}
		return n, nil

	case TypePong:
		return Pong{}, nil

	case TypeError:
		e := ServerError{}
		if env.Message != nil {
			e.Message = *env.Message
		}
		return e, nil

	default:
		return Unknown{Type: env.Type}, nil
	}
}

func decodeAnalyticsUpdate(env envelope) (Inbound, error) {
	u := AnalyticsUpdate{RequestID: env.RequestID}

	if hasData(env.Data) {
		var snap model.AnalyticsSnapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			return nil, &DecodeError{Type: env.Type, Reason: "invalid snapshot", Err: err}
		}
		if err := snap.Validate(); err != nil {
			return nil, &DecodeError{Type: env.Type, Reason: "invalid snapshot", Err: err}
		}
		u.Snapshot = &snap
	}

	// The initial push on connect omits the period; fall back to the one in data.
	period := env.Period
	if period == "" && u.Snapshot != nil {
		period = string(u.Snapshot.Period)
	}
	if period != "" {
		p, err := model.ParsePeriod(period)
		if err != nil {
			return nil, &DecodeError{Type: env.Type, Reason: "invalid period", Err: err}
		}
		u.Period = p
	}

	return u, nil
}

func hasData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
