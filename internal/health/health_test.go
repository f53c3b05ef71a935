package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceofmind/admin-sync/internal/connection"
	"github.com/faceofmind/admin-sync/internal/metrics"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeChannel struct {
	state    connection.State
	terminal bool
}

func (c fakeChannel) State() connection.State { return c.state }
func (c fakeChannel) Terminal() bool          { return c.terminal }

type fakeSession bool

func (s fakeSession) IsLoggedIn() bool { return bool(s) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		store    Pinger
		channel  ChannelStatus
		session  SessionStatus
		wantCode int
		want     string
	}{
		{
			name:     "all healthy",
			store:    fakePinger{},
			channel:  fakeChannel{state: connection.StateConnected},
			session:  fakeSession(true),
			wantCode: http.StatusOK,
			want:     StatusHealthy,
		},
		{
			name:     "channel retrying",
			store:    fakePinger{},
			channel:  fakeChannel{state: connection.StateConnecting},
			session:  fakeSession(true),
			wantCode: http.StatusOK,
			want:     StatusDegraded,
		},
		{
			name:     "channel terminal",
			store:    fakePinger{},
			channel:  fakeChannel{state: connection.StateDisconnected, terminal: true},
			session:  fakeSession(true),
			wantCode: http.StatusServiceUnavailable,
			want:     StatusUnhealthy,
		},
		{
			name:     "store down",
			store:    fakePinger{err: errors.New("connection refused")},
			wantCode: http.StatusServiceUnavailable,
			want:     StatusUnhealthy,
		},
		{
			name:     "logged out",
			session:  fakeSession(false),
			wantCode: http.StatusOK,
			want:     StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.store, tt.channel, tt.session)
			rec := get(t, h.Routes("/metrics"), "/health")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var report Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, tt.want, report.Status)
			assert.NotEmpty(t, report.Version)
		})
	}
}

func TestHealth_NilDependenciesOmitted(t *testing.T) {
	var nilStore Pinger
	var nilChannel ChannelStatus
	var nilSession SessionStatus
	h := NewHandler(nilStore, nilChannel, nilSession)

	rec := get(t, h.Routes(""), "/health")

	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Empty(t, report.Checks)
	assert.Equal(t, StatusHealthy, report.Status)
}

func TestLivenessReadiness(t *testing.T) {
	up := NewHandler(fakePinger{}, nil, nil).Routes("")
	down := NewHandler(fakePinger{err: errors.New("no such table")}, nil, nil).Routes("")

	assert.Equal(t, http.StatusOK, get(t, down, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(t, up, "/health/ready").Code)

	rec := get(t, down, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no such table")
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.SetChannelState(2)
	h := NewHandler(nil, nil, nil).Routes("/metrics")

	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "adminsync_channel_state 2"))

	assert.Equal(t, http.StatusNotFound, get(t, NewHandler(nil, nil, nil).Routes(""), "/metrics").Code)
}
