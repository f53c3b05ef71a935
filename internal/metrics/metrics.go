package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "adminsync"

var (
	// ChannelState reports the live channel state (0 = disconnected, 1 = connecting, 2 = connected).
	ChannelState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_state",
			Help:      "Live channel state (0 = disconnected, 1 = connecting, 2 = connected)",
		},
	)

	// ReconnectsTotal counts scheduled reconnect attempts.
	ReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Total number of scheduled reconnect attempts",
		},
	)

	// DroppedSendsTotal counts outbound messages dropped while not connected.
	DroppedSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_sends_total",
			Help:      "Outbound messages dropped because the channel was not connected",
		},
		[]string{"type"},
	)

	// MessagesTotal counts inbound messages by tag.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound channel messages by type",
		},
		[]string{"type"},
	)

	// DecodeErrorsTotal counts malformed inbound payloads.
	DecodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Inbound payloads that could not be decoded",
		},
	)

	// CacheLookupsTotal counts snapshot cache reads by result (hit, miss, corrupt).
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Snapshot cache reads by result",
		},
		[]string{"result"},
	)

	// CacheWriteFailuresTotal counts swallowed cache write failures.
	CacheWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_failures_total",
			Help:      "Snapshot cache writes that failed to persist",
		},
	)

	// DroppedPushesTotal counts analytics pushes answering a request that
	// already completed.
	DroppedPushesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_pushes_total",
			Help:      "Late analytics pushes dropped because their request already completed",
		},
	)

	// FetchTotal counts analytics refreshes by path and status.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Analytics refreshes by path and status",
		},
		[]string{"path", "status"},
	)

	// FetchDuration measures analytics refresh duration.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of analytics refreshes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// SetChannelState records the channel state as a gauge value.
func SetChannelState(v int) {
	ChannelState.Set(float64(v))
}

// RecordFetch records one refresh outcome.
func RecordFetch(path, status string, seconds float64) {
	FetchTotal.WithLabelValues(path, status).Inc()
	FetchDuration.WithLabelValues(path).Observe(seconds)
}

// RecordCacheLookup records a cache read result.
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}
