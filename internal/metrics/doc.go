// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Live channel state, reconnect attempts and dropped sends
//   - Inbound messages by type and decode failures
//   - Snapshot cache hits, misses and failed writes
//   - Fetch outcomes by path (cache, live, http)
package metrics
