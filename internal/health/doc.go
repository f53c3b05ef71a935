// Package health serves /health, /health/live, /health/ready and the
// Prometheus metrics endpoint for long-running commands such as `watch`.
package health
