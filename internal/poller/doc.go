// Package poller runs the scheduled bulk analytics refresh.
//
// On every tick of a cron schedule (default "@every 5m") it calls
// RefreshAll with a per-run timeout. Runs are skipped while the session is
// logged out, and a run never overlaps the previous one.
package poller
