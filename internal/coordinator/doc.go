// Package coordinator implements the dual-path analytics fetch.
//
// FetchAnalytics renders any cached snapshot immediately, then refreshes in
// the background over the live channel when it is connected, or over HTTP
// otherwise. A live request that cannot complete (channel drops, send is
// refused, no answer within the live timeout) falls back to HTTP at once.
//
// One refresh runs at a time per Coordinator, across all periods. A refresh
// failure is shown only when nothing was ever rendered for that period.
//
// Late pushes: an analytics_update that carries a request id resolves the
// matching pending request. If that request is no longer pending (it timed
// out or the HTTP fallback already answered) the push is dropped. A push
// without a request id answers the oldest pending request for its period,
// and when none is pending it is treated as a server-initiated update: it is
// written to the cache and rendered if its period is on screen, so the last
// arrival wins.
package coordinator
