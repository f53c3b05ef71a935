// Package cache implements the local snapshot cache.
//
// Each cached period is stored under "analytics_<period>" as
// {"timestamp": <unix ms>, "data": <snapshot>}. Reads never fail: a missing
// or corrupt entry is a miss. Writes are best-effort: persistence failures
// are logged and swallowed. Freshness is decided by callers via Entry.IsFresh.
package cache
