// Package store provides the key-value storage behind persisted client
// state: auth tokens, theme and per-period analytics snapshots.
//
// Backends:
//   - memory: in-process map with an optional byte quota
//   - sqlite: a local file, the default for a single operator
//   - redis: shared across operators, keys carry a prefix
//   - postgres: shared table upserted through a pgx pool
//
// Values are opaque strings; callers encode JSON themselves.
package store
