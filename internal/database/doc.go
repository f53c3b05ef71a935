// Package database builds the PostgreSQL connection pool used by the shared
// snapshot store.
//
// Several admin clients may point at the same database so that cached
// analytics survive restarts and are shared across operators.
package database
