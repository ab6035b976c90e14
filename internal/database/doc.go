// Package database provides connection pool management for PostgreSQL.
//
// The watcher keeps two kinds of rows there: per-cycle order history
// (internal/writer) and user-defined price targets (internal/tracker).
package database
