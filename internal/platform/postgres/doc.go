// Package postgres provides PostgreSQL-backed implementations of the
// persistence contracts defined in internal/store.
package postgres
