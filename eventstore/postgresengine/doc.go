// Package postgresengine implements the eventstore.Engine contract on top
// of PostgreSQL with a single append-only events table.
//
// Appends are guarded by the expected maximum sequence number of the
// originator's stream: a CTE computes the current maximum inside the
// INSERT statement, so concurrent writers never need explicit locks and
// lost updates surface as eventstore.ErrConcurrencyConflict.
//
// Three database adapters are supported: pgx pools, database/sql, and
// sqlx. Observability is optional and dependency-free via the logger,
// metrics, and tracing interfaces declared in the eventstore package.
package postgresengine
