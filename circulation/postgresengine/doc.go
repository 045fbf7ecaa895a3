// Package postgresengine provides the PostgreSQL implementation of the
// circulation ledger.
//
// SQL statements are built with goqu and executed through a thin adapter
// layer that supports pgx.Pool, sql.DB, and sqlx.DB connections. Every
// lifecycle operation runs in one transaction; candidate rows are locked
// with FOR UPDATE so concurrent borrows of a title's last copy serialize,
// and serialization failures surface as circulation.ErrSerializationConflict
// for the caller's retry loop.
//
// The storage schema enforces the data invariants directly: availability
// counters carry CHECK constraints, one open loan per copy and one pending
// reservation per (user, title) are partial unique indexes, and one fine per
// loan is a unique constraint.
package postgresengine
