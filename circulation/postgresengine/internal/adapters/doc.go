// Package adapters provides database adapter implementations for the
// PostgreSQL circulation ledger.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, allowing the
// ledger to work seamlessly with any supported database connection type.
//
// Every ledger operation runs inside a transaction, so the adapters expose
// BeginTx and a transactional DBTx handle rather than the bare pool.
package adapters
