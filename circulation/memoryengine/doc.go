// Package memoryengine provides an in-process Ledger implementation backed by
// maps under a single mutex, with optional JSON snapshot persistence to disk.
//
// It is intended for tests and small single-node deployments. Transactions
// are serialized by the store mutex; a failed transaction rolls the state
// back to the snapshot taken at its start, so the atomicity contract matches
// the Postgres engine.
package memoryengine
