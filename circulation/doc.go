// Package circulation provides the core domain model and lifecycle rules for
// lending library circulation: titles and their physical copies, loans,
// reservations, and fines.
//
// The package defines the entities, the policy configuration that parameterizes
// every lifecycle rule, the precondition errors returned to callers, and the
// Ledger interfaces that storage engines implement.
//
// Key invariants enforced across the package:
//   - AvailableCopies never goes negative and never exceeds TotalCopies
//   - at most one open loan exists per copy
//   - at most one pending reservation exists per (user, title)
//   - at most one fine is ever assessed per loan
//
// All mutating operations run inside a single ledger transaction
// (LedgerStore.WithinTx) so concurrent borrow/return of the same title
// serialize at the storage boundary.
package circulation
