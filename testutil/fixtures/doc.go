// Package fixtures seeds ledger state for tests: titles with copies, open
// loans, queued reservations, and assessed fines.
package fixtures
