// Package openloan implements the Borrow a Copy use case.
//
// A borrow request checks the borrower's standing (no overdue loan, below the
// open-loan limit) and the title's availability, then atomically reserves one
// available copy and opens an ACTIVE loan due one loan period later.
//
// The pure precondition checks live in the Decide function; the CommandHandler
// runs them together with the copy reservation inside a single ledger
// transaction and retries serialization conflicts.
package openloan
