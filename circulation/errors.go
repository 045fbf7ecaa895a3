package circulation

import (
	"errors"
	"fmt"
)

// Precondition violations are expected, user-facing outcomes. Callers match
// them with errors.Is and render a specific message; they never indicate a bug.
var (
	// ErrNoCopyAvailable is returned when a borrow request finds no free copy.
	ErrNoCopyAvailable = errors.New("no copy of this title is available")

	// ErrOverdueBlock is returned when a user with an overdue loan tries to borrow.
	ErrOverdueBlock = errors.New("user holds an overdue loan")

	// ErrLoanLimitExceeded is returned when a user is at the open-loan maximum.
	ErrLoanLimitExceeded = errors.New("user has reached the open-loan limit")

	// ErrDuplicateReservation is returned when a user already has a pending
	// reservation for the title.
	ErrDuplicateReservation = errors.New("user already has a pending reservation for this title")

	// ErrTitleAvailable is returned when a reservation is requested for a title
	// that still has a free copy.
	ErrTitleAvailable = errors.New("title has an available copy, borrow it instead")

	// ErrAlreadyHeld is returned when a user reserves a title they have on loan.
	ErrAlreadyHeld = errors.New("user already holds an open loan for this title")

	// ErrAlreadyReturned is returned when a loan is closed twice.
	ErrAlreadyReturned = errors.New("loan has already been returned")

	// ErrAlreadyPaid is returned when a settled or waived fine is settled again.
	ErrAlreadyPaid = errors.New("fine has already been settled or waived")

	// ErrReservationNotPending is returned when a fulfilled reservation is cancelled.
	ErrReservationNotPending = errors.New("reservation is no longer pending")
)

// Storage-level sentinels.
var (
	// ErrNotFound is returned by ledger lookups when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrSerializationConflict is returned when a transaction lost a race and
	// should be retried by the caller.
	ErrSerializationConflict = errors.New("serialization conflict, transaction should be retried")
)

// IntegrityError reports a violated data invariant: negative availability,
// a second open loan on one copy, a duplicate pending reservation. It always
// indicates a bug in ordering or locking, never a user mistake, and must be
// surfaced loudly rather than swallowed.
type IntegrityError struct {
	Invariant string
	Detail    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation (%s): %s", e.Invariant, e.Detail)
}

// NewIntegrityError builds an IntegrityError for the named invariant.
func NewIntegrityError(invariant string, format string, args ...any) *IntegrityError {
	return &IntegrityError{
		Invariant: invariant,
		Detail:    fmt.Sprintf(format, args...),
	}
}
