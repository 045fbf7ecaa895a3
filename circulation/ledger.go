package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerStore opens transactional sessions against durable storage.
// WithinTx runs fn inside one transaction: commits when fn returns nil,
// rolls back otherwise. Engines return ErrSerializationConflict when the
// transaction lost a race and the whole operation should be retried.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Ledger) error) error
}

// Ledger is the transactional view over the circulation tables. Every method
// operates inside the transaction it was obtained from, so a sequence of
// calls forms one atomic read-modify-write.
type Ledger interface {
	TitleLedger
	LoanLedger
	ReservationLedger
	FineLedger
}

// TitleLedger covers the catalog: titles, copies, and the availability
// counters derived from them.
type TitleLedger interface {
	// TitleByID returns the title or ErrNotFound.
	TitleByID(ctx context.Context, id uuid.UUID) (Title, error)

	// InsertTitle adds a catalog record with its counters.
	InsertTitle(ctx context.Context, title Title) error

	// InsertCopy adds a physical copy and bumps the title counters.
	InsertCopy(ctx context.Context, copy Copy) error

	// ReserveAvailableCopy atomically selects one AVAILABLE copy of the title
	// (lowest copy number first), flips it ON_LOAN, decrements the title's
	// availability counter, and returns it. Returns ErrNoCopyAvailable with
	// no side effects when every copy is out.
	ReserveAvailableCopy(ctx context.Context, titleID uuid.UUID) (Copy, error)

	// ReleaseCopy flips a copy back to AVAILABLE and increments the title's
	// availability counter.
	ReleaseCopy(ctx context.Context, copyID uuid.UUID) error
}

// LoanLedger covers loan rows.
type LoanLedger interface {
	// LoanByID returns the loan or ErrNotFound.
	LoanByID(ctx context.Context, id uuid.UUID) (Loan, error)

	InsertLoan(ctx context.Context, loan Loan) error
	UpdateLoan(ctx context.Context, loan Loan) error

	// OpenLoanCount returns the number of the user's open loans.
	OpenLoanCount(ctx context.Context, userID uuid.UUID) (int, error)

	// HasOverdueLoan reports whether the user holds any loan in OVERDUE state.
	HasOverdueLoan(ctx context.Context, userID uuid.UUID) (bool, error)

	// HoldsOpenLoan reports whether the user has an open loan for the title.
	HoldsOpenLoan(ctx context.Context, userID uuid.UUID, titleID uuid.UUID) (bool, error)

	// OpenLoansByUser returns the user's open loans, newest first.
	OpenLoansByUser(ctx context.Context, userID uuid.UUID) ([]Loan, error)

	// ActiveLoansPastDue returns loans still marked ACTIVE whose due time is
	// before now. Used by the overdue sweep.
	ActiveLoansPastDue(ctx context.Context, now time.Time) ([]Loan, error)

	// OpenLoansDueBetween returns open loans due inside [from, until).
	// Used by the due-soon reminder sweep.
	OpenLoansDueBetween(ctx context.Context, from time.Time, until time.Time) ([]Loan, error)
}

// ReservationLedger covers the per-title waitlists.
type ReservationLedger interface {
	// ReservationByID returns the reservation or ErrNotFound.
	ReservationByID(ctx context.Context, id uuid.UUID) (Reservation, error)

	InsertReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error

	// HasPendingReservation reports whether the user already waits for the title.
	HasPendingReservation(ctx context.Context, userID uuid.UUID, titleID uuid.UUID) (bool, error)

	// OldestPendingReservation returns the head of the title's waitlist,
	// ordered by request time then ID, or ErrNotFound when none is pending.
	OldestPendingReservation(ctx context.Context, titleID uuid.UUID) (Reservation, error)

	// NotifiedPendingReservations returns every reservation that is PENDING,
	// notified, and was notified before the cutoff. Used by the expiry sweep.
	NotifiedPendingReservations(ctx context.Context, cutoff time.Time) ([]Reservation, error)

	// TitlesWithPendingReservations returns the IDs of titles that currently
	// have at least one free copy and at least one un-notified pending
	// reservation. Used by the fulfillment sweep.
	TitlesWithPendingReservations(ctx context.Context) ([]uuid.UUID, error)
}

// FineLedger covers assessed fines.
type FineLedger interface {
	// FineByID returns the fine or ErrNotFound.
	FineByID(ctx context.Context, id uuid.UUID) (Fine, error)

	InsertFine(ctx context.Context, fine Fine) error
	UpdateFine(ctx context.Context, fine Fine) error

	// FineExistsForLoan reports whether a fine was already assessed for the loan.
	FineExistsForLoan(ctx context.Context, loanID uuid.UUID) (bool, error)

	// FinesByUser returns the user's fines, newest first.
	FinesByUser(ctx context.Context, userID uuid.UUID) ([]Fine, error)
}
