package circulation

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the lifecycle state of a loan:
// ACTIVE -> RETURNED, or ACTIVE -> OVERDUE -> RETURNED.
type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanOverdue  LoanStatus = "OVERDUE"
	LoanReturned LoanStatus = "RETURNED"
)

// Loan records one borrowing of one physical copy by one user.
// A loan is open while ReturnedAt is nil; at most one open loan may exist
// per copy at any time.
type Loan struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TitleID    uuid.UUID
	CopyID     uuid.UUID
	IssuedAt   time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
	Status     LoanStatus
}

// IsOpen reports whether the copy is still out.
func (l Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}

// IsOverdueAt reports whether the loan is open and past due at the given time.
func (l Loan) IsOverdueAt(now time.Time) bool {
	return l.IsOpen() && now.After(l.DueAt)
}
