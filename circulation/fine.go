package circulation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FineStatus is the lifecycle state of a fine.
type FineStatus string

const (
	FinePending FineStatus = "PENDING"
	FinePaid    FineStatus = "PAID"
	FineWaived  FineStatus = "WAIVED"
)

// Fine is the monetary penalty assessed for an overdue loan. At most one fine
// is ever created per loan; assessment is idempotent.
type Fine struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	LoanID     uuid.UUID
	Amount     decimal.Decimal
	Reason     string
	Status     FineStatus
	AssessedAt time.Time
	DueAt      time.Time
	PaidAt     *time.Time
}

// IsSettled reports whether the fine can no longer be paid: it was either
// paid or administratively waived.
func (f Fine) IsSettled() bool {
	return f.Status == FinePaid || f.Status == FineWaived
}
