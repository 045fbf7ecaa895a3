// Package openloansbyuser implements the read-only query for a user's open
// loans, with overdue flags derived from the clock.
package openloansbyuser

import (
	"time"

	"github.com/google/uuid"
)

// LoanInfo describes one open loan in the result.
type LoanInfo struct {
	LoanID    uuid.UUID
	TitleID   uuid.UUID
	IssuedAt  time.Time
	DueAt     time.Time
	IsOverdue bool
}

// OpenLoans is the query result.
type OpenLoans struct {
	UserID uuid.UUID
	Loans  []LoanInfo
	Count  int
}

// Query represents the intent to list a user's open loans.
type Query struct {
	UserID uuid.UUID
}

// BuildQuery creates a new Query with the provided user ID.
func BuildQuery(userID uuid.UUID) Query {
	return Query{UserID: userID}
}
