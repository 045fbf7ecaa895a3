package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultLoanPeriod       = 14 * 24 * time.Hour
	defaultMaxOpenLoans     = 5
	defaultFineDuePeriod    = 7 * 24 * time.Hour
	defaultReservationGrace = 48 * time.Hour
	defaultReminderWindow   = 48 * time.Hour
)

// Policy holds the configurable lifecycle rules. It is passed explicitly into
// every operation instead of living in mutable global settings, so tests can
// vary policies per case.
type Policy struct {
	// LoanPeriod is the time a borrower may keep a copy before it is due.
	LoanPeriod time.Duration

	// MaxOpenLoans is the maximum number of open loans one user may hold.
	MaxOpenLoans int

	// FinePerDay is the penalty charged per whole day a loan is overdue.
	FinePerDay decimal.Decimal

	// FineDuePeriod is how long after assessment a fine becomes payable.
	FineDuePeriod time.Duration

	// ReservationGrace is how long a notified reservation is held before
	// it is cancelled in favor of the next waiting user.
	ReservationGrace time.Duration

	// ReminderWindow is how far ahead of the due time a due-soon reminder
	// is sent.
	ReminderWindow time.Duration
}

// DefaultPolicy returns the standard library policy: 14-day loans, at most
// 5 open loans per user, 1.00 per overdue day payable within 7 days, and a
// 48-hour pickup grace for notified reservations.
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriod:       defaultLoanPeriod,
		MaxOpenLoans:     defaultMaxOpenLoans,
		FinePerDay:       decimal.NewFromInt(1),
		FineDuePeriod:    defaultFineDuePeriod,
		ReservationGrace: defaultReservationGrace,
		ReminderWindow:   defaultReminderWindow,
	}
}

// DueTime returns the due time for a loan issued at the given time.
func (p Policy) DueTime(issuedAt time.Time) time.Time {
	return issuedAt.Add(p.LoanPeriod)
}

// DaysOverdue returns the whole days between the due time and now, clamped
// to a minimum of one. The rule is deterministic: overdue days are always
// counted from the due time to the return or assessment time, never from
// the return time onward.
func (p Policy) DaysOverdue(dueAt time.Time, now time.Time) int {
	days := int(now.Sub(dueAt).Hours() / 24)
	if days < 1 {
		days = 1
	}

	return days
}

// FineAmount returns the penalty for a loan overdue by the given due time,
// assessed at now.
func (p Policy) FineAmount(dueAt time.Time, now time.Time) decimal.Decimal {
	return p.FinePerDay.Mul(decimal.NewFromInt(int64(p.DaysOverdue(dueAt, now))))
}
