package placereservation

import (
	"github.com/shelfwise/circulation-go/circulation"
)

// state is the user's and the title's standing projected from the ledger.
type state struct {
	availableCopies       int
	hasPendingReservation bool
	holdsOpenLoan         bool
}

// decide implements the business rules for joining a waitlist.
//
// Business Rules:
//
//	GIVEN: A user and a title
//	WHEN: PlaceReservation command is received
//	THEN: a PENDING reservation may be inserted
//	ERROR: ErrTitleAvailable if the title still has a free copy
//	ERROR: ErrDuplicateReservation if the user already waits for the title
//	ERROR: ErrAlreadyHeld if the user has the title on loan right now
func decide(s state) error {
	if s.availableCopies > 0 {
		return circulation.ErrTitleAvailable
	}

	if s.hasPendingReservation {
		return circulation.ErrDuplicateReservation
	}

	if s.holdsOpenLoan {
		return circulation.ErrAlreadyHeld
	}

	return nil
}
