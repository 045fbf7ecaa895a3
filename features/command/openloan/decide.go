package openloan

import (
	"github.com/shelfwise/circulation-go/circulation"
)

// state represents the borrower's and the title's standing, projected from
// the ledger inside the same transaction that will open the loan.
type state struct {
	availableCopies int
	hasOverdueLoan  bool
	openLoanCount   int
}

// decide implements the business rules for opening a loan. This is a pure
// function: it takes the projected state and the policy and returns nil when
// the borrow may proceed, or the precondition violation that blocks it.
//
// Business Rules:
//
//	GIVEN: A user and a title
//	WHEN: OpenLoan command is received
//	THEN: the loan may be opened
//	ERROR: ErrNoCopyAvailable if every copy of the title is out
//	ERROR: ErrOverdueBlock if the user holds any overdue loan
//	ERROR: ErrLoanLimitExceeded if the user is at the open-loan maximum
func decide(s state, policy circulation.Policy) error {
	if s.availableCopies == 0 {
		return circulation.ErrNoCopyAvailable
	}

	if s.hasOverdueLoan {
		return circulation.ErrOverdueBlock
	}

	if s.openLoanCount >= policy.MaxOpenLoans {
		return circulation.ErrLoanLimitExceeded
	}

	return nil
}
