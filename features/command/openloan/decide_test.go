package openloan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
)

func Test_Decide_Success_WhenAllPreconditionsMet(t *testing.T) {
	// arrange
	policy := circulation.DefaultPolicy()
	s := state{availableCopies: 1, hasOverdueLoan: false, openLoanCount: 0}

	// act
	err := decide(s, policy)

	// assert
	assert.NoError(t, err)
}

func Test_Decide_Success_WhenUserIsOneBelowLoanLimit(t *testing.T) {
	// arrange
	policy := circulation.DefaultPolicy()
	s := state{availableCopies: 1, openLoanCount: policy.MaxOpenLoans - 1}

	// act
	err := decide(s, policy)

	// assert
	assert.NoError(t, err)
}

func Test_Decide_Error_WhenNoCopyAvailable(t *testing.T) {
	// arrange
	policy := circulation.DefaultPolicy()
	s := state{availableCopies: 0}

	// act
	err := decide(s, policy)

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoCopyAvailable)
}

func Test_Decide_Error_WhenUserHoldsOverdueLoan(t *testing.T) {
	// arrange
	policy := circulation.DefaultPolicy()
	s := state{availableCopies: 1, hasOverdueLoan: true}

	// act
	err := decide(s, policy)

	// assert
	assert.ErrorIs(t, err, circulation.ErrOverdueBlock)
}

func Test_Decide_Error_WhenUserIsAtLoanLimit(t *testing.T) {
	// arrange
	policy := circulation.DefaultPolicy()
	s := state{availableCopies: 1, openLoanCount: policy.MaxOpenLoans}

	// act
	err := decide(s, policy)

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanLimitExceeded)
}

func Test_Decide_Error_AvailabilityCheckedBeforeOverdueBlock(t *testing.T) {
	// arrange: both violations hold, availability wins
	policy := circulation.DefaultPolicy()
	s := state{availableCopies: 0, hasOverdueLoan: true}

	// act
	err := decide(s, policy)

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoCopyAvailable)
}
