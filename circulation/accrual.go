package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssessFine records the penalty for an overdue loan, at most once per loan.
// It is invoked both when an overdue loan is returned and by the periodic
// overdue sweep; re-running it for the same loan is a no-op, which is what
// makes the sweep idempotent.
//
// The overdue day count always runs from the due time to now (the return or
// assessment time), floored to whole days with a minimum of one.
func AssessFine(ctx context.Context, tx Ledger, policy Policy, loan Loan, now time.Time) (Fine, bool, error) {
	exists, err := tx.FineExistsForLoan(ctx, loan.ID)
	if err != nil {
		return Fine{}, false, err
	}

	if exists {
		return Fine{}, false, nil
	}

	daysOverdue := policy.DaysOverdue(loan.DueAt, now)

	fine := Fine{
		ID:         uuid.New(),
		UserID:     loan.UserID,
		LoanID:     loan.ID,
		Amount:     policy.FineAmount(loan.DueAt, now),
		Reason:     fmt.Sprintf("book overdue by %d days", daysOverdue),
		Status:     FinePending,
		AssessedAt: ToTimestamp(now),
		DueAt:      ToTimestamp(now.Add(policy.FineDuePeriod)),
	}

	if err := tx.InsertFine(ctx, fine); err != nil {
		return Fine{}, false, err
	}

	return fine, true, nil
}
