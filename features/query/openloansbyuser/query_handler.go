package openloansbyuser

import (
	"context"

	"github.com/shelfwise/circulation-go/circulation"
)

// QueryHandler lists a user's open loans.
type QueryHandler struct {
	store circulation.LedgerStore
	clock circulation.Clock
}

// NewQueryHandler creates a new QueryHandler with the provided dependencies.
func NewQueryHandler(store circulation.LedgerStore, clock circulation.Clock) QueryHandler {
	return QueryHandler{store: store, clock: clock}
}

// Handle returns the user's open loans, newest first, with overdue flags
// computed against the injected clock.
func (h QueryHandler) Handle(ctx context.Context, query Query) (OpenLoans, error) {
	now := h.clock.Now()

	var loans []circulation.Loan

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		open, err := tx.OpenLoansByUser(txCtx, query.UserID)
		if err != nil {
			return err
		}

		loans = open

		return nil
	})
	if err != nil {
		return OpenLoans{}, err
	}

	result := OpenLoans{
		UserID: query.UserID,
		Loans:  make([]LoanInfo, 0, len(loans)),
	}

	for _, loan := range loans {
		result.Loans = append(result.Loans, LoanInfo{
			LoanID:    loan.ID,
			TitleID:   loan.TitleID,
			IssuedAt:  loan.IssuedAt,
			DueAt:     loan.DueAt,
			IsOverdue: loan.IsOverdueAt(now),
		})
	}

	result.Count = len(result.Loans)

	return result, nil
}
