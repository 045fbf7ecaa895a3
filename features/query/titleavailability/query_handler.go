package titleavailability

import (
	"context"

	"github.com/shelfwise/circulation-go/circulation"
)

// QueryHandler reads a title's counters from the ledger.
type QueryHandler struct {
	store circulation.LedgerStore
}

// NewQueryHandler creates a new QueryHandler with the provided store.
func NewQueryHandler(store circulation.LedgerStore) QueryHandler {
	return QueryHandler{store: store}
}

// Handle returns the title's availability, or circulation.ErrNotFound.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Availability, error) {
	var result Availability

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		title, err := tx.TitleByID(txCtx, query.TitleID)
		if err != nil {
			return err
		}

		result = Availability{
			TitleID:         title.ID,
			Name:            title.Name,
			TotalCopies:     title.TotalCopies,
			AvailableCopies: title.AvailableCopies,
		}

		return nil
	})
	if err != nil {
		return Availability{}, err
	}

	return result, nil
}
