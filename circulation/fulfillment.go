package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// FulfillNextReservation marks the oldest pending reservation for the title
// as fulfilled and notified. FIFO order is by request time, tie-broken by
// reservation ID. It is a no-op when nothing is pending.
//
// Fulfillment never creates a loan. The held-back user borrows through the
// normal loan lifecycle once notified.
func FulfillNextReservation(ctx context.Context, tx Ledger, titleID uuid.UUID, now time.Time) (Reservation, bool, error) {
	next, err := tx.OldestPendingReservation(ctx, titleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, false, nil
		}

		return Reservation{}, false, err
	}

	ts := ToTimestamp(now)
	next.Status = ReservationFulfilled
	next.Notified = true
	next.NotifiedAt = &ts
	next.FulfilledAt = &ts

	if err := tx.UpdateReservation(ctx, next); err != nil {
		return Reservation{}, false, err
	}

	return next, true, nil
}
