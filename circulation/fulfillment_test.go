package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/memoryengine"
	"github.com/shelfwise/circulation-go/testutil/fixtures"
	"github.com/shelfwise/circulation-go/testutil/helper"
)

func Test_FulfillNextReservation_PicksOldestRequestFirst(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	baseTime := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange: three users queue up in order A, B, C
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 0, baseTime)
	userA := helper.GivenUniqueID(t)
	userB := helper.GivenUniqueID(t)
	userC := helper.GivenUniqueID(t)

	fixtures.GivenPendingReservation(t, ctx, store, userA, title.ID, baseTime)
	fixtures.GivenPendingReservation(t, ctx, store, userB, title.ID, baseTime.Add(time.Minute))
	fixtures.GivenPendingReservation(t, ctx, store, userC, title.ID, baseTime.Add(2*time.Minute))

	// act: fulfill twice
	fulfilledUsers := make([]string, 0, 2)

	for i := 0; i < 2; i++ {
		err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
			next, fulfilled, fulfillErr := circulation.FulfillNextReservation(ctx, tx, title.ID, baseTime.Add(time.Hour))
			if fulfillErr != nil {
				return fulfillErr
			}

			require.True(t, fulfilled)
			fulfilledUsers = append(fulfilledUsers, next.UserID.String())

			return nil
		})
		require.NoError(t, err)
	}

	// assert: A then B, never C first
	assert.Equal(t, []string{userA.String(), userB.String()}, fulfilledUsers,
		"reservations must be fulfilled in request order")
}

func Test_FulfillNextReservation_SetsStatusAndNotification(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	baseTime := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 0, baseTime)
	userID := helper.GivenUniqueID(t)
	reservation := fixtures.GivenPendingReservation(t, ctx, store, userID, title.ID, baseTime)

	fulfilledAt := baseTime.Add(3 * time.Hour)

	// act
	var next circulation.Reservation
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		var fulfilled bool
		next, fulfilled, err = circulation.FulfillNextReservation(ctx, tx, title.ID, fulfilledAt)
		require.True(t, fulfilled)

		return err
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, reservation.ID, next.ID)
	assert.Equal(t, circulation.ReservationFulfilled, next.Status)
	assert.True(t, next.Notified)
	require.NotNil(t, next.NotifiedAt)
	require.NotNil(t, next.FulfilledAt)
	assert.Equal(t, circulation.ToTimestamp(fulfilledAt), *next.NotifiedAt)
	assert.Equal(t, circulation.ToTimestamp(fulfilledAt), *next.FulfilledAt)
}

func Test_FulfillNextReservation_NoOp_WhenQueueIsEmpty(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	baseTime := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, baseTime)

	// act
	var fulfilled bool
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		_, fulfilled, err = circulation.FulfillNextReservation(ctx, tx, title.ID, baseTime)
		return err
	})

	// assert
	assert.NoError(t, err)
	assert.False(t, fulfilled, "an empty queue fulfills nothing")
}
