package placereservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/memoryengine"
	"github.com/shelfwise/circulation-go/features/command/placereservation"
	"github.com/shelfwise/circulation-go/testutil/fixtures"
	"github.com/shelfwise/circulation-go/testutil/helper"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := placereservation.NewCommandHandler(store)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange: the only copy is out
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, issuedAt)

	userID := helper.GivenUniqueID(t)
	requestedAt := issuedAt.Add(time.Hour)

	// act
	reservation, result, err := handler.Handle(ctx, placereservation.BuildCommand(userID, title.ID, requestedAt))

	// assert
	assert.NoError(t, err, "Should successfully place the reservation")
	assert.False(t, result.Idempotent)
	assert.Equal(t, circulation.ReservationPending, reservation.Status)
	assert.Equal(t, userID, reservation.UserID)
	assert.Equal(t, title.ID, reservation.TitleID)
	assert.Equal(t, requestedAt, reservation.RequestedAt)
	assert.False(t, reservation.Notified)
}

func Test_CommandHandler_Handle_Error_WhenTitleHasAvailableCopy(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	handler := placereservation.NewCommandHandler(store)
	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 2, now)

	// act
	_, _, err = handler.Handle(ctx, placereservation.BuildCommand(helper.GivenUniqueID(t), title.ID, now))

	// assert
	assert.ErrorIs(t, err, circulation.ErrTitleAvailable)
}

func Test_CommandHandler_Handle_Error_WhenUserAlreadyWaits(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := placereservation.NewCommandHandler(store)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, issuedAt)

	userID := helper.GivenUniqueID(t)
	_, _, err = handler.Handle(ctx, placereservation.BuildCommand(userID, title.ID, issuedAt.Add(time.Hour)))
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(ctx, placereservation.BuildCommand(userID, title.ID, issuedAt.Add(2*time.Hour)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrDuplicateReservation)
}

func Test_CommandHandler_Handle_Error_WhenUserHoldsTheTitle(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := placereservation.NewCommandHandler(store)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange: the user borrowed the last copy themselves
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	userID := helper.GivenUniqueID(t)
	fixtures.GivenOpenLoan(t, ctx, store, policy, userID, title.ID, issuedAt)

	// act
	_, _, err = handler.Handle(ctx, placereservation.BuildCommand(userID, title.ID, issuedAt.Add(time.Hour)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadyHeld)
}

func Test_CommandHandler_Handle_Error_WhenTitleDoesNotExist(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	handler := placereservation.NewCommandHandler(store)

	// act
	_, _, err = handler.Handle(ctx, placereservation.BuildCommand(
		helper.GivenUniqueID(t), helper.GivenUniqueID(t), helper.GivenTime(t, "2025-03-01T10:00:00Z")))

	// assert
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}
