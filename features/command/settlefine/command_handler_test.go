package settlefine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/memoryengine"
	"github.com/shelfwise/circulation-go/features/command/settlefine"
	"github.com/shelfwise/circulation-go/features/command/waivefine"
	"github.com/shelfwise/circulation-go/identity"
	"github.com/shelfwise/circulation-go/testutil/fixtures"
	"github.com/shelfwise/circulation-go/testutil/helper"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := settlefine.NewCommandHandler(store)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	userID := helper.GivenUniqueID(t)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, userID, title.ID, issuedAt)
	fine := fixtures.GivenAssessedFine(t, ctx, store, policy, loan, loan.DueAt.Add(72*time.Hour))

	paidAt := loan.DueAt.Add(96 * time.Hour)

	// act
	settled, result, err := handler.Handle(ctx, settlefine.BuildCommand(fine.ID, paidAt))

	// assert
	assert.NoError(t, err, "Should successfully settle the fine")
	assert.False(t, result.Idempotent)
	assert.Equal(t, circulation.FinePaid, settled.Status)
	require.NotNil(t, settled.PaidAt)
	assert.Equal(t, paidAt, *settled.PaidAt)
}

func Test_CommandHandler_Handle_Error_WhenFineAlreadyPaid(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := settlefine.NewCommandHandler(store)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, issuedAt)
	fine := fixtures.GivenAssessedFine(t, ctx, store, policy, loan, loan.DueAt.Add(72*time.Hour))

	_, _, err = handler.Handle(ctx, settlefine.BuildCommand(fine.ID, loan.DueAt.Add(96*time.Hour)))
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(ctx, settlefine.BuildCommand(fine.ID, loan.DueAt.Add(97*time.Hour)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadyPaid)
}

func Test_CommandHandler_Handle_Error_WhenFineWasWaived(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	settleHandler := settlefine.NewCommandHandler(store)
	waiveHandler := waivefine.NewCommandHandler(store)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange: a librarian waives the fine first
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, issuedAt)
	fine := fixtures.GivenAssessedFine(t, ctx, store, policy, loan, loan.DueAt.Add(72*time.Hour))

	_, err = waiveHandler.Handle(ctx, waivefine.BuildCommand(fine.ID, identity.RoleLibrarian))
	require.NoError(t, err)

	// act: the user then tries to pay it
	_, _, err = settleHandler.Handle(ctx, settlefine.BuildCommand(fine.ID, loan.DueAt.Add(96*time.Hour)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadyPaid, "a waived fine cannot be settled")
}

func Test_CommandHandler_Handle_Error_WhenFineDoesNotExist(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	handler := settlefine.NewCommandHandler(store)

	// act
	_, _, err = handler.Handle(ctx, settlefine.BuildCommand(helper.GivenUniqueID(t), helper.GivenTime(t, "2025-03-01T10:00:00Z")))

	// assert
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}
