package closeloan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/memoryengine"
	"github.com/shelfwise/circulation-go/features/command/closeloan"
	"github.com/shelfwise/circulation-go/shell"
	"github.com/shelfwise/circulation-go/testutil/fixtures"
	"github.com/shelfwise/circulation-go/testutil/helper"
)

func Test_CommandHandler_Handle_Success_OnTimeReturn(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := closeloan.NewCommandHandler(store, policy)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	userID := helper.GivenUniqueID(t)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, userID, title.ID, issuedAt)

	returnedAt := issuedAt.Add(7 * 24 * time.Hour)

	// act
	closed, result, err := handler.Handle(ctx, closeloan.BuildCommand(loan.ID, returnedAt))

	// assert
	assert.NoError(t, err, "Should successfully close the loan")
	assert.False(t, result.Idempotent)
	assert.Equal(t, circulation.LoanReturned, closed.Status)
	require.NotNil(t, closed.ReturnedAt)
	assert.Equal(t, returnedAt, *closed.ReturnedAt)

	refreshed := titleByID(t, ctx, store, title.ID)
	assert.Equal(t, 1, refreshed.AvailableCopies, "the copy goes back on the shelf")

	fines := finesByUser(t, ctx, store, userID)
	assert.Empty(t, fines, "an on-time return assesses no fine")
}

func Test_CommandHandler_Handle_NoFine_WhenReturnedExactlyAtDueTime(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := closeloan.NewCommandHandler(store, policy)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	userID := helper.GivenUniqueID(t)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, userID, title.ID, issuedAt)

	// act: return at the due instant, not a second later
	_, _, err = handler.Handle(ctx, closeloan.BuildCommand(loan.ID, loan.DueAt))

	// assert
	assert.NoError(t, err)
	assert.Empty(t, finesByUser(t, ctx, store, userID), "due-at-return is not overdue")
}

func Test_CommandHandler_Handle_AssessesFine_WhenReturnedLate(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	spy := helper.NewNotificationSpy()
	handler := closeloan.NewCommandHandler(store, policy, closeloan.WithNotifier(spy))
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	userID := helper.GivenUniqueID(t)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, userID, title.ID, issuedAt)

	// act: loan runs 14 days, return on day 20
	returnedAt := issuedAt.Add(20 * 24 * time.Hour)
	_, _, err = handler.Handle(ctx, closeloan.BuildCommand(loan.ID, returnedAt))

	// assert
	assert.NoError(t, err)

	fines := finesByUser(t, ctx, store, userID)
	require.Len(t, fines, 1)
	assert.True(t, fines[0].Amount.Equal(policy.FineAmount(loan.DueAt, returnedAt)),
		"6 days late at the default rate, got %s", fines[0].Amount)
	assert.Equal(t, circulation.FinePending, fines[0].Status)

	notices := spy.SentOfKind(shell.NotifyFineAssessed)
	require.Len(t, notices, 1, "the borrower is told about the fine")
	assert.Equal(t, userID, notices[0].UserID)
}

func Test_CommandHandler_Handle_FulfillsNextReservation(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	spy := helper.NewNotificationSpy()
	handler := closeloan.NewCommandHandler(store, policy, closeloan.WithNotifier(spy))
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange: the only copy is out and someone waits for it
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	borrowerID := helper.GivenUniqueID(t)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, borrowerID, title.ID, issuedAt)

	waiterID := helper.GivenUniqueID(t)
	reservation := fixtures.GivenPendingReservation(t, ctx, store, waiterID, title.ID, issuedAt.Add(time.Hour))

	// act
	returnedAt := issuedAt.Add(24 * time.Hour)
	_, _, err = handler.Handle(ctx, closeloan.BuildCommand(loan.ID, returnedAt))

	// assert
	assert.NoError(t, err)

	refreshed := reservationByID(t, ctx, store, reservation.ID)
	assert.Equal(t, circulation.ReservationFulfilled, refreshed.Status)
	assert.True(t, refreshed.Notified)

	notices := spy.SentOfKind(shell.NotifyReservationReady)
	require.Len(t, notices, 1, "the waiting user is told their copy is ready")
	assert.Equal(t, waiterID, notices[0].UserID)
}

func Test_CommandHandler_Handle_Error_WhenLoanAlreadyReturned(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	handler := closeloan.NewCommandHandler(store, policy)
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, issuedAt)

	returnedAt := issuedAt.Add(24 * time.Hour)
	_, _, err = handler.Handle(ctx, closeloan.BuildCommand(loan.ID, returnedAt))
	require.NoError(t, err)

	// act: return the same loan again
	_, _, err = handler.Handle(ctx, closeloan.BuildCommand(loan.ID, returnedAt.Add(time.Hour)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadyReturned)

	refreshed := titleByID(t, ctx, store, title.ID)
	assert.Equal(t, 1, refreshed.AvailableCopies, "a duplicate return must not double-release the copy")
}

func Test_CommandHandler_Handle_Error_WhenLoanDoesNotExist(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	handler := closeloan.NewCommandHandler(store, circulation.DefaultPolicy())

	// act
	_, _, err = handler.Handle(ctx, closeloan.BuildCommand(helper.GivenUniqueID(t), helper.GivenTime(t, "2025-03-01T10:00:00Z")))

	// assert
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}

func titleByID(t *testing.T, ctx context.Context, store circulation.LedgerStore, id uuid.UUID) circulation.Title {
	t.Helper()

	var title circulation.Title

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		var txErr error
		title, txErr = tx.TitleByID(ctx, id)

		return txErr
	})
	require.NoError(t, err)

	return title
}

func reservationByID(t *testing.T, ctx context.Context, store circulation.LedgerStore, id uuid.UUID) circulation.Reservation {
	t.Helper()

	var reservation circulation.Reservation

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		var txErr error
		reservation, txErr = tx.ReservationByID(ctx, id)

		return txErr
	})
	require.NoError(t, err)

	return reservation
}

func finesByUser(t *testing.T, ctx context.Context, store circulation.LedgerStore, userID uuid.UUID) []circulation.Fine {
	t.Helper()

	var fines []circulation.Fine

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		var txErr error
		fines, txErr = tx.FinesByUser(ctx, userID)

		return txErr
	})
	require.NoError(t, err)

	return fines
}
