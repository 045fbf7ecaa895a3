package memoryengine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/memoryengine"
	"github.com/shelfwise/circulation-go/testutil/fixtures"
	"github.com/shelfwise/circulation-go/testutil/helper"
)

func Test_Store_WithinTx_RollsBackOnError(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 2, now)

	boom := errors.New("boom")

	// act: reserve a copy, then fail the transaction
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		if _, reserveErr := tx.ReserveAvailableCopy(ctx, title.ID); reserveErr != nil {
			return reserveErr
		}

		return boom
	})

	// assert
	assert.ErrorIs(t, err, boom)

	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		refreshed, txErr := tx.TitleByID(ctx, title.ID)
		if txErr != nil {
			return txErr
		}

		assert.Equal(t, 2, refreshed.AvailableCopies, "the failed reserve must not stick")

		return nil
	})
	assert.NoError(t, err)
}

func Test_Store_ReserveAvailableCopy_TakesLowestCopyNumber(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 3, now)

	// act
	var first, second circulation.Copy
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		var txErr error
		if first, txErr = tx.ReserveAvailableCopy(ctx, title.ID); txErr != nil {
			return txErr
		}

		second, txErr = tx.ReserveAvailableCopy(ctx, title.ID)

		return txErr
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, first.CopyNumber)
	assert.Equal(t, 2, second.CopyNumber)
	assert.Equal(t, circulation.CopyOnLoan, first.Status)
}

func Test_Store_ReserveAvailableCopy_Error_WhenAllCopiesOut(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, now)

	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		_, txErr := tx.ReserveAvailableCopy(ctx, title.ID)
		return txErr
	})
	require.NoError(t, err)

	// act
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		_, txErr := tx.ReserveAvailableCopy(ctx, title.ID)
		return txErr
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoCopyAvailable)
}

func Test_Store_ReleaseCopy_Error_WhenReleasedTwice(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, now)

	var reserved circulation.Copy
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		var txErr error
		reserved, txErr = tx.ReserveAvailableCopy(ctx, title.ID)

		return txErr
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		return tx.ReleaseCopy(ctx, reserved.ID)
	})
	require.NoError(t, err)

	// act
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		return tx.ReleaseCopy(ctx, reserved.ID)
	})

	// assert: a double release can only come from a broken workflow
	var integrityErr *circulation.IntegrityError
	assert.ErrorAs(t, err, &integrityErr)

	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		refreshed, txErr := tx.TitleByID(ctx, title.ID)
		if txErr != nil {
			return txErr
		}

		assert.Equal(t, 1, refreshed.AvailableCopies, "availability must never exceed the total")

		return nil
	})
	assert.NoError(t, err)
}

func Test_Store_InsertReservation_Error_OnDuplicatePending(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 0, now)
	userID := helper.GivenUniqueID(t)
	fixtures.GivenPendingReservation(t, ctx, store, userID, title.ID, now)

	// act: insert a second pending reservation for the same user and title
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		return tx.InsertReservation(ctx, circulation.Reservation{
			ID:          helper.GivenUniqueID(t),
			UserID:      userID,
			TitleID:     title.ID,
			RequestedAt: now.Add(time.Hour),
			Status:      circulation.ReservationPending,
		})
	})

	// assert
	var integrityErr *circulation.IntegrityError
	assert.ErrorAs(t, err, &integrityErr)
}

func Test_Store_InsertFine_Error_OnSecondFineForLoan(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, now)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, now)
	fixtures.GivenAssessedFine(t, ctx, store, policy, loan, loan.DueAt.Add(48*time.Hour))

	// act
	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		return tx.InsertFine(ctx, circulation.Fine{
			ID:         helper.GivenUniqueID(t),
			UserID:     loan.UserID,
			LoanID:     loan.ID,
			Amount:     policy.FineAmount(loan.DueAt, loan.DueAt.Add(72*time.Hour)),
			Status:     circulation.FinePending,
			AssessedAt: loan.DueAt.Add(72 * time.Hour),
			DueAt:      loan.DueAt.Add(72 * time.Hour).Add(policy.FineDuePeriod),
		})
	})

	// assert
	var integrityErr *circulation.IntegrityError
	assert.ErrorAs(t, err, &integrityErr)
}

func Test_Store_Snapshot_SurvivesRestart(t *testing.T) {
	// setup
	ctx := context.Background()
	snapshotPath := filepath.Join(t.TempDir(), "ledger.json")

	store, err := memoryengine.NewStore(memoryengine.WithSnapshotPath(snapshotPath))
	require.NoError(t, err)

	now := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 2, now)

	// act: a second store loads the snapshot the first one wrote
	reopened, err := memoryengine.NewStore(memoryengine.WithSnapshotPath(snapshotPath))
	require.NoError(t, err)

	// assert
	err = reopened.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		loaded, txErr := tx.TitleByID(ctx, title.ID)
		if txErr != nil {
			return txErr
		}

		assert.Equal(t, title.Name, loaded.Name)
		assert.Equal(t, 2, loaded.TotalCopies)
		assert.Equal(t, 2, loaded.AvailableCopies)

		return nil
	})
	assert.NoError(t, err)
}
