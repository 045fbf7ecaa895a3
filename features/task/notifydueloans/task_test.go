package notifydueloans_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/memoryengine"
	"github.com/shelfwise/circulation-go/features/task/notifydueloans"
	"github.com/shelfwise/circulation-go/shell"
	"github.com/shelfwise/circulation-go/testutil/fixtures"
	"github.com/shelfwise/circulation-go/testutil/helper"
)

func Test_Task_Run_RemindsLoansEnteringTheWindow(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	clock := helper.NewFixedClock(issuedAt)
	spy := helper.NewNotificationSpy()
	task := notifydueloans.NewTask(store, policy, clock, 24*time.Hour, notifydueloans.WithNotifier(spy))

	// arrange: one loan due in 47h (inside the 48h window), one due in 10 days
	soonTitle := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	soonUser := helper.GivenUniqueID(t)
	soonLoan := fixtures.GivenOpenLoan(t, ctx, store, policy, soonUser, soonTitle.ID, issuedAt)

	laterTitle := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), laterTitle.ID, issuedAt.Add(8*24*time.Hour))

	clock.Set(soonLoan.DueAt.Add(-47 * time.Hour))

	// act
	err = task.Run(ctx)

	// assert
	assert.NoError(t, err)

	reminders := spy.SentOfKind(shell.NotifyDueSoon)
	require.Len(t, reminders, 1, "only the loan inside the reminder window is announced")
	assert.Equal(t, soonUser, reminders[0].UserID)
	assert.Equal(t, soonTitle.ID, reminders[0].TitleID)
}

func Test_Task_Run_DoesNotRemindTwiceAcrossConsecutiveRuns(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	clock := helper.NewFixedClock(issuedAt)
	spy := helper.NewNotificationSpy()

	interval := 24 * time.Hour
	task := notifydueloans.NewTask(store, policy, clock, interval, notifydueloans.WithNotifier(spy))

	// arrange
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, issuedAt)

	clock.Set(loan.DueAt.Add(-47 * time.Hour))
	require.NoError(t, task.Run(ctx))
	require.Len(t, spy.SentOfKind(shell.NotifyDueSoon), 1)
	spy.Reset()

	// act: the next scheduled run, one interval later
	clock.Advance(interval)
	err = task.Run(ctx)

	// assert: the loan left the (window − interval, window] slice
	assert.NoError(t, err)
	assert.Empty(t, spy.SentOfKind(shell.NotifyDueSoon), "each loan is reminded once")
}

func Test_Task_Run_NoReminder_ForReturnedLoan(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	policy := circulation.DefaultPolicy()
	issuedAt := helper.GivenTime(t, "2025-03-01T10:00:00Z")
	clock := helper.NewFixedClock(issuedAt)
	spy := helper.NewNotificationSpy()
	task := notifydueloans.NewTask(store, policy, clock, 24*time.Hour, notifydueloans.WithNotifier(spy))

	// arrange: the loan was returned early
	title := fixtures.GivenCatalogedTitle(t, ctx, store, 1, issuedAt)
	loan := fixtures.GivenOpenLoan(t, ctx, store, policy, helper.GivenUniqueID(t), title.ID, issuedAt)

	err = store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		returnedAt := issuedAt.Add(24 * time.Hour)
		loan.ReturnedAt = &returnedAt
		loan.Status = circulation.LoanReturned

		return tx.UpdateLoan(ctx, loan)
	})
	require.NoError(t, err)

	clock.Set(loan.DueAt.Add(-47 * time.Hour))

	// act
	err = task.Run(ctx)

	// assert
	assert.NoError(t, err)
	assert.Empty(t, spy.Sent())
}
