package fixtures

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/testutil/helper"
)

// GivenCatalogedTitle inserts a title with the given number of available
// copies and returns it.
func GivenCatalogedTitle(
	t testing.TB,
	ctx context.Context,
	store circulation.LedgerStore,
	copies int,
	now time.Time,
) circulation.Title {

	titleID := helper.GivenUniqueID(t)

	title := circulation.Title{
		ID: titleID,
		// derived from the unique title ID so fixture titles never collide
		// on the isbn unique constraint
		ISBN:            fmt.Sprintf("978-%s", titleID),
		Name:            "The Go Programming Language",
		Authors:         "Alan A. A. Donovan, Brian W. Kernighan",
		TotalCopies:     copies,
		AvailableCopies: copies,
		CreatedAt:       circulation.ToTimestamp(now),
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		if err := tx.InsertTitle(ctx, circulation.Title{
			ID:        title.ID,
			ISBN:      title.ISBN,
			Name:      title.Name,
			Authors:   title.Authors,
			CreatedAt: title.CreatedAt,
		}); err != nil {
			return err
		}

		for i := 1; i <= copies; i++ {
			copyFixture := circulation.Copy{
				ID:         helper.GivenUniqueID(t),
				TitleID:    title.ID,
				CopyNumber: i,
				Condition:  circulation.ConditionGood,
				Status:     circulation.CopyAvailable,
				AcquiredAt: circulation.ToTimestamp(now),
			}

			if err := tx.InsertCopy(ctx, copyFixture); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err, "error in arranging test data")

	return title
}

// GivenOpenLoan reserves a copy of the title and inserts an ACTIVE loan for
// the user, due per the policy's loan period.
func GivenOpenLoan(
	t testing.TB,
	ctx context.Context,
	store circulation.LedgerStore,
	policy circulation.Policy,
	userID uuid.UUID,
	titleID uuid.UUID,
	issuedAt time.Time,
) circulation.Loan {

	loan := circulation.Loan{
		ID:       helper.GivenUniqueID(t),
		UserID:   userID,
		TitleID:  titleID,
		IssuedAt: circulation.ToTimestamp(issuedAt),
		DueAt:    policy.DueTime(issuedAt),
		Status:   circulation.LoanActive,
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		reserved, err := tx.ReserveAvailableCopy(ctx, titleID)
		if err != nil {
			return err
		}

		loan.CopyID = reserved.ID

		return tx.InsertLoan(ctx, loan)
	})
	require.NoError(t, err, "error in arranging test data")

	return loan
}

// GivenPendingReservation inserts a PENDING reservation for the user.
func GivenPendingReservation(
	t testing.TB,
	ctx context.Context,
	store circulation.LedgerStore,
	userID uuid.UUID,
	titleID uuid.UUID,
	requestedAt time.Time,
) circulation.Reservation {

	reservation := circulation.Reservation{
		ID:          helper.GivenUniqueID(t),
		UserID:      userID,
		TitleID:     titleID,
		RequestedAt: circulation.ToTimestamp(requestedAt),
		Status:      circulation.ReservationPending,
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		return tx.InsertReservation(ctx, reservation)
	})
	require.NoError(t, err, "error in arranging test data")

	return reservation
}

// GivenNotifiedReservation inserts a PENDING reservation whose pickup
// notification already went out at notifiedAt.
func GivenNotifiedReservation(
	t testing.TB,
	ctx context.Context,
	store circulation.LedgerStore,
	userID uuid.UUID,
	titleID uuid.UUID,
	requestedAt time.Time,
	notifiedAt time.Time,
) circulation.Reservation {

	ts := circulation.ToTimestamp(notifiedAt)
	reservation := circulation.Reservation{
		ID:          helper.GivenUniqueID(t),
		UserID:      userID,
		TitleID:     titleID,
		RequestedAt: circulation.ToTimestamp(requestedAt),
		Status:      circulation.ReservationPending,
		Notified:    true,
		NotifiedAt:  &ts,
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		return tx.InsertReservation(ctx, reservation)
	})
	require.NoError(t, err, "error in arranging test data")

	return reservation
}

// GivenAssessedFine inserts a PENDING fine for the loan.
func GivenAssessedFine(
	t testing.TB,
	ctx context.Context,
	store circulation.LedgerStore,
	policy circulation.Policy,
	loan circulation.Loan,
	assessedAt time.Time,
) circulation.Fine {

	fine := circulation.Fine{
		ID:         helper.GivenUniqueID(t),
		UserID:     loan.UserID,
		LoanID:     loan.ID,
		Amount:     policy.FineAmount(loan.DueAt, assessedAt),
		Reason:     fmt.Sprintf("book overdue by %d days", policy.DaysOverdue(loan.DueAt, assessedAt)),
		Status:     circulation.FinePending,
		AssessedAt: circulation.ToTimestamp(assessedAt),
		DueAt:      circulation.ToTimestamp(assessedAt.Add(policy.FineDuePeriod)),
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx circulation.Ledger) error {
		return tx.InsertFine(ctx, fine)
	})
	require.NoError(t, err, "error in arranging test data")

	return fine
}
