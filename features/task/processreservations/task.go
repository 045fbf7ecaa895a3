package processreservations

import (
	"context"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// Task notifies the head of each fulfillable waitlist.
type Task struct {
	store    circulation.LedgerStore
	clock    circulation.Clock
	logger   circulation.Logger
	notifier shell.NotificationChannel
}

// Option configures a Task.
type Option func(*Task)

// WithLogger sets the logger for the task.
func WithLogger(logger circulation.Logger) Option {
	return func(t *Task) {
		t.logger = logger
	}
}

// WithNotifier sets the channel for reservation-ready notices.
func WithNotifier(notifier shell.NotificationChannel) Option {
	return func(t *Task) {
		t.notifier = notifier
	}
}

// NewTask creates the sweep with optional configuration.
func NewTask(store circulation.LedgerStore, clock circulation.Clock, opts ...Option) *Task {
	task := &Task{
		store:  store,
		clock:  clock,
		logger: circulation.NoopLogger{},
	}

	for _, opt := range opts {
		opt(task)
	}

	return task
}

// Name identifies the task in scheduler logs.
func (t *Task) Name() string { return "process-reservations" }

// Run performs one sweep. Idempotent: already-notified heads are excluded
// by the ledger query.
func (t *Task) Run(ctx context.Context) error {
	now := t.clock.Now()

	var notified []circulation.Reservation

	err := t.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		titleIDs, err := tx.TitlesWithPendingReservations(txCtx)
		if err != nil {
			return err
		}

		for _, titleID := range titleIDs {
			head, err := tx.OldestPendingReservation(txCtx, titleID)
			if err != nil {
				return err
			}

			if head.Notified {
				continue
			}

			ts := now
			head.Notified = true
			head.NotifiedAt = &ts

			if err := tx.UpdateReservation(txCtx, head); err != nil {
				return err
			}

			notified = append(notified, head)
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, reservation := range notified {
		shell.FireAndForget(ctx, t.notifier, t.logger, shell.Notification{
			Kind:    shell.NotifyReservationReady,
			UserID:  reservation.UserID,
			TitleID: reservation.TitleID,
			Message: "a copy you reserved is available, please pick it up within the grace window",
			SentAt:  now,
		})
	}

	if len(notified) > 0 {
		t.logger.Info("reservation sweep completed", "reservations_notified", len(notified))
	}

	return nil
}
