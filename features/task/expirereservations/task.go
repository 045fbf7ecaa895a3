package expirereservations

import (
	"context"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// Task cancels stale notified reservations and advances their waitlists.
type Task struct {
	store    circulation.LedgerStore
	policy   circulation.Policy
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

// WithNotifier sets the channel for reservation-ready notices to the next
// user in line.
func WithNotifier(notifier shell.NotificationChannel) Option {
	return func(t *Task) {
		t.notifier = notifier
	}
}

// NewTask creates the sweep with optional configuration.
func NewTask(store circulation.LedgerStore, policy circulation.Policy, clock circulation.Clock, opts ...Option) *Task {
	task := &Task{
		store:  store,
		policy: policy,
		clock:  clock,
		logger: circulation.NoopLogger{},
	}

	for _, opt := range opts {
		opt(task)
	}

	return task
}

// Name identifies the task in scheduler logs.
func (t *Task) Name() string { return "expire-reservations" }

// Run performs one sweep: every PENDING reservation notified before
// now − grace is cancelled, then the same title's queue advances to the
// next waiting user.
func (t *Task) Run(ctx context.Context) error {
	now := t.clock.Now()
	cutoff := now.Add(-t.policy.ReservationGrace)

	var advanced []circulation.Reservation

	expired := 0

	err := t.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		stale, err := tx.NotifiedPendingReservations(txCtx, cutoff)
		if err != nil {
			return err
		}

		for _, reservation := range stale {
			if !reservation.StaleAt(now, t.policy.ReservationGrace) {
				continue
			}

			reservation.Status = circulation.ReservationCancelled

			if err := tx.UpdateReservation(txCtx, reservation); err != nil {
				return err
			}

			expired++

			next, hasNext, err := circulation.FulfillNextReservation(txCtx, tx, reservation.TitleID, now)
			if err != nil {
				return err
			}

			if hasNext {
				advanced = append(advanced, next)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, reservation := range advanced {
		shell.FireAndForget(ctx, t.notifier, t.logger, shell.Notification{
			Kind:    shell.NotifyReservationReady,
			UserID:  reservation.UserID,
			TitleID: reservation.TitleID,
			Message: "a copy you reserved is ready for pickup",
			SentAt:  now,
		})
	}

	if expired > 0 {
		t.logger.Info("reservation expiry completed",
			"reservations_expired", expired,
			"waitlists_advanced", len(advanced),
		)
	}

	return nil
}
