package notifydueloans

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// Task reminds borrowers of loans coming due.
type Task struct {
	store    circulation.LedgerStore
	policy   circulation.Policy
	clock    circulation.Clock
	interval time.Duration
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

// WithNotifier sets the channel for due-soon reminders.
func WithNotifier(notifier shell.NotificationChannel) Option {
	return func(t *Task) {
		t.notifier = notifier
	}
}

// NewTask creates the sweep. The interval is how often the task runs; each
// run covers loans due inside (window − interval, window] from now, so
// consecutive runs never remind the same loan twice.
func NewTask(store circulation.LedgerStore, policy circulation.Policy, clock circulation.Clock, interval time.Duration, opts ...Option) *Task {
	task := &Task{
		store:    store,
		policy:   policy,
		clock:    clock,
		interval: interval,
		logger:   circulation.NoopLogger{},
	}

	for _, opt := range opts {
		opt(task)
	}

	return task
}

// Name identifies the task in scheduler logs.
func (t *Task) Name() string { return "notify-due-loans" }

// Run performs one reminder pass.
func (t *Task) Run(ctx context.Context) error {
	now := t.clock.Now()
	until := now.Add(t.policy.ReminderWindow)

	from := until.Add(-t.interval)
	if from.Before(now) {
		from = now
	}

	var due []circulation.Loan

	err := t.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		loans, err := tx.OpenLoansDueBetween(txCtx, from, until)
		if err != nil {
			return err
		}

		due = loans

		return nil
	})
	if err != nil {
		return err
	}

	for _, loan := range due {
		shell.FireAndForget(ctx, t.notifier, t.logger, shell.Notification{
			Kind:    shell.NotifyDueSoon,
			UserID:  loan.UserID,
			TitleID: loan.TitleID,
			Message: fmt.Sprintf("your loan is due on %s, please return it on time to avoid fines", loan.DueAt.Format("2006-01-02")),
			SentAt:  now,
		})
	}

	if len(due) > 0 {
		t.logger.Info("due-soon reminders sent", "loans_reminded", len(due))
	}

	return nil
}
