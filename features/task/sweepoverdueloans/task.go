package sweepoverdueloans

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// Task marks overdue loans and assesses their fines.
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

// WithNotifier sets the channel for overdue notices.
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
func (t *Task) Name() string { return "sweep-overdue-loans" }

// Run performs one sweep. Each overdue loan is handled in its own
// transaction so one bad row cannot stall the rest of the sweep.
func (t *Task) Run(ctx context.Context) error {
	now := t.clock.Now()

	var candidates []circulation.Loan

	err := t.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		loans, err := tx.ActiveLoansPastDue(txCtx, now)
		if err != nil {
			return err
		}

		candidates = loans

		return nil
	})
	if err != nil {
		return err
	}

	swept := 0

	for _, candidate := range candidates {
		overdue, err := t.sweepOne(ctx, candidate.ID, now)
		if err != nil {
			t.logger.Error("overdue sweep failed for loan",
				"loan_id", candidate.ID.String(),
				"error", err.Error(),
			)

			continue
		}

		if overdue {
			swept++
		}
	}

	if swept > 0 {
		t.logger.Info("overdue sweep completed", "loans_marked", swept)
	}

	return nil
}

// sweepOne re-reads the loan inside its own transaction: a return that
// committed between the scan and this transaction wins, and the loan is
// skipped.
func (t *Task) sweepOne(ctx context.Context, loanID uuid.UUID, now time.Time) (bool, error) {
	var (
		marked bool
		fine   circulation.Fine
		fined  bool
		loan   circulation.Loan
	)

	err := t.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		loaded, err := tx.LoanByID(txCtx, loanID)
		if err != nil {
			return err
		}

		if !loaded.IsOverdueAt(now) {
			return nil
		}

		if loaded.Status != circulation.LoanOverdue {
			loaded.Status = circulation.LoanOverdue
			if err := tx.UpdateLoan(txCtx, loaded); err != nil {
				return err
			}
		}

		assessed, didAssess, err := circulation.AssessFine(txCtx, tx, t.policy, loaded, now)
		if err != nil {
			return err
		}

		marked = true
		loan = loaded
		fine = assessed
		fined = didAssess

		return nil
	})
	if err != nil {
		return false, err
	}

	if fined && t.notifier != nil {
		shell.FireAndForget(ctx, t.notifier, t.logger, shell.Notification{
			Kind:    shell.NotifyOverdue,
			UserID:  loan.UserID,
			TitleID: loan.TitleID,
			Message: fmt.Sprintf("your loan is overdue, a fine of %s has been assessed", fine.Amount.StringFixed(2)),
			SentAt:  now,
		})
	}

	return marked, nil
}
