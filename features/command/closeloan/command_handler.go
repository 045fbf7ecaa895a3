package closeloan

import (
	"context"
	"fmt"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// CommandHandler orchestrates the return workflow. The close, the copy
// release, the fine assessment, and the reservation fulfillment form one
// atomic transaction; a concurrent duplicate return fails with
// ErrAlreadyReturned instead of double-releasing the copy.
type CommandHandler struct {
	store        circulation.LedgerStore
	policy       circulation.Policy
	logger       circulation.Logger
	notifier     shell.NotificationChannel
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithLogger sets the logger for the handler.
func WithLogger(logger circulation.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// WithNotifier sets the channel for reservation-ready and fine notifications.
func WithNotifier(notifier shell.NotificationChannel) Option {
	return func(h *CommandHandler) {
		h.notifier = notifier
	}
}

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store circulation.LedgerStore, policy circulation.Policy, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:  store,
		policy: policy,
		logger: circulation.NoopLogger{},
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// outcome carries what happened inside the transaction out to the
// post-commit notification phase.
type outcome struct {
	loan         circulation.Loan
	fine         circulation.Fine
	fineAssessed bool
	fulfilled    circulation.Reservation
	hasFulfilled bool
}

// Handle executes the return workflow and returns the closed loan.
// Fails with ErrAlreadyReturned when the loan is already closed.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, shell.HandlerResult, error) {
	var result outcome

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		executed, execErr := h.executeCommand(retryCtx, command)
		result = executed

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Loan{}, shell.NewErrorResult(retryMetrics), err
	}

	h.notifyAfterCommit(ctx, result)

	h.logger.Info("loan closed",
		"loan_id", result.loan.ID.String(),
		"user_id", result.loan.UserID.String(),
		"fine_assessed", result.fineAssessed,
	)

	return result.loan, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (outcome, error) {
	var result outcome

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		loan, err := tx.LoanByID(txCtx, command.LoanID)
		if err != nil {
			return err
		}

		if !loan.IsOpen() {
			return circulation.ErrAlreadyReturned
		}

		now := command.OccurredAt
		loan.ReturnedAt = &now
		loan.Status = circulation.LoanReturned

		if err := tx.UpdateLoan(txCtx, loan); err != nil {
			return err
		}

		if err := tx.ReleaseCopy(txCtx, loan.CopyID); err != nil {
			return err
		}

		if now.After(loan.DueAt) {
			fine, assessed, err := circulation.AssessFine(txCtx, tx, h.policy, loan, now)
			if err != nil {
				return err
			}

			result.fine = fine
			result.fineAssessed = assessed
		}

		fulfilled, hasFulfilled, err := circulation.FulfillNextReservation(txCtx, tx, loan.TitleID, now)
		if err != nil {
			return err
		}

		result.loan = loan
		result.fulfilled = fulfilled
		result.hasFulfilled = hasFulfilled

		return nil
	})
	if err != nil {
		return outcome{}, err
	}

	return result, nil
}

// notifyAfterCommit delivers fire-and-forget messages for whatever the
// committed transaction produced. Failures are logged, never propagated.
func (h CommandHandler) notifyAfterCommit(ctx context.Context, result outcome) {
	if h.notifier == nil {
		return
	}

	if result.fineAssessed {
		shell.FireAndForget(ctx, h.notifier, h.logger, shell.Notification{
			Kind:    shell.NotifyFineAssessed,
			UserID:  result.fine.UserID,
			TitleID: result.loan.TitleID,
			Message: fmt.Sprintf("your return was late, a fine of %s is due by %s",
				result.fine.Amount.StringFixed(2), result.fine.DueAt.Format("2006-01-02")),
			SentAt: result.fine.AssessedAt,
		})
	}

	if result.hasFulfilled {
		shell.FireAndForget(ctx, h.notifier, h.logger, shell.Notification{
			Kind:    shell.NotifyReservationReady,
			UserID:  result.fulfilled.UserID,
			TitleID: result.fulfilled.TitleID,
			Message: "a copy you reserved is ready for pickup",
			SentAt:  *result.fulfilled.NotifiedAt,
		})
	}
}
