package openloan

import (
	"context"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// CommandHandler orchestrates the borrow workflow: project the borrower's
// standing, decide, then reserve a copy and open the loan, all inside one
// ledger transaction. Serialization conflicts are retried with backoff.
type CommandHandler struct {
	store        circulation.LedgerStore
	policy       circulation.Policy
	logger       circulation.Logger
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

// Handle executes the borrow workflow and returns the opened loan.
// Precondition violations come back as the circulation sentinel errors.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, shell.HandlerResult, error) {
	var loan circulation.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		opened, execErr := h.executeCommand(retryCtx, command)
		loan = opened

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Loan{}, shell.NewErrorResult(retryMetrics), err
	}

	h.logger.Info("loan opened",
		"loan_id", loan.ID.String(),
		"user_id", command.UserID.String(),
		"title_id", command.TitleID.String(),
		"due_at", loan.DueAt,
	)

	return loan, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		s, err := project(txCtx, tx, command)
		if err != nil {
			return err
		}

		if err := decide(s, h.policy); err != nil {
			return err
		}

		// The ledger re-checks availability atomically; the decide check
		// above exists to fail with the right violation before touching
		// any copy row.
		reserved, err := tx.ReserveAvailableCopy(txCtx, command.TitleID)
		if err != nil {
			return err
		}

		loan = circulation.Loan{
			ID:       uuid.New(),
			UserID:   command.UserID,
			TitleID:  command.TitleID,
			CopyID:   reserved.ID,
			IssuedAt: command.OccurredAt,
			DueAt:    circulation.ToTimestamp(h.policy.DueTime(command.OccurredAt)),
			Status:   circulation.LoanActive,
		}

		return tx.InsertLoan(txCtx, loan)
	})
	if err != nil {
		return circulation.Loan{}, err
	}

	return loan, nil
}

func project(ctx context.Context, tx circulation.Ledger, command Command) (state, error) {
	title, err := tx.TitleByID(ctx, command.TitleID)
	if err != nil {
		return state{}, err
	}

	hasOverdue, err := tx.HasOverdueLoan(ctx, command.UserID)
	if err != nil {
		return state{}, err
	}

	openCount, err := tx.OpenLoanCount(ctx, command.UserID)
	if err != nil {
		return state{}, err
	}

	return state{
		availableCopies: title.AvailableCopies,
		hasOverdueLoan:  hasOverdue,
		openLoanCount:   openCount,
	}, nil
}
