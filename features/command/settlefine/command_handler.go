package settlefine

import (
	"context"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// CommandHandler marks a fine as paid once external payment is confirmed.
type CommandHandler struct {
	store        circulation.LedgerStore
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
func NewCommandHandler(store circulation.LedgerStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:  store,
		logger: circulation.NoopLogger{},
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle settles the fine. Fails with ErrAlreadyPaid when the fine was
// already paid or waived.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Fine, shell.HandlerResult, error) {
	var fine circulation.Fine

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		settled, execErr := h.executeCommand(retryCtx, command)
		fine = settled

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Fine{}, shell.NewErrorResult(retryMetrics), err
	}

	h.logger.Info("fine settled",
		"fine_id", fine.ID.String(),
		"user_id", fine.UserID.String(),
		"amount", fine.Amount.StringFixed(2),
	)

	return fine, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Fine, error) {
	var fine circulation.Fine

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		loaded, err := tx.FineByID(txCtx, command.FineID)
		if err != nil {
			return err
		}

		if loaded.IsSettled() {
			return circulation.ErrAlreadyPaid
		}

		now := command.OccurredAt
		loaded.Status = circulation.FinePaid
		loaded.PaidAt = &now

		if err := tx.UpdateFine(txCtx, loaded); err != nil {
			return err
		}

		fine = loaded

		return nil
	})
	if err != nil {
		return circulation.Fine{}, err
	}

	return fine, nil
}
