package waivefine

import (
	"context"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/identity"
	"github.com/shelfwise/circulation-go/shell"
)

// CommandHandler waives a fine as an administrative override.
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

// Handle waives the fine unconditionally once the actor's role permits it.
// Waiving an already-waived fine reports an idempotent result.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	if !command.ActorRole.CanWaiveFines() {
		return shell.HandlerResult{}, identity.ErrPermissionDenied
	}

	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := h.executeCommand(retryCtx, command)
		isIdempotent = idempotent

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	if isIdempotent {
		return shell.NewIdempotentResult(retryMetrics), nil
	}

	h.logger.Info("fine waived", "fine_id", command.FineID.String())

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	var isIdempotent bool

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		fine, err := tx.FineByID(txCtx, command.FineID)
		if err != nil {
			return err
		}

		if fine.Status == circulation.FineWaived {
			isIdempotent = true
			return nil
		}

		fine.Status = circulation.FineWaived

		return tx.UpdateFine(txCtx, fine)
	})

	return isIdempotent, err
}
