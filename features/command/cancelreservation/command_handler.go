package cancelreservation

import (
	"context"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// CommandHandler cancels a user's own pending reservation.
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

// Handle cancels the reservation. Cancelling an already-cancelled reservation
// reports an idempotent result; a fulfilled one fails with
// ErrReservationNotPending, and a reservation owned by a different user is
// not visible to the caller (ErrNotFound).
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
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

	h.logger.Info("reservation cancelled",
		"reservation_id", command.ReservationID.String(),
		"user_id", command.UserID.String(),
	)

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	var isIdempotent bool

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		reservation, err := tx.ReservationByID(txCtx, command.ReservationID)
		if err != nil {
			return err
		}

		if reservation.UserID != command.UserID {
			return circulation.ErrNotFound
		}

		switch reservation.Status {
		case circulation.ReservationCancelled:
			isIdempotent = true
			return nil
		case circulation.ReservationFulfilled:
			return circulation.ErrReservationNotPending
		case circulation.ReservationPending:
			// proceed
		}

		reservation.Status = circulation.ReservationCancelled

		return tx.UpdateReservation(txCtx, reservation)
	})

	return isIdempotent, err
}
