package placereservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/shell"
)

// CommandHandler orchestrates the waitlist-join workflow inside one ledger
// transaction.
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

// Handle executes the waitlist-join workflow and returns the new reservation.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Reservation, shell.HandlerResult, error) {
	var reservation circulation.Reservation

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		placed, execErr := h.executeCommand(retryCtx, command)
		reservation = placed

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Reservation{}, shell.NewErrorResult(retryMetrics), err
	}

	h.logger.Info("reservation placed",
		"reservation_id", reservation.ID.String(),
		"user_id", command.UserID.String(),
		"title_id", command.TitleID.String(),
	)

	return reservation, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Reservation, error) {
	var reservation circulation.Reservation

	err := h.store.WithinTx(ctx, func(txCtx context.Context, tx circulation.Ledger) error {
		s, err := project(txCtx, tx, command)
		if err != nil {
			return err
		}

		if err := decide(s); err != nil {
			return err
		}

		reservation = circulation.Reservation{
			ID:          uuid.New(),
			UserID:      command.UserID,
			TitleID:     command.TitleID,
			RequestedAt: command.OccurredAt,
			Status:      circulation.ReservationPending,
		}

		return tx.InsertReservation(txCtx, reservation)
	})
	if err != nil {
		return circulation.Reservation{}, err
	}

	return reservation, nil
}

func project(ctx context.Context, tx circulation.Ledger, command Command) (state, error) {
	title, err := tx.TitleByID(ctx, command.TitleID)
	if err != nil {
		return state{}, err
	}

	hasPending, err := tx.HasPendingReservation(ctx, command.UserID, command.TitleID)
	if err != nil {
		return state{}, err
	}

	holdsLoan, err := tx.HoldsOpenLoan(ctx, command.UserID, command.TitleID)
	if err != nil {
		return state{}, err
	}

	return state{
		availableCopies:       title.AvailableCopies,
		hasPendingReservation: hasPending,
		holdsOpenLoan:         holdsLoan,
	}, nil
}
