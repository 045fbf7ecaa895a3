package cancelreservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
)

// Command represents the intent of a user to cancel their own reservation.
type Command struct {
	ReservationID uuid.UUID
	UserID        uuid.UUID
	OccurredAt    time.Time
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "CancelReservation"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(reservationID uuid.UUID, userID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ReservationID: reservationID,
		UserID:        userID,
		OccurredAt:    circulation.ToTimestamp(occurredAt),
	}
}
