package settlefine

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
)

// Command records that an external payment for the fine was confirmed.
type Command struct {
	FineID     uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "SettleFine"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(fineID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		FineID:     fineID,
		OccurredAt: circulation.ToTimestamp(occurredAt),
	}
}
