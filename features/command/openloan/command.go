package openloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
)

// Command represents the intent of a user to borrow one copy of a title.
type Command struct {
	UserID     uuid.UUID
	TitleID    uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "OpenLoan"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(userID uuid.UUID, titleID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		UserID:     userID,
		TitleID:    titleID,
		OccurredAt: circulation.ToTimestamp(occurredAt),
	}
}
