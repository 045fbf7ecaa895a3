package closeloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
)

// Command represents the intent to return a borrowed copy.
type Command struct {
	LoanID     uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "CloseLoan"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		OccurredAt: circulation.ToTimestamp(occurredAt),
	}
}
