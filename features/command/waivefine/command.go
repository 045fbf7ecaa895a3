package waivefine

import (
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/identity"
)

// Command represents an administrative request to waive a fine.
type Command struct {
	FineID    uuid.UUID
	ActorRole identity.Role
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return "WaiveFine"
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(fineID uuid.UUID, actorRole identity.Role) Command {
	return Command{
		FineID:    fineID,
		ActorRole: actorRole,
	}
}
