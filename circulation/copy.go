package circulation

import (
	"time"

	"github.com/google/uuid"
)

// CopyStatus is the binary lending state of a physical copy.
type CopyStatus string

const (
	CopyAvailable CopyStatus = "AVAILABLE"
	CopyOnLoan    CopyStatus = "ON_LOAN"
)

// CopyCondition tags the physical condition of a copy.
type CopyCondition string

const (
	ConditionNew  CopyCondition = "NEW"
	ConditionGood CopyCondition = "GOOD"
	ConditionFair CopyCondition = "FAIR"
	ConditionPoor CopyCondition = "POOR"
)

// Copy is one physical lending unit of a Title. It belongs to exactly one
// title for its lifetime; CopyNumber is unique within the title.
type Copy struct {
	ID         uuid.UUID
	TitleID    uuid.UUID
	CopyNumber int
	Condition  CopyCondition
	Status     CopyStatus
	AcquiredAt time.Time
}
