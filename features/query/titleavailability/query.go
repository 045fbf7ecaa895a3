// Package titleavailability implements the read-only availability query for
// one title.
package titleavailability

import (
	"github.com/google/uuid"
)

// Availability is the query result: the title's counters at read time.
type Availability struct {
	TitleID         uuid.UUID
	Name            string
	TotalCopies     int
	AvailableCopies int
}

// Query represents the intent to read a title's availability.
type Query struct {
	TitleID uuid.UUID
}

// BuildQuery creates a new Query with the provided title ID.
func BuildQuery(titleID uuid.UUID) Query {
	return Query{TitleID: titleID}
}
