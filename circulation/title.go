package circulation

import (
	"time"

	"github.com/google/uuid"
)

// Title is a catalog record for a book, not a physical item. TotalCopies and
// AvailableCopies are the per-title counters the Catalog Ledger maintains;
// AvailableCopies is updated in the same transaction as every copy-state flip.
type Title struct {
	ID              uuid.UUID
	ISBN            string
	Name            string
	Authors         string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

// CheckCounters validates the availability invariant and returns an
// IntegrityError when it does not hold.
func (t Title) CheckCounters() error {
	if t.AvailableCopies < 0 {
		return NewIntegrityError("available_copies_non_negative",
			"title %s has %d available copies", t.ID, t.AvailableCopies)
	}

	if t.AvailableCopies > t.TotalCopies {
		return NewIntegrityError("available_copies_within_total",
			"title %s has %d available of %d total copies", t.ID, t.AvailableCopies, t.TotalCopies)
	}

	return nil
}
