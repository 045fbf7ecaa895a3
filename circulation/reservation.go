package circulation

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationFulfilled ReservationStatus = "FULFILLED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation is a waitlist entry for a fully-checked-out title. Pending
// reservations are fulfilled strictly in RequestedAt order, tie-broken by ID.
// At most one pending reservation may exist per (user, title) pair.
//
// Fulfillment marks the reservation and notifies the user; it never creates
// a loan itself. The subsequent borrow goes through the loan lifecycle like
// any other.
type Reservation struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TitleID     uuid.UUID
	RequestedAt time.Time
	Status      ReservationStatus
	Notified    bool
	NotifiedAt  *time.Time
	FulfilledAt *time.Time
}

// StaleAt reports whether a notified, still-pending reservation has outlived
// the pickup grace window at the given time.
func (r Reservation) StaleAt(now time.Time, grace time.Duration) bool {
	if r.Status != ReservationPending || !r.Notified || r.NotifiedAt == nil {
		return false
	}

	return now.Sub(*r.NotifiedAt) > grace
}
