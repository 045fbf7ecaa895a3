// Package placereservation implements the Join the Waitlist use case.
//
// Reservations exist only for fully-checked-out titles: a request for a title
// with a free copy is rejected so the user borrows instead. A user may hold
// at most one pending reservation per title and may not reserve a title they
// currently have on loan.
package placereservation
