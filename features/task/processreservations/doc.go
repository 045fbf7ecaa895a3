// Package processreservations implements the periodic waitlist notification
// sweep.
//
// Titles that regained availability without going through a return (new
// copies added, an expiry advanced the queue, a race left the head
// unnotified) get the oldest pending reservation notified that a copy is
// being held. The reservation stays PENDING until the user borrows or the
// pickup grace expires; only the notified flag and timestamp change, which
// is what the expiry sweep later keys on.
package processreservations
