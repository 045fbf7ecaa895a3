// Package expirereservations implements the periodic pickup-grace expiry
// sweep.
//
// A reservation whose holder was notified but never borrowed within the
// grace window is cancelled, and the next waiting user for the same title is
// fulfilled. Idempotent: a cancelled reservation never matches the stale
// query again.
package expirereservations
