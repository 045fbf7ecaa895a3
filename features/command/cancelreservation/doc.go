// Package cancelreservation implements the Leave the Waitlist use case.
//
// A user may cancel their own pending reservation. Cancelling one that was
// already cancelled is an idempotent no-op; a fulfilled reservation can no
// longer be cancelled.
package cancelreservation
