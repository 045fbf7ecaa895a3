// Package waivefine implements the Waive a Fine administrative override.
//
// Waiving is unconditional once the actor's role permits it: no payment is
// recorded and a pending or even paid fine ends up WAIVED. Only librarians
// and admins may waive.
package waivefine
