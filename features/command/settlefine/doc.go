// Package settlefine implements the Pay a Fine use case.
//
// The handler records the outcome of an external payment: it never talks to
// a payment gateway itself. A fine that was already paid or waived fails
// with ErrAlreadyPaid.
package settlefine
