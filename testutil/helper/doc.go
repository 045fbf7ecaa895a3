// Package helper provides shared test helpers: deterministic IDs and times,
// an adjustable clock, and a notification spy.
package helper
