// Package sweepoverdueloans implements the periodic overdue detection sweep.
//
// Every ACTIVE loan past its due time transitions to OVERDUE and, if no fine
// exists for it yet, gets one assessed. The sweep is idempotent: re-running
// it finds the loans already OVERDUE and the fines already present, so
// nothing is duplicated. It is safe to run concurrently with user-triggered
// returns.
package sweepoverdueloans
