// Package shell provides the infrastructure surrounding the circulation core:
// retry with exponential backoff for serialization conflicts, handler result
// reporting, the fire-and-forget notification channel, the periodic task
// scheduler, and clock/logger adapters.
//
// Nothing in this package contains lifecycle rules. The core decides; the
// shell wires decisions to storage, time, and the outside world.
package shell
