// Package notifydueloans implements the due-soon reminder sweep.
//
// Open ACTIVE loans whose due time falls inside the reminder window get a
// fire-and-forget reminder. The sweep mutates nothing; when run daily with
// the default 48-hour window each loan is reminded exactly once.
package notifydueloans
