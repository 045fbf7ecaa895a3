// Package closeloan implements the Return a Copy use case.
//
// Closing a loan records the return time, releases the copy back to the
// catalog, assesses a fine when the return is late, and fulfills the oldest
// pending reservation for the title. All of that happens in one ledger
// transaction; notifications fire after the commit and never roll it back.
package closeloan
