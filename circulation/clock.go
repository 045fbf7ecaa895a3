package circulation

import (
	"time"
)

// Clock is the source of current time for all lifecycle operations.
// It is injected so tests can control time deterministically.
type Clock interface {
	Now() time.Time
}

// ToTimestamp normalizes a time for storage: UTC, microsecond precision.
func ToTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
