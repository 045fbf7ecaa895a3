package shell

import (
	"time"

	"github.com/shelfwise/circulation-go/circulation"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time, normalized for storage.
func (SystemClock) Now() time.Time {
	return circulation.ToTimestamp(time.Now())
}
