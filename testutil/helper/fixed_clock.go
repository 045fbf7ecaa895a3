package helper

import (
	"sync"
	"time"

	"github.com/shelfwise/circulation-go/circulation"
)

// FixedClock returns a preset time and can be advanced from the test.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at the given time.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: circulation.ToTimestamp(now)}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = circulation.ToTimestamp(c.now.Add(d))
}

// Set moves the clock to an absolute time.
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = circulation.ToTimestamp(now)
}
