package inventory

import (
	"sync"
	"time"
)

// Clock supplies timestamps for ledger writes.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock hands out strictly increasing UTC timestamps truncated to
// microseconds, the resolution PostgreSQL keeps for timestamptz.
type SystemClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewSystemClock returns a clock backed by time.Now.
func NewSystemClock() *SystemClock {
	return &SystemClock{now: time.Now}
}

// Now implements Clock.
func (c *SystemClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	source := c.now
	if source == nil {
		source = time.Now
	}
	t := source().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
