package testutil

import (
	"sync"
	"time"
)

// Clock is a deterministic time source for tests.
//
// Audit timestamps come from an injectable now-func; tests plug in
// Clock.Now to get stable, strictly increasing wall-clock values.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock frozen at start. Each call to Now advances the
// clock by step before returning, so consecutive timestamps are distinct.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, step: step}
}

// Now advances the clock by one step and returns the new time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Current returns the current time without advancing.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set repositions the clock. Used to simulate large jumps, e.g. backup
// staleness horizons.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
