// Package testutil provides deterministic clocks and entity builders shared
// by the store, backup, and export tests.
package testutil

import (
	"sync"
	"time"
)

// Clock provides deterministic, monotonically increasing timestamps.
// Each call to Now advances by one step, so successive mutations get
// distinct updated_at stamps without sleeping.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewClock returns a clock initialized to a fixed UTC start time.
func NewClock() *Clock {
	return &Clock{
		current: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		step:    time.Second,
	}
}

// Now returns the next tick.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(c.step)

	return c.current
}

// Peek returns the current tick without advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// Advance jumps the clock forward, e.g. past a backup interval.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
}
