// Package counters provides small concurrency-safe counters.
package counters

import (
	"go.uber.org/atomic"
)

// StrictMonotonousCounter is a counter that can only strictly
// increase. Used to track high-water marks (e.g. the newest vote
// timestamp seen on a bus) under concurrent writers.
type StrictMonotonousCounter struct {
	value atomic.Uint64
}

// NewMonotonousCounter creates a new counter with the given initial
// value.
func NewMonotonousCounter(initial uint64) *StrictMonotonousCounter {
	c := &StrictMonotonousCounter{}
	c.value.Store(initial)
	return c
}

// Set updates the counter, ensuring it strictly increases. Returns
// true if the update was applied, false if the stored value is equal
// or larger.
func (c *StrictMonotonousCounter) Set(processing uint64) bool {
	for {
		current := c.value.Load()
		if processing <= current {
			return false
		}
		if c.value.CompareAndSwap(current, processing) {
			return true
		}
	}
}

// Value reads the current value.
func (c *StrictMonotonousCounter) Value() uint64 {
	return c.value.Load()
}
