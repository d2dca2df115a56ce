// Package clock provides the monotonic simulation time source that every
// combat deadline is compared against.
package clock

import (
	"fmt"
	"sync"
)

// Clock reports the current simulation time in seconds.
type Clock interface {
	Now() float64
}

// Tick is the ordinal of one fixed simulation step.
type Tick uint64

// String returns the tick as "#N".
func (t Tick) String() string { return fmt.Sprintf("#%d", uint64(t)) }

// StepClock advances by a fixed delta once per simulation step.
//
// Invariant: Now() == float64(Tick()) * Delta().
type StepClock struct {
	mu   sync.Mutex
	tick Tick
	dt   float64
}

// NewStepClock creates a StepClock at time zero.
//
// Precondition: dt > 0.
// Postcondition: Returns a non-nil *StepClock with Tick() == 0.
func NewStepClock(dt float64) *StepClock {
	return &StepClock{dt: dt}
}

// Now returns the elapsed simulation time.
func (c *StepClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.tick) * c.dt
}

// Tick returns the number of completed steps.
func (c *StepClock) Tick() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Delta returns the fixed step length in seconds.
func (c *StepClock) Delta() float64 { return c.dt }

// Advance moves the clock forward one step and returns the new tick.
func (c *StepClock) Advance() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	return c.tick
}

// ManualClock is a Clock whose time is set explicitly. It is intended for tests.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

// NewManualClock returns a ManualClock at time start.
func NewManualClock(start float64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current time.
func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t. Earlier times are ignored.
func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.now {
		c.now = t
	}
}

// Advance moves the clock forward by d seconds.
//
// Precondition: d >= 0.
func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += d
	}
}
