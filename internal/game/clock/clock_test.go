package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
)

func TestStepClock_Advance(t *testing.T) {
	c := clock.NewStepClock(0.02)
	assert.Equal(t, 0.0, c.Now())
	assert.Equal(t, clock.Tick(1), c.Advance())
	assert.Equal(t, clock.Tick(2), c.Advance())
	assert.InDelta(t, 0.04, c.Now(), 1e-12)
	assert.Equal(t, "#2", c.Tick().String())
}

func TestStepClock_Property_Monotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := clock.NewStepClock(rapid.Float64Range(0.001, 1).Draw(rt, "dt"))
		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		prev := c.Now()
		for i := 0; i < steps; i++ {
			c.Advance()
			now := c.Now()
			assert.Greater(rt, now, prev)
			prev = now
		}
	})
}

func TestManualClock_NeverRewinds(t *testing.T) {
	c := clock.NewManualClock(5)
	c.Set(3)
	assert.Equal(t, 5.0, c.Now())
	c.Advance(-1)
	assert.Equal(t, 5.0, c.Now())
	c.Advance(1.5)
	assert.Equal(t, 6.5, c.Now())
}
