package stance

import "math"

const (
	// DefaultFlickThreshold is the accumulated pointer travel that commits a guard.
	DefaultFlickThreshold = 0.5
	// DefaultFlickCooldown is the minimum time between two committed switches.
	DefaultFlickCooldown = 0.12
)

// FlickSelector turns pointer deltas, accumulated while the guard-select
// control is held, into guard changes for a player combatant.
//
// Invariant: the accumulator is reset whenever the control is released or a
// guard is committed.
type FlickSelector struct {
	Threshold float64
	Cooldown  float64

	accX, accY float64
	held       bool
	lastSwitch float64
	switched   bool
}

// NewFlickSelector returns a selector using the default threshold and cooldown.
func NewFlickSelector() *FlickSelector {
	return &FlickSelector{Threshold: DefaultFlickThreshold, Cooldown: DefaultFlickCooldown}
}

// Release resets the accumulator when the guard-select control is let go.
func (f *FlickSelector) Release() {
	f.held = false
	f.accX, f.accY = 0, 0
}

// Feed accumulates one pointer delta observed at time now while the control
// is held. It returns the committed guard and true when the flick crosses the
// threshold outside the cooldown.
func (f *FlickSelector) Feed(now, dx, dy float64) (Guard, bool) {
	if !f.held {
		f.held = true
		f.accX, f.accY = 0, 0
	}
	f.accX += dx
	f.accY += dy
	if math.Hypot(f.accX, f.accY) < f.Threshold {
		return GuardNone, false
	}
	if f.switched && now-f.lastSwitch < f.Cooldown {
		return GuardNone, false
	}
	g := flickGuard(f.accX, f.accY)
	f.accX, f.accY = 0, 0
	f.lastSwitch = now
	f.switched = true
	return g, true
}

func flickGuard(x, y float64) Guard {
	if math.Abs(x) >= math.Abs(y) {
		if x >= 0 {
			return Right
		}
		return Left
	}
	return High
}
