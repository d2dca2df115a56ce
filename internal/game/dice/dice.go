// Package dice provides the randomness abstraction used by combat AI:
// uniform draws for guard selection, hold times and attack cooldowns.
package dice

// Source is the randomness provider for combat decisions.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Float64 returns a uniformly distributed value in [0, 1).
	Float64() float64
}

// Range draws a value uniformly from [lo, hi).
//
// Postcondition: returns lo when hi <= lo; otherwise lo <= result < hi.
func Range(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	v := lo + src.Float64()*(hi-lo)
	if v >= hi {
		// Guard against rounding pushing a draw onto the open bound.
		return lo
	}
	return v
}

// Fixed is a Source that replays Values in order and then repeats the last
// one. It is intended for deterministic tests and scripted encounters.
type Fixed struct {
	Values []float64
	i      int
}

// Float64 returns the next scripted value.
//
// Precondition: len(f.Values) > 0.
func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		panic("dice: Fixed has no values")
	}
	if f.i >= len(f.Values) {
		return f.Values[len(f.Values)-1]
	}
	v := f.Values[f.i]
	f.i++
	return v
}
