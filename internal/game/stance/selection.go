package stance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/guardbreak/internal/game/dice"
)

// maxRedraws bounds the attempts to draw a guard different from the current one.
const maxRedraws = 10

// Weights biases weighted-random guard selection.
type Weights struct {
	Left  float64 `yaml:"left" mapstructure:"left"`
	High  float64 `yaml:"high" mapstructure:"high"`
	Right float64 `yaml:"right" mapstructure:"right"`
}

// EvenWeights returns equal weight for every guard.
func EvenWeights() Weights { return Weights{Left: 1, High: 1, Right: 1} }

// Total returns the sum of all weights.
func (w Weights) Total() float64 { return w.Left + w.High + w.Right }

// Validate reports every weight violation in a single error.
//
// Postcondition: returns nil iff all weights are non-negative and the total is positive.
func (w Weights) Validate() error {
	var errs []string
	if w.Left < 0 {
		errs = append(errs, fmt.Sprintf("left weight must be >= 0, got %g", w.Left))
	}
	if w.High < 0 {
		errs = append(errs, fmt.Sprintf("high weight must be >= 0, got %g", w.High))
	}
	if w.Right < 0 {
		errs = append(errs, fmt.Sprintf("right weight must be >= 0, got %g", w.Right))
	}
	if len(errs) == 0 && w.Total() <= 0 {
		errs = append(errs, "guard weights must sum to a positive total")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// WeightedRandomGuard draws r uniformly from [0, w.Total()) and maps the
// cumulative bands Left, High, Right in that order.
//
// Precondition: src must be non-nil.
// Postcondition: a guard whose weight is zero is never returned unless every
// weight is zero, in which case Right is returned.
func WeightedRandomGuard(w Weights, src dice.Source) Guard {
	r := dice.Range(src, 0, w.Total())
	if r < w.Left {
		return Left
	}
	if r < w.Left+w.High {
		return High
	}
	return Right
}

// NextInSequence cycles Left→High→Right→Left. Anything else starts at Left.
func NextInSequence(g Guard) Guard {
	switch g {
	case Left:
		return High
	case High:
		return Right
	default:
		return Left
	}
}

// SwitchGuard picks the guard a combatant moves to from current.
//
// With randomize set it draws weighted-random guards, retrying while the draw
// repeats current, and accepts a repeat after maxRedraws draws. Otherwise it
// returns NextInSequence(current).
//
// Precondition: src must be non-nil when randomize is true.
func SwitchGuard(current Guard, w Weights, randomize bool, src dice.Source) Guard {
	if !randomize {
		return NextInSequence(current)
	}
	next := WeightedRandomGuard(w, src)
	for attempts := 1; next == current && attempts < maxRedraws; attempts++ {
		next = WeightedRandomGuard(w, src)
	}
	return next
}
