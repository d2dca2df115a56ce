// Package stance defines the shared guard/swing vocabulary and the
// compatibility table that decides which guard defeats which swing.
package stance

import (
	"fmt"
	"strings"
)

// Guard is a combatant's blocking stance.
type Guard int

const (
	// GuardNone means no stance has been set.
	GuardNone Guard = iota
	Left
	High
	Right
)

// String returns a human-readable guard label.
func (g Guard) String() string {
	switch g {
	case GuardNone:
		return "none"
	case Left:
		return "left"
	case High:
		return "high"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Valid reports whether g is one of Left, High or Right.
func (g Guard) Valid() bool { return g >= Left && g <= Right }

// ParseGuard converts a case-insensitive label into a Guard.
//
// Postcondition: returns a valid Guard or a non-nil error.
func ParseGuard(s string) (Guard, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "high":
		return High, nil
	case "right":
		return Right, nil
	default:
		return GuardNone, fmt.Errorf("unknown guard %q", s)
	}
}

// Swing is the directional signature of an in-flight attack.
type Swing int

const (
	// SwingNone means no attack is in flight.
	SwingNone Swing = iota
	// SwingRL cuts from right to left.
	SwingRL
	// Slot is an overhead strike.
	Slot
	// SwingLR cuts from left to right.
	SwingLR
)

// String returns a human-readable swing label.
func (s Swing) String() string {
	switch s {
	case SwingNone:
		return "none"
	case SwingRL:
		return "swing_rl"
	case Slot:
		return "slot"
	case SwingLR:
		return "swing_lr"
	default:
		return "unknown"
	}
}

// Active reports whether s is an attack in flight.
func (s Swing) Active() bool { return s >= SwingRL && s <= SwingLR }

// Outcome is the result of resolving one attack against one defender.
type Outcome int

const (
	Hit Outcome = iota
	Blocked
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// RequiredGuard returns the only guard that blocks swing s.
//
// Postcondition: total; None and out-of-range swings map to High.
func RequiredGuard(s Swing) Guard {
	switch s {
	case SwingLR:
		return Left
	case SwingRL:
		return Right
	default:
		return High
	}
}

// PrimarySwing returns the attack thrown from guard g.
func PrimarySwing(g Guard) Swing {
	switch g {
	case Left:
		return SwingLR
	case Right:
		return SwingRL
	default:
		return Slot
	}
}

// FeintSwing returns the cross-body attack a player throws from guard g.
func FeintSwing(g Guard) Swing {
	switch g {
	case Right:
		return SwingLR
	default:
		return SwingRL
	}
}
