// Package combat holds the authoritative per-combatant guard/swing state and
// the pure decision that turns one attack into a hit or a block.
package combat

import (
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// ResolveAttack decides whether an attack lands.
//
// Decision order: no swing in flight → Hit; defender not defending → Hit;
// defender has no guard → Hit; defender guard matches the swing's required
// guard → Blocked; otherwise Hit.
//
// Postcondition: pure; out-of-range enum values resolve to Hit.
func ResolveAttack(attackerSwing stance.Swing, defenderDefending bool, defenderGuard stance.Guard) stance.Outcome {
	if !attackerSwing.Active() {
		return stance.Hit
	}
	if !defenderDefending {
		return stance.Hit
	}
	if !defenderGuard.Valid() {
		return stance.Hit
	}
	if defenderGuard == stance.RequiredGuard(attackerSwing) {
		return stance.Blocked
	}
	return stance.Hit
}

// State is a read-only copy of a combatant's combat state.
type State struct {
	Defending bool
	Guard     stance.Guard
	Swing     stance.Swing
}

// SwingReceiver is the capability through which a combatant's animation or
// AI layer publishes intent.
type SwingReceiver interface {
	SetSwing(s stance.Swing)
	ClearSwing()
	SetGuard(g stance.Guard)
	SetDefending(defending bool)
}

// Damageable is the capability of anything that can take a hit.
//
// TakeDamage is the sole mutation entry point; IsDead and CurrentHealth are
// read-only guards.
type Damageable interface {
	TakeDamage(amount int, point, dir geom.Vec, instigator string)
	IsDead() bool
	CurrentHealth() int
}
