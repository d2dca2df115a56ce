package contact

import (
	"github.com/cory-johannsen/guardbreak/internal/game/combat"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
)

// Side is the flank a directional guard protects.
type Side int

const (
	SideRight Side = iota
	SideLeft
)

// ParseSide converts "left" to SideLeft; anything else is SideRight.
func ParseSide(s string) Side {
	if s == "left" {
		return SideLeft
	}
	return SideRight
}

// DirectionalGuard is the facing-cone check used for actors without a resolver.
type DirectionalGuard struct {
	Enabled           bool
	Side              Side
	SideDotThreshold  float64
	RequireInFront    bool
	FrontDotThreshold float64
}

// HitboxConfig tunes one weapon hitbox.
type HitboxConfig struct {
	Damage                   int
	HitCooldown              float64
	IgnoreBlockAfterBodyHit  float64
	IgnoreDamageAfterBlock   float64
	RequireDefendingForBlock bool
	Guard                    DirectionalGuard
}

// DefaultHitboxConfig returns the stock sword tuning.
func DefaultHitboxConfig() HitboxConfig {
	return HitboxConfig{
		Damage:                   10,
		HitCooldown:              0.15,
		IgnoreBlockAfterBodyHit:  0.5,
		IgnoreDamageAfterBlock:   0.35,
		RequireDefendingForBlock: true,
		Guard:                    DirectionalGuard{RequireInFront: true},
	}
}

// Body exposes a combatant's planar pose.
type Body interface {
	Position() geom.Vec
	// Forward returns the unit facing direction.
	Forward() geom.Vec
}

// Defender reports whether a combatant's defend pose is up.
type Defender interface {
	Defending() bool
}

// Combatant is everything the arbiter needs to know about one fighter,
// assembled once at spawn.
type Combatant struct {
	ID   string
	Name string
	// Resolver is nil for actors without full resolver wiring.
	Resolver *combat.Resolver
	// Vitals is nil for undamageable actors.
	Vitals combat.Damageable
	// Defense feeds the block gate of the directional fallback.
	Defense Defender
	Body    Body
	Blades  []*Hitbox
}

// IsDead reports whether c has latched death.
func (c *Combatant) IsDead() bool {
	return c != nil && c.Vitals != nil && c.Vitals.IsDead()
}

// Position returns the body position, or the origin when c has no body.
func (c *Combatant) Position() geom.Vec {
	if c == nil || c.Body == nil {
		return geom.Vec{}
	}
	return c.Body.Position()
}

// Collider is the other side of a contact event.
type Collider struct {
	Name string
	// Owner is nil for scenery.
	Owner *Combatant
	// Blade is set when the collider is another weapon hitbox.
	Blade *Hitbox
	// SwordTag marks a blade collider without hitbox wiring.
	SwordTag bool
	// Point is the contact point closest to the attacking hitbox.
	Point geom.Vec
}

// Hitbox is one weapon collider. Its timestamps are private to the hitbox;
// the owner-wide windows live in the IgnoreRegistry.
type Hitbox struct {
	Name  string
	Owner *Combatant
	cfg   HitboxConfig

	nextHitTime       float64
	nextClangTime     float64
	ignoreDamageUntil float64
	ignoreBlockUntil  float64
}

// NewHitbox creates a hitbox and attaches it to owner's blades.
//
// Precondition: owner must be non-nil.
func NewHitbox(name string, owner *Combatant, cfg HitboxConfig) *Hitbox {
	hb := &Hitbox{Name: name, Owner: owner, cfg: cfg}
	owner.Blades = append(owner.Blades, hb)
	return hb
}

// Config returns the hitbox tuning.
func (h *Hitbox) Config() HitboxConfig { return h.cfg }

// NextHitTime returns the earliest time this hitbox resolves another contact.
func (h *Hitbox) NextHitTime() float64 { return h.nextHitTime }

// IsBlockActive reports whether this blade is in a blocking pose.
func (h *Hitbox) IsBlockActive() bool {
	if !h.cfg.RequireDefendingForBlock {
		return true
	}
	if h.Owner == nil || h.Owner.Defense == nil {
		return false
	}
	return h.Owner.Defense.Defending()
}

// IsGuardingAgainst reports whether an attacker at attackerPos falls inside
// this blade's guarded cone. Without directional guarding every position is guarded.
func (h *Hitbox) IsGuardingAgainst(attackerPos geom.Vec) bool {
	g := h.cfg.Guard
	if !g.Enabled {
		return true
	}
	if h.Owner == nil || h.Owner.Body == nil {
		return true
	}
	toAttacker := geom.Sub(attackerPos, h.Owner.Body.Position())
	if geom.IsZero(toAttacker) {
		return true
	}
	toAttacker = geom.Normalize(toAttacker)
	forward := h.Owner.Body.Forward()

	sideDot := geom.Dot(geom.RightOf(forward), toAttacker)
	if g.Side == SideRight && sideDot < g.SideDotThreshold {
		return false
	}
	if g.Side == SideLeft && sideDot > -g.SideDotThreshold {
		return false
	}
	if g.RequireInFront && geom.Dot(forward, toAttacker) < g.FrontDotThreshold {
		return false
	}
	return true
}
