// Package contact turns physical weapon contacts into blocks, damage or
// nothing, with per-hitbox cooldowns and per-owner ignore windows so one
// swing resolves at most once.
package contact

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// Kind classifies the result of one contact.
type Kind int

const (
	Ignored Kind = iota
	Blocked
	Damaged
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case Ignored:
		return "ignored"
	case Blocked:
		return "blocked"
	case Damaged:
		return "damaged"
	default:
		return "unknown"
	}
}

// Path names how a block or hit was decided.
type Path string

const (
	PathResolver Path = "resolver"
	PathFallback Path = "fallback"
)

// Reasons attached to ignored contacts.
const (
	ReasonNoCollider     = "no collider"
	ReasonCooldown       = "hit cooldown"
	ReasonAttackerDead   = "attacker dead"
	ReasonSelf           = "self contact"
	ReasonNoOwner        = "no owner"
	ReasonDefenderDead   = "defender dead"
	ReasonIgnoringBlock  = "ignore block window"
	ReasonIgnoringDamage = "ignore damage window"
	ReasonNotSwinging    = "not swinging"
	ReasonNoBlock        = "no block"
	ReasonTagOnly        = "sword tag without resolver"
	ReasonNotDamageable  = "not damageable"
)

// Event describes one resolved contact.
type Event struct {
	Time         float64
	Hitbox       string
	AttackerID   string
	AttackerName string
	DefenderID   string
	DefenderName string
	Swing        stance.Swing
	Guard        stance.Guard
	Path         Path
	Damage       int
	Point        geom.Vec
	// Clang is false when block audio is throttled by the hitbox cooldown.
	Clang bool
}

// Result is the outcome of HandleContact.
type Result struct {
	Kind   Kind
	Reason string
	Event  Event
}

// Feedback receives audio/visual cues for resolved contacts.
type Feedback interface {
	Blocked(ev Event)
	Hit(ev Event)
}

// Recorder receives every resolved contact.
type Recorder interface {
	Record(kind Kind, ev Event)
}

// Arbiter resolves contact events.
type Arbiter struct {
	clock    clock.Clock
	registry *IgnoreRegistry
	feedback Feedback
	recorder Recorder
	logger   *zap.Logger
}

// NewArbiter creates an Arbiter.
//
// Precondition: clk and registry must be non-nil. feedback and recorder may be nil.
func NewArbiter(clk clock.Clock, registry *IgnoreRegistry, feedback Feedback, recorder Recorder, logger *zap.Logger) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arbiter{clock: clk, registry: registry, feedback: feedback, recorder: recorder, logger: logger}
}

// Registry returns the shared ignore registry.
func (a *Arbiter) Registry() *IgnoreRegistry { return a.registry }

func ignored(reason string) Result { return Result{Kind: Ignored, Reason: reason} }

// HandleContact resolves one contact between hb and other.
//
// Postcondition: exactly one of Ignored, Blocked or Damaged is returned. The
// hitbox cooldown is set after every Blocked or Damaged result.
func (a *Arbiter) HandleContact(hb *Hitbox, other *Collider) Result {
	res := a.handle(hb, other)
	if res.Kind == Ignored {
		a.logger.Debug("contact ignored",
			zap.String("hitbox", hitboxName(hb)),
			zap.String("collider", colliderName(other)),
			zap.String("reason", res.Reason),
		)
		return res
	}
	a.logger.Debug("contact resolved",
		zap.Stringer("kind", res.Kind),
		zap.String("attacker", res.Event.AttackerName),
		zap.String("defender", res.Event.DefenderName),
		zap.Stringer("swing", res.Event.Swing),
		zap.Stringer("guard", res.Event.Guard),
		zap.String("path", string(res.Event.Path)),
	)
	if a.recorder != nil {
		a.recorder.Record(res.Kind, res.Event)
	}
	return res
}

func hitboxName(hb *Hitbox) string {
	if hb == nil {
		return ""
	}
	return hb.Name
}

func colliderName(c *Collider) string {
	if c == nil {
		return ""
	}
	return c.Name
}

func (a *Arbiter) handle(hb *Hitbox, other *Collider) Result {
	if other == nil {
		return ignored(ReasonNoCollider)
	}
	if hb == nil || hb.Owner == nil {
		return ignored(ReasonNoOwner)
	}
	now := a.clock.Now()
	if now < hb.nextHitTime {
		return ignored(ReasonCooldown)
	}
	attacker := hb.Owner
	if attacker.IsDead() {
		return ignored(ReasonAttackerDead)
	}
	if other.Owner == attacker || (other.Blade != nil && other.Blade.Owner == attacker) {
		return ignored(ReasonSelf)
	}

	if other.Blade != nil || other.SwordTag {
		return a.swordVsSword(now, hb, other)
	}
	if other.Owner != nil && other.Owner.Vitals != nil {
		return a.swordVsBody(now, hb, other)
	}
	return ignored(ReasonNotDamageable)
}

func (a *Arbiter) swordVsSword(now float64, hb *Hitbox, other *Collider) Result {
	attacker := hb.Owner
	defender := other.Owner
	if other.Blade != nil {
		defender = other.Blade.Owner
	}
	if defender == nil {
		return ignored(ReasonTagOnly)
	}
	if defender.IsDead() {
		return ignored(ReasonDefenderDead)
	}
	if a.ignoringBlock(now, hb) {
		return ignored(ReasonIgnoringBlock)
	}
	if attacker.Resolver == nil || !attacker.Resolver.Swing().Active() {
		return ignored(ReasonNotSwinging)
	}

	ev := a.event(now, hb, defender, other.Point)
	if defender.Resolver != nil {
		ev.Path = PathResolver
		ev.Guard = defender.Resolver.Guard()
		if defender.Resolver.ResolveAttackFrom(attacker.Resolver) != stance.Blocked {
			// The body path resolves damage separately.
			return ignored(ReasonNoBlock)
		}
		return a.blockBlade(now, hb, ev)
	}
	if other.Blade != nil {
		ev.Path = PathFallback
		if !other.Blade.IsBlockActive() || !other.Blade.IsGuardingAgainst(attacker.Position()) {
			return ignored(ReasonNoBlock)
		}
		return a.blockBlade(now, hb, ev)
	}
	return ignored(ReasonTagOnly)
}

// blockBlade records a blade-on-blade block: both owner windows open.
func (a *Arbiter) blockBlade(now float64, hb *Hitbox, ev Event) Result {
	a.extendDamage(hb, now+hb.cfg.IgnoreDamageAfterBlock)
	a.extendBlock(hb, now+hb.cfg.IgnoreBlockAfterBodyHit)
	hb.nextHitTime = now + hb.cfg.HitCooldown
	a.blockFeedback(now, hb, &ev)
	return Result{Kind: Blocked, Event: ev}
}

func (a *Arbiter) swordVsBody(now float64, hb *Hitbox, other *Collider) Result {
	attacker := hb.Owner
	target := other.Owner
	if target.IsDead() {
		return ignored(ReasonDefenderDead)
	}
	if a.ignoringDamage(now, hb) {
		return ignored(ReasonIgnoringDamage)
	}
	if attacker.Resolver == nil || !attacker.Resolver.Swing().Active() {
		return ignored(ReasonNotSwinging)
	}

	ev := a.event(now, hb, target, other.Point)
	if target.Resolver != nil {
		ev.Path = PathResolver
		ev.Guard = target.Resolver.Guard()
		if target.Resolver.ResolveAttackFrom(attacker.Resolver) == stance.Blocked {
			return a.blockBody(now, hb, ev)
		}
	} else if a.blockedByTargetGuard(hb, target) {
		ev.Path = PathFallback
		return a.blockBody(now, hb, ev)
	} else {
		ev.Path = PathFallback
	}

	ev.Damage = hb.cfg.Damage
	dir := geom.Normalize(geom.Sub(target.Position(), attacker.Position()))
	target.Vitals.TakeDamage(ev.Damage, other.Point, dir, attacker.ID)
	if a.feedback != nil {
		a.feedback.Hit(ev)
	}
	a.extendBlock(hb, now+hb.cfg.IgnoreBlockAfterBodyHit)
	hb.nextHitTime = now + hb.cfg.HitCooldown
	return Result{Kind: Damaged, Event: ev}
}

// blockBody records a guard block on a body contact: damage is suppressed only.
func (a *Arbiter) blockBody(now float64, hb *Hitbox, ev Event) Result {
	a.extendDamage(hb, now+hb.cfg.IgnoreDamageAfterBlock)
	hb.nextHitTime = now + hb.cfg.HitCooldown
	a.blockFeedback(now, hb, &ev)
	return Result{Kind: Blocked, Event: ev}
}

func (a *Arbiter) blockedByTargetGuard(hb *Hitbox, target *Combatant) bool {
	attackerPos := hb.Owner.Position()
	for _, blade := range target.Blades {
		if blade == nil || blade == hb || blade.Owner == hb.Owner {
			continue
		}
		if blade.IsBlockActive() && blade.IsGuardingAgainst(attackerPos) {
			return true
		}
	}
	return false
}

func (a *Arbiter) event(now float64, hb *Hitbox, defender *Combatant, point geom.Vec) Event {
	return Event{
		Time:         now,
		Hitbox:       hb.Name,
		AttackerID:   hb.Owner.ID,
		AttackerName: hb.Owner.Name,
		DefenderID:   defender.ID,
		DefenderName: defender.Name,
		Swing:        hb.Owner.Resolver.Swing(),
		Point:        point,
	}
}

func (a *Arbiter) blockFeedback(now float64, hb *Hitbox, ev *Event) {
	if now >= hb.nextClangTime {
		ev.Clang = true
		hb.nextClangTime = now + hb.cfg.HitCooldown
	}
	if a.feedback != nil {
		a.feedback.Blocked(*ev)
	}
}

func (a *Arbiter) ignoringDamage(now float64, hb *Hitbox) bool {
	return now < max(hb.ignoreDamageUntil, a.registry.DamageUntil(hb.Owner.ID))
}

func (a *Arbiter) ignoringBlock(now float64, hb *Hitbox) bool {
	return now < max(hb.ignoreBlockUntil, a.registry.BlockUntil(hb.Owner.ID))
}

func (a *Arbiter) extendDamage(hb *Hitbox, until float64) {
	hb.ignoreDamageUntil = until
	a.registry.ExtendDamage(hb.Owner.ID, until)
}

func (a *Arbiter) extendBlock(hb *Hitbox, until float64) {
	hb.ignoreBlockUntil = until
	a.registry.ExtendBlock(hb.Owner.ID, until)
}

// Recorders fans one contact out to several recorders.
type Recorders []Recorder

// Record implements Recorder.
func (rs Recorders) Record(kind Kind, ev Event) {
	for _, r := range rs {
		if r != nil {
			r.Record(kind, ev)
		}
	}
}
