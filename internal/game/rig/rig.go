// Package rig adapts a combatant's animation layer to its combat resolver:
// it owns the guard and defend pose, drives the guard blend parameters and
// turns attack triggers into resolver swings.
package rig

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
	"github.com/cory-johannsen/guardbreak/internal/game/combat"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// Animation trigger names.
const (
	TriggerSlot    = "Slot"
	TriggerSwingLR = "SwingLR"
	TriggerSwingRL = "SwingRL"
)

// AnimationSink receives animation triggers. It stands in for the animator.
type AnimationSink interface {
	Trigger(name string)
}

// Config tunes a Rig.
type Config struct {
	// GuardLerpSpeed is the per-second rate at which blend parameters chase their target.
	GuardLerpSpeed float64
	// SwingActive is how long a triggered swing stays live before it is cleared.
	SwingActive float64
}

// DefaultConfig returns the stock rig tuning.
func DefaultConfig() Config {
	return Config{GuardLerpSpeed: 10, SwingActive: 0.3}
}

// Blend returns the guard blend target for g.
func Blend(g stance.Guard) (gsx, gsy float64) {
	switch g {
	case stance.Left:
		return 0, 1
	case stance.Right:
		return -1, 0
	default:
		return 1, 0
	}
}

// Rig is one combatant's animation-facing state.
type Rig struct {
	name     string
	resolver *combat.Resolver
	sink     AnimationSink
	clock    clock.Clock
	cfg      Config
	logger   *zap.Logger

	guard     stance.Guard
	defending bool
	gsx, gsy  float64

	swinging   bool
	swingUntil float64
}

// New creates a Rig in High guard with its blend parameters already settled.
//
// Precondition: resolver and clk must be non-nil. sink may be nil.
func New(name string, resolver *combat.Resolver, sink AnimationSink, clk clock.Clock, cfg Config, logger *zap.Logger) *Rig {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Rig{
		name:     name,
		resolver: resolver,
		sink:     sink,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
		guard:    stance.High,
	}
	r.gsx, r.gsy = Blend(r.guard)
	return r
}

// Resolver returns the resolver this rig publishes to.
func (r *Rig) Resolver() *combat.Resolver { return r.resolver }

// CurrentGuard returns the rig's guard.
func (r *Rig) CurrentGuard() stance.Guard { return r.guard }

// Defending reports whether the defend pose is up.
func (r *Rig) Defending() bool { return r.defending }

// BlendParams returns the current guard blend parameters.
func (r *Rig) BlendParams() (gsx, gsy float64) { return r.gsx, r.gsy }

// Swinging reports whether a triggered swing is still live.
func (r *Rig) Swinging() bool { return r.swinging }

// SetGuard changes the guard and publishes it immediately.
func (r *Rig) SetGuard(g stance.Guard) {
	r.guard = g
	r.Sync()
}

// SetDefending raises or drops the defend pose. It is published on the next Sync.
func (r *Rig) SetDefending(defending bool) { r.defending = defending }

// TriggerPrimaryAttack throws the attack belonging to the current guard.
func (r *Rig) TriggerPrimaryAttack() { r.startSwing(stance.PrimarySwing(r.guard)) }

// TriggerFeint throws the cross-body attack for the current guard.
func (r *Rig) TriggerFeint() { r.startSwing(stance.FeintSwing(r.guard)) }

func (r *Rig) startSwing(s stance.Swing) {
	r.resolver.SetSwing(s)
	r.swinging = true
	r.swingUntil = r.clock.Now() + r.cfg.SwingActive
	if r.sink != nil {
		r.sink.Trigger(triggerFor(s))
	}
	r.logger.Debug("swing triggered",
		zap.String("combatant", r.name),
		zap.Stringer("guard", r.guard),
		zap.Stringer("swing", s),
	)
}

// ClearSwing ends the live swing, as the animation's clear event would.
func (r *Rig) ClearSwing() {
	r.swinging = false
	r.resolver.ClearSwing()
}

// Sync publishes guard and defending to the resolver according to its mode.
func (r *Rig) Sync() {
	if r.resolver.Mode() == combat.DerivedFromBlendState {
		r.resolver.SyncFromBlend(combat.BlendState{
			Defending:    r.defending,
			GSX:          r.gsx,
			GSY:          r.gsy,
			HasDefending: true,
			HasBlend:     true,
		})
		return
	}
	r.resolver.SetDefending(r.defending)
	r.resolver.SetGuard(r.guard)
}

// Update publishes intent, eases the blend parameters toward the guard
// target and ends a swing whose active window has elapsed.
func (r *Rig) Update(dt float64) {
	r.Sync()
	if r.swinging && !r.resolver.Swing().Active() {
		// The resolver auto-cleared a stuck swing.
		r.swinging = false
	}

	tx, ty := Blend(r.guard)
	t := min(max(dt*r.cfg.GuardLerpSpeed, 0), 1)
	r.gsx += (tx - r.gsx) * t
	r.gsy += (ty - r.gsy) * t

	if r.swinging && r.clock.Now() >= r.swingUntil {
		r.ClearSwing()
	}
}

func triggerFor(s stance.Swing) string {
	switch s {
	case stance.SwingLR:
		return TriggerSwingLR
	case stance.SwingRL:
		return TriggerSwingRL
	default:
		return TriggerSlot
	}
}
