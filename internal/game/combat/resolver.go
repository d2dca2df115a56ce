package combat

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// GuardMode selects where a resolver's guard and defending state come from.
type GuardMode int

const (
	// DirectlyDriven resolvers are told their guard by the AI or player layer.
	DirectlyDriven GuardMode = iota
	// DerivedFromBlendState resolvers read their guard from guard blend parameters.
	DerivedFromBlendState
)

// String returns the configuration label for m.
func (m GuardMode) String() string {
	switch m {
	case DirectlyDriven:
		return "direct"
	case DerivedFromBlendState:
		return "blend"
	default:
		return "unknown"
	}
}

// ParseGuardMode converts a configuration label into a GuardMode.
// Unknown labels fall back to DirectlyDriven.
func ParseGuardMode(s string) GuardMode {
	if s == "blend" {
		return DerivedFromBlendState
	}
	return DirectlyDriven
}

// ResolverConfig tunes one resolver.
type ResolverConfig struct {
	Mode GuardMode
	// AutoClearSwing forces a stuck swing back to None after AutoClearAfter seconds.
	AutoClearSwing bool
	AutoClearAfter float64
	// BlendGuardThreshold is the blend magnitude below which the guard is kept.
	BlendGuardThreshold float64
	// RequireStableBlend only accepts blend samples that moved less than
	// BlendStabilityThreshold on both axes since the previous sample.
	RequireStableBlend      bool
	BlendStabilityThreshold float64
}

// DefaultResolverConfig returns the stock tuning.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Mode:                    DirectlyDriven,
		AutoClearSwing:          true,
		AutoClearAfter:          0.35,
		BlendGuardThreshold:     0.25,
		BlendStabilityThreshold: 0.1,
	}
}

// BlendState is one sample of the animation-side guard parameters.
type BlendState struct {
	Defending    bool
	GSX, GSY     float64
	HasDefending bool
	HasBlend     bool
}

// Resolver is the authoritative combat state of one combatant.
//
// Invariant: the swing is non-None only while an attack is in flight; Update
// clears a swing that outlives AutoClearAfter when AutoClearSwing is set.
type Resolver struct {
	mu sync.RWMutex

	name   string
	cfg    ResolverConfig
	logger *zap.Logger

	defending bool
	guard     stance.Guard
	swing     stance.Swing

	// swingSeq counts SetSwing calls with an active swing; the auto-clear
	// window restarts whenever it moves past seenSeq.
	swingSeq   uint64
	seenSeq    uint64
	swingStart float64

	lastGSX, lastGSY float64
	hasSample        bool
}

// NewResolver creates a resolver for the named combatant, defending in High guard.
//
// Postcondition: Snapshot() == State{Defending: true, Guard: High, Swing: None}.
func NewResolver(name string, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		name:      name,
		cfg:       cfg,
		logger:    logger,
		defending: true,
		guard:     stance.High,
	}
}

// Name returns the owning combatant's name.
func (r *Resolver) Name() string { return r.name }

// Mode returns the resolver's guard mode.
func (r *Resolver) Mode() GuardMode { return r.cfg.Mode }

// SetGuard stores g as-is.
func (r *Resolver) SetGuard(g stance.Guard) {
	r.mu.Lock()
	r.guard = g
	r.mu.Unlock()
}

// SetDefending stores the defending flag.
func (r *Resolver) SetDefending(defending bool) {
	r.mu.Lock()
	r.defending = defending
	r.mu.Unlock()
}

// SetSwing stores s as-is. Setting an active swing, even the one already
// held, starts a new attack for auto-clear purposes.
func (r *Resolver) SetSwing(s stance.Swing) {
	r.mu.Lock()
	r.swing = s
	if s.Active() {
		r.swingSeq++
	}
	r.mu.Unlock()
}

// ClearSwing resets the swing to None.
func (r *Resolver) ClearSwing() { r.SetSwing(stance.SwingNone) }

// ResetCombatState sets defending and guard, clears the swing and forgets
// swing and blend tracking.
func (r *Resolver) ResetCombatState(defending bool, g stance.Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defending = defending
	r.guard = g
	r.swing = stance.SwingNone
	r.seenSeq = r.swingSeq
	r.swingStart = 0
	r.hasSample = false
}

// Snapshot returns a copy of the current state.
func (r *Resolver) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return State{Defending: r.defending, Guard: r.guard, Swing: r.swing}
}

// Swing returns the current swing.
func (r *Resolver) Swing() stance.Swing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.swing
}

// Guard returns the current guard.
func (r *Resolver) Guard() stance.Guard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.guard
}

// Defending returns the defending flag.
func (r *Resolver) Defending() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defending
}

// ResolveAttackFrom resolves attacker's current swing against this resolver's state.
//
// Postcondition: a nil attacker resolves to Hit. Neither resolver is mutated.
func (r *Resolver) ResolveAttackFrom(attacker *Resolver) stance.Outcome {
	if attacker == nil {
		return stance.Hit
	}
	swing := attacker.Swing()
	def := r.Snapshot()
	out := ResolveAttack(swing, def.Defending, def.Guard)
	r.logger.Debug("resolve attack",
		zap.String("attacker", attacker.name),
		zap.String("defender", r.name),
		zap.Stringer("swing", swing),
		zap.Bool("defending", def.Defending),
		zap.Stringer("guard", def.Guard),
		zap.Stringer("required", stance.RequiredGuard(swing)),
		zap.Stringer("outcome", out),
	)
	return out
}

// Update performs per-tick housekeeping at time now: it records when a new
// attack starts and auto-clears a swing held past AutoClearAfter.
//
// Postcondition: returns true iff the swing was force-cleared.
func (r *Resolver) Update(now float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swing.Active() && r.swingSeq != r.seenSeq {
		r.swingStart = now
	}
	r.seenSeq = r.swingSeq
	if !r.cfg.AutoClearSwing || !r.swing.Active() {
		return false
	}
	if now-r.swingStart < r.cfg.AutoClearAfter {
		return false
	}
	r.logger.Warn("auto-clearing stuck swing",
		zap.String("combatant", r.name),
		zap.Stringer("swing", r.swing),
		zap.Float64("held", now-r.swingStart),
	)
	r.swing = stance.SwingNone
	return true
}

// SyncFromBlend reads defending and guard from a blend sample. It is a no-op
// unless the resolver is in DerivedFromBlendState mode.
func (r *Resolver) SyncFromBlend(b BlendState) {
	if r.cfg.Mode != DerivedFromBlendState {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.HasDefending {
		r.defending = b.Defending
	}
	if !b.HasBlend {
		return
	}
	if r.cfg.RequireStableBlend {
		stable := r.hasSample &&
			math.Abs(b.GSX-r.lastGSX) < r.cfg.BlendStabilityThreshold &&
			math.Abs(b.GSY-r.lastGSY) < r.cfg.BlendStabilityThreshold
		r.lastGSX, r.lastGSY, r.hasSample = b.GSX, b.GSY, true
		if !stable {
			return
		}
	}
	r.guard = DeriveGuard(b.GSX, b.GSY, r.guard, r.cfg.BlendGuardThreshold)
}

// DeriveGuard maps guard blend parameters onto a guard. A sample where both
// axes are under threshold keeps current, clamped into Left..Right.
func DeriveGuard(gsx, gsy float64, current stance.Guard, threshold float64) stance.Guard {
	switch {
	case math.Abs(gsy) > math.Abs(gsx) && gsy >= threshold:
		return stance.Left
	case math.Abs(gsx) < threshold && math.Abs(gsy) < threshold:
		return min(max(current, stance.Left), stance.Right)
	case gsx >= 0:
		return stance.High
	default:
		return stance.Right
	}
}
