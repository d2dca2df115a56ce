// Package enemy drives one autonomous combatant through the
// Idle/Chasing/Guarding/Attacking/Recovering combat loop.
package enemy

import (
	"context"
	"errors"
	"math"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
	"github.com/cory-johannsen/guardbreak/internal/game/dice"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// State is one node of the combat loop.
type State string

const (
	Idle       State = "idle"
	Chasing    State = "chasing"
	Guarding   State = "guarding"
	Attacking  State = "attacking"
	Recovering State = "recovering"
)

// String returns the state label.
func (s State) String() string { return string(s) }

// ErrStatsMissing is returned by NewController when no stats are supplied.
var ErrStatsMissing = errors.New("enemy: no stats assigned")

// guardExitFactor widens the guard range on exit to avoid flapping at the boundary.
const guardExitFactor = 1.2

// Motor is the movement collaborator.
type Motor interface {
	DistanceTo(p geom.Vec) float64
	MoveTowards(p geom.Vec)
	FaceTowards(p geom.Vec)
	Stop()
	// CanMove is false while the combatant is incapacitated.
	CanMove() bool
}

// Rig is the animation-facing collaborator that owns the guard and defend pose.
type Rig interface {
	CurrentGuard() stance.Guard
	SetGuard(g stance.Guard)
	SetDefending(defending bool)
	TriggerPrimaryAttack()
}

// Target is anything the controller can fight.
type Target interface {
	ID() string
	Position() geom.Vec
}

// TargetFinder locates the nearest player-class entity.
type TargetFinder interface {
	NearestPlayer(from geom.Vec) (Target, bool)
}

// Vitals exposes the read-only death flag.
type Vitals interface {
	IsDead() bool
}

// TransitionListener is notified after every state change.
type TransitionListener interface {
	OnTransition(id string, from, to State)
}

// Deps are the collaborators of a Controller. Rig, Vitals, Finder and
// Listener may be nil.
type Deps struct {
	Motor    Motor
	Rig      Rig
	Vitals   Vitals
	Finder   TargetFinder
	Listener TransitionListener
	Clock    clock.Clock
	Dice     dice.Source
	// Position returns the controller's own position for target searches.
	Position func() geom.Vec
	Logger   *zap.Logger
}

// events names the transition into each state.
var events = map[State]string{
	Idle:       "idle",
	Chasing:    "chase",
	Guarding:   "guard",
	Attacking:  "attack",
	Recovering: "recover",
}

// transitions is the legal transition table. Idle never reaches Attacking directly.
func transitions() fsm.Events {
	return fsm.Events{
		{Name: events[Idle], Src: []string{string(Chasing), string(Guarding), string(Recovering)}, Dst: string(Idle)},
		{Name: events[Chasing], Src: []string{string(Idle), string(Guarding)}, Dst: string(Chasing)},
		{Name: events[Guarding], Src: []string{string(Idle), string(Chasing), string(Recovering)}, Dst: string(Guarding)},
		{Name: events[Attacking], Src: []string{string(Guarding), string(Recovering)}, Dst: string(Attacking)},
		{Name: events[Recovering], Src: []string{string(Attacking)}, Dst: string(Recovering)},
	}
}

// Controller is the enemy combat state machine.
//
// Invariant: all mutation happens inside Tick or the Force*/SetTarget calls,
// which callers must only make between ticks.
type Controller struct {
	id     string
	stats  *Stats
	deps   Deps
	logger *zap.Logger
	fsm    *fsm.FSM

	disabled bool
	target   Target

	stateTimer          float64
	nextGuardSwitchTime float64
	nextAttackTime      float64
	nextDefendToggle    float64
	attackEnabledTime   float64
	isDefending         bool
}

// NewController builds a controller and enters Idle with a weighted-random guard.
//
// Precondition: deps.Clock and deps.Dice must be non-nil.
// Postcondition: With nil stats, returns a disabled controller and
// ErrStatsMissing; its Tick is a permanent no-op.
func NewController(id string, stats *Stats, deps Deps) (*Controller, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{id: id, stats: stats, deps: deps, logger: logger.With(zap.String("enemy", id))}
	c.fsm = fsm.NewFSM(string(Idle), transitions(), fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			c.enter(State(e.Dst))
		},
	})
	if stats == nil {
		c.disabled = true
		c.logger.Error("enemy controller disabled", zap.Error(ErrStatsMissing))
		return c, ErrStatsMissing
	}

	if deps.Rig != nil {
		deps.Rig.SetGuard(stance.WeightedRandomGuard(stats.GuardWeights, deps.Dice))
		deps.Rig.SetDefending(false)
	}
	c.enter(Idle)
	return c, nil
}

// ID returns the controller's combatant ID.
func (c *Controller) ID() string { return c.id }

// State returns the current state.
func (c *Controller) State() State { return State(c.fsm.Current()) }

// StateTimer returns the seconds remaining on the current state's timer.
func (c *Controller) StateTimer() float64 { return c.stateTimer }

// Disabled reports whether the controller went inert for lack of stats.
func (c *Controller) Disabled() bool { return c.disabled }

// Target returns the current target, or nil.
func (c *Controller) Target() Target { return c.target }

// Stats returns the controller's stats.
func (c *Controller) Stats() *Stats { return c.stats }

// NextAttackTime returns the earliest time cooldown allows an attack.
func (c *Controller) NextAttackTime() float64 { return c.nextAttackTime }

// AttackEnabledTime returns the earliest time a guard switch allows an attack.
func (c *Controller) AttackEnabledTime() float64 { return c.attackEnabledTime }

// Tick advances the state machine by dt seconds.
//
// Postcondition: a no-op when disabled, dead, or unable to move.
func (c *Controller) Tick(dt float64) {
	if c.disabled {
		return
	}
	if c.deps.Vitals != nil && c.deps.Vitals.IsDead() {
		return
	}
	if c.deps.Motor == nil || !c.deps.Motor.CanMove() {
		return
	}

	c.ensureTarget()
	c.stateTimer -= dt

	switch c.State() {
	case Idle:
		c.updateIdle()
	case Chasing:
		c.updateChasing()
	case Guarding:
		c.updateGuarding()
	case Attacking:
		c.updateAttacking()
	case Recovering:
		c.updateRecovering()
	}
}

// ForceGuard sets guard g immediately and reschedules the next switch.
func (c *Controller) ForceGuard(g stance.Guard) {
	if c.disabled {
		return
	}
	if c.deps.Rig != nil {
		c.deps.Rig.SetGuard(g)
	}
	c.scheduleNextGuardSwitch()
}

// ForceAttack enters Attacking when currently Guarding or Recovering.
//
// Postcondition: returns true iff the transition happened.
func (c *Controller) ForceAttack() bool {
	if c.disabled {
		return false
	}
	switch c.State() {
	case Guarding, Recovering:
		c.transitionTo(Attacking)
		return true
	default:
		return false
	}
}

// SetTarget replaces the current target. A nil target makes the controller
// search again on the next tick.
func (c *Controller) SetTarget(t Target) { c.target = t }

func (c *Controller) now() float64 { return c.deps.Clock.Now() }

func (c *Controller) transitionTo(to State) {
	from := c.State()
	if err := c.fsm.Event(context.Background(), events[to]); err != nil {
		c.logger.Warn("illegal enemy transition",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Error(err),
		)
		return
	}
	msg := "enemy transition"
	fields := []zap.Field{zap.Stringer("from", from), zap.Stringer("to", to)}
	if c.stats.Debug {
		c.logger.Info(msg, fields...)
	} else {
		c.logger.Debug(msg, fields...)
	}
	if c.deps.Listener != nil {
		c.deps.Listener.OnTransition(c.id, from, to)
	}
}

// enter runs the entry actions of s.
func (c *Controller) enter(s State) {
	switch s {
	case Idle:
		c.stateTimer = 0.5
		c.setDefending(false)
		if c.deps.Motor != nil {
			c.deps.Motor.Stop()
		}
	case Chasing:
		c.stateTimer = 0
		c.setDefending(false)
	case Guarding:
		c.stateTimer = 0
		c.setDefending(true)
		c.scheduleNextGuardSwitch()
		c.scheduleNextDefendToggle()
	case Attacking:
		c.stateTimer = c.stats.AttackDuration
		c.triggerAttack()
	case Recovering:
		c.stateTimer = dice.Range(c.deps.Dice, c.stats.MinAttackCooldown, c.stats.MaxAttackCooldown)
		c.nextAttackTime = c.now() + c.stateTimer
	}
}

func (c *Controller) updateIdle() {
	if c.target == nil {
		return
	}
	dist := c.distance()
	switch {
	case dist <= c.stats.GuardEnterRange:
		c.transitionTo(Guarding)
	case dist <= c.stats.AcquireRadius:
		c.transitionTo(Chasing)
	}
}

func (c *Controller) updateChasing() {
	if c.target == nil {
		c.transitionTo(Idle)
		return
	}
	dist := c.distance()
	if dist <= c.stats.GuardEnterRange {
		c.transitionTo(Guarding)
		return
	}
	if dist > c.stats.AcquireRadius {
		c.transitionTo(Idle)
		return
	}
	c.deps.Motor.MoveTowards(c.target.Position())
}

func (c *Controller) updateGuarding() {
	if c.target == nil {
		c.transitionTo(Idle)
		return
	}
	dist := c.distance()
	if dist > c.stats.GuardEnterRange*guardExitFactor {
		c.transitionTo(Chasing)
		return
	}

	pos := c.target.Position()
	m := c.deps.Motor
	switch {
	case dist > c.stats.FaceTargetRange:
		m.MoveTowards(pos)
	case dist > c.stats.AttackRange:
		m.FaceTowards(pos)
		m.MoveTowards(pos)
	default:
		m.FaceTowards(pos)
		m.Stop()
	}

	now := c.now()
	if c.stats.ToggleDefending && now >= c.nextDefendToggle {
		c.setDefending(!c.isDefending)
		if c.isDefending {
			c.nextDefendToggle = now + c.stats.DefendHoldTime
		} else {
			c.nextDefendToggle = now + c.stats.DefendDropTime
		}
	}

	if now >= c.nextGuardSwitchTime {
		c.switchGuard()
		c.scheduleNextGuardSwitch()
	}

	if dist <= c.stats.AttackRange && c.canAttack() {
		c.transitionTo(Attacking)
	}
}

func (c *Controller) updateAttacking() {
	if c.stateTimer <= 0 {
		c.transitionTo(Recovering)
	}
}

func (c *Controller) updateRecovering() {
	if c.target == nil {
		c.transitionTo(Idle)
		return
	}
	pos := c.target.Position()
	c.deps.Motor.FaceTowards(pos)
	c.deps.Motor.Stop()
	c.setDefending(true)

	if c.now() >= c.nextGuardSwitchTime {
		c.switchGuard()
		c.scheduleNextGuardSwitch()
	}

	if c.stateTimer <= 0 {
		c.transitionTo(Guarding)
	}
}

func (c *Controller) canAttack() bool {
	now := c.now()
	return now >= c.nextAttackTime && now >= c.attackEnabledTime
}

func (c *Controller) triggerAttack() {
	if c.deps.Rig == nil {
		return
	}
	c.logger.Debug("enemy attacking", zap.Stringer("guard", c.deps.Rig.CurrentGuard()))
	c.deps.Rig.TriggerPrimaryAttack()
}

func (c *Controller) switchGuard() {
	if c.deps.Rig == nil {
		return
	}
	current := c.deps.Rig.CurrentGuard()
	next := stance.SwitchGuard(current, c.stats.GuardWeights, c.stats.RandomizeGuards, c.deps.Dice)
	c.logger.Debug("enemy guard switch", zap.Stringer("from", current), zap.Stringer("to", next))
	c.deps.Rig.SetGuard(next)
	c.attackEnabledTime = c.now() + c.stats.AttackDelayAfterGuardSwitch
}

func (c *Controller) scheduleNextGuardSwitch() {
	hold := dice.Range(c.deps.Dice, c.stats.MinGuardHoldTime, c.stats.MaxGuardHoldTime)
	c.nextGuardSwitchTime = c.now() + hold
}

func (c *Controller) scheduleNextDefendToggle() {
	c.isDefending = true
	c.nextDefendToggle = c.now() + c.stats.DefendHoldTime
}

func (c *Controller) setDefending(defending bool) {
	c.isDefending = defending
	if c.deps.Rig != nil {
		c.deps.Rig.SetDefending(defending)
	}
}

func (c *Controller) distance() float64 {
	if c.target == nil {
		return math.MaxFloat64
	}
	return c.deps.Motor.DistanceTo(c.target.Position())
}

func (c *Controller) ensureTarget() {
	if c.target != nil || c.deps.Finder == nil || c.deps.Position == nil {
		return
	}
	t, ok := c.deps.Finder.NearestPlayer(c.deps.Position())
	if !ok {
		return
	}
	if c.stats.AcquireRadius > 0 && c.deps.Motor.DistanceTo(t.Position()) > c.stats.AcquireRadius {
		return
	}
	c.target = t
}
