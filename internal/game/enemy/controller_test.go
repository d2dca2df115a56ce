package enemy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
	"github.com/cory-johannsen/guardbreak/internal/game/dice"
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// dt is exact in binary so timer arithmetic is exact.
const dt = 1.0 / 64

type fakeMotor struct {
	dist    float64
	canMove bool
	moves   int
	faces   int
	stops   int
}

func (m *fakeMotor) DistanceTo(geom.Vec) float64 { return m.dist }
func (m *fakeMotor) MoveTowards(geom.Vec)        { m.moves++ }
func (m *fakeMotor) FaceTowards(geom.Vec)        { m.faces++ }
func (m *fakeMotor) Stop()                       { m.stops++ }
func (m *fakeMotor) CanMove() bool               { return m.canMove }

type fakeRig struct {
	guard     stance.Guard
	defending bool
	attacks   int
	switches  int
}

func (r *fakeRig) CurrentGuard() stance.Guard { return r.guard }
func (r *fakeRig) SetGuard(g stance.Guard) {
	r.switches++
	r.guard = g
}
func (r *fakeRig) SetDefending(d bool)   { r.defending = d }
func (r *fakeRig) TriggerPrimaryAttack() { r.attacks++ }

type fakeTarget struct{ pos geom.Vec }

func (t *fakeTarget) ID() string         { return "player" }
func (t *fakeTarget) Position() geom.Vec { return t.pos }

type fakeFinder struct{ target enemy.Target }

func (f *fakeFinder) NearestPlayer(geom.Vec) (enemy.Target, bool) {
	return f.target, f.target != nil
}

type fakeVitals struct{ dead bool }

func (v *fakeVitals) IsDead() bool { return v.dead }

type transition struct{ from, to enemy.State }

type transitionLog struct{ all []transition }

func (l *transitionLog) OnTransition(_ string, from, to enemy.State) {
	l.all = append(l.all, transition{from, to})
}

type harness struct {
	clk    *clock.ManualClock
	motor  *fakeMotor
	rig    *fakeRig
	finder *fakeFinder
	vitals *fakeVitals
	log    *transitionLog
	ctrl   *enemy.Controller
}

func newHarness(t *testing.T, stats *enemy.Stats, dist float64) *harness {
	t.Helper()
	h := &harness{
		clk:    clock.NewManualClock(0),
		motor:  &fakeMotor{dist: dist, canMove: true},
		rig:    &fakeRig{},
		finder: &fakeFinder{target: &fakeTarget{}},
		vitals: &fakeVitals{},
		log:    &transitionLog{},
	}
	ctrl, err := enemy.NewController("grunt", stats, enemy.Deps{
		Motor:    h.motor,
		Rig:      h.rig,
		Vitals:   h.vitals,
		Finder:   h.finder,
		Listener: h.log,
		Clock:    h.clk,
		Dice:     &dice.Fixed{Values: []float64{0.5}},
		Position: func() geom.Vec { return geom.Vec{} },
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func (h *harness) tick() {
	h.clk.Advance(dt)
	h.ctrl.Tick(dt)
}

func sequentialStats() *enemy.Stats {
	s := enemy.DefaultStats()
	s.RandomizeGuards = false
	return &s
}

func TestNewController_StartsIdleWithGuard(t *testing.T) {
	h := newHarness(t, sequentialStats(), 50)
	assert.Equal(t, enemy.Idle, h.ctrl.State())
	assert.True(t, h.rig.guard.Valid())
	assert.False(t, h.rig.defending)
	assert.InDelta(t, 0.5, h.ctrl.StateTimer(), 1e-9)
}

func TestController_FarTargetStaysIdle(t *testing.T) {
	h := newHarness(t, sequentialStats(), 50)
	for i := 0; i < 200; i++ {
		h.tick()
	}
	assert.Equal(t, enemy.Idle, h.ctrl.State())
	assert.Nil(t, h.ctrl.Target(), "target beyond acquire radius is not accepted")
	assert.Empty(t, h.log.all)
}

func TestController_CloseTargetGuardsOnFirstTick(t *testing.T) {
	h := newHarness(t, sequentialStats(), 5)
	h.tick()
	assert.Equal(t, enemy.Guarding, h.ctrl.State())
	assert.True(t, h.rig.defending)
	assert.Equal(t, []transition{{enemy.Idle, enemy.Guarding}}, h.log.all)
}

func TestController_ChasesInsideAcquireRadius(t *testing.T) {
	h := newHarness(t, sequentialStats(), 20)
	h.tick()
	require.Equal(t, enemy.Chasing, h.ctrl.State())
	h.tick()
	assert.Equal(t, 1, h.motor.moves)

	h.motor.dist = 40
	h.tick()
	assert.Equal(t, enemy.Idle, h.ctrl.State())
}

func TestController_GuardingFallsBackToChasingBeyondHysteresis(t *testing.T) {
	h := newHarness(t, sequentialStats(), 5)
	h.tick()
	h.motor.dist = 11.5
	h.tick()
	assert.Equal(t, enemy.Guarding, h.ctrl.State(), "within guardEnterRange*1.2")
	h.motor.dist = 12.5
	h.tick()
	assert.Equal(t, enemy.Chasing, h.ctrl.State())
}

func TestController_AttackCycle(t *testing.T) {
	h := newHarness(t, sequentialStats(), 2)
	h.tick()
	require.Equal(t, enemy.Guarding, h.ctrl.State())
	h.tick()
	require.Equal(t, enemy.Attacking, h.ctrl.State())
	assert.Equal(t, 1, h.rig.attacks)

	// Attacking lasts AttackDuration (0.5s = 32 ticks).
	for i := 0; i < 31; i++ {
		h.tick()
		require.Equal(t, enemy.Attacking, h.ctrl.State(), "tick %d", i)
	}
	h.tick()
	require.Equal(t, enemy.Recovering, h.ctrl.State())
	// Cooldown drawn at the midpoint of [1.5, 2.5).
	assert.InDelta(t, 2.0, h.ctrl.StateTimer(), 1e-9)
	assert.InDelta(t, h.clk.Now()+2.0, h.ctrl.NextAttackTime(), 1e-9)
	assert.True(t, h.rig.defending)

	for h.ctrl.State() == enemy.Recovering {
		h.tick()
	}
	assert.Equal(t, enemy.Guarding, h.ctrl.State())
}

func TestController_GuardSwitchDelaysAttack(t *testing.T) {
	stats := sequentialStats()
	stats.ToggleDefending = false
	h := newHarness(t, stats, 4)
	h.tick()
	require.Equal(t, enemy.Guarding, h.ctrl.State())
	start := h.rig.guard

	// Guard hold is drawn at the midpoint of [0.8, 1.5) = 1.15s.
	for h.clk.Now() < 1.2 {
		h.tick()
	}
	assert.Equal(t, stance.NextInSequence(start), h.rig.guard)
	assert.Greater(t, h.ctrl.AttackEnabledTime(), h.clk.Now())

	h.motor.dist = 2
	h.tick()
	assert.Equal(t, enemy.Guarding, h.ctrl.State(), "attack gated by post-switch delay")
	for h.clk.Now() < h.ctrl.AttackEnabledTime() {
		h.tick()
	}
	h.tick()
	assert.Equal(t, enemy.Attacking, h.ctrl.State())
}

func TestController_DefendToggling(t *testing.T) {
	h := newHarness(t, sequentialStats(), 4)
	h.tick()
	require.True(t, h.rig.defending)
	for h.clk.Now() < 2.05 {
		h.tick()
	}
	assert.False(t, h.rig.defending, "guard dropped after defendHoldTime")
	for h.clk.Now() < 2.6 {
		h.tick()
	}
	assert.True(t, h.rig.defending, "guard raised after defendDropTime")
}

func TestController_ForceAttack(t *testing.T) {
	h := newHarness(t, sequentialStats(), 50)
	assert.False(t, h.ctrl.ForceAttack())
	assert.Equal(t, enemy.Idle, h.ctrl.State())

	h.motor.dist = 8
	h.tick()
	require.Equal(t, enemy.Guarding, h.ctrl.State())
	assert.True(t, h.ctrl.ForceAttack())
	assert.Equal(t, enemy.Attacking, h.ctrl.State())
	assert.False(t, h.ctrl.ForceAttack())
}

func TestController_ForceGuard(t *testing.T) {
	h := newHarness(t, sequentialStats(), 50)
	h.ctrl.ForceGuard(stance.Right)
	assert.Equal(t, stance.Right, h.rig.guard)
}

func TestController_LostTargetReturnsToIdle(t *testing.T) {
	h := newHarness(t, sequentialStats(), 5)
	h.tick()
	require.Equal(t, enemy.Guarding, h.ctrl.State())
	h.finder.target = nil
	h.ctrl.SetTarget(nil)
	h.tick()
	assert.Equal(t, enemy.Idle, h.ctrl.State())
}

func TestController_NoOpWhenDeadOrImmobile(t *testing.T) {
	h := newHarness(t, sequentialStats(), 5)
	h.vitals.dead = true
	h.tick()
	assert.Equal(t, enemy.Idle, h.ctrl.State())

	h.vitals.dead = false
	h.motor.canMove = false
	timer := h.ctrl.StateTimer()
	h.tick()
	assert.Equal(t, enemy.Idle, h.ctrl.State())
	assert.Equal(t, timer, h.ctrl.StateTimer())
}

func TestNewController_MissingStatsDisables(t *testing.T) {
	motor := &fakeMotor{dist: 1, canMove: true}
	ctrl, err := enemy.NewController("broken", nil, enemy.Deps{
		Motor: motor,
		Clock: clock.NewManualClock(0),
		Dice:  &dice.Fixed{Values: []float64{0.5}},
	})
	assert.ErrorIs(t, err, enemy.ErrStatsMissing)
	require.NotNil(t, ctrl)
	assert.True(t, ctrl.Disabled())
	ctrl.Tick(dt)
	assert.Equal(t, enemy.Idle, ctrl.State())
	assert.False(t, ctrl.ForceAttack())
}

func TestController_ZeroAcquireRadiusAcceptsAnyTarget(t *testing.T) {
	stats := sequentialStats()
	stats.AcquireRadius = 0
	h := newHarness(t, stats, 500)
	h.tick()
	assert.NotNil(t, h.ctrl.Target())
	assert.Equal(t, enemy.Idle, h.ctrl.State())
}

// TestController_Property_TransitionInvariants drives the machine with random
// distances and forced attacks and checks that Idle never jumps straight to
// Attacking and Attacking only ends once its timer has run out.
func TestController_Property_TransitionInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		stats := enemy.DefaultStats()
		stats.RandomizeGuards = rapid.Bool().Draw(rt, "randomize")
		clk := clock.NewManualClock(0)
		motor := &fakeMotor{canMove: true}
		log := &transitionLog{}
		ctrl, err := enemy.NewController("prop", &stats, enemy.Deps{
			Motor:    motor,
			Rig:      &fakeRig{},
			Finder:   &fakeFinder{target: &fakeTarget{}},
			Listener: log,
			Clock:    clk,
			Dice:     dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")),
			Position: func() geom.Vec { return geom.Vec{} },
		})
		if err != nil {
			rt.Fatalf("NewController: %v", err)
		}

		steps := rapid.IntRange(1, 400).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			motor.dist = rapid.Float64Range(0, 40).Draw(rt, "dist")
			if rapid.IntRange(0, 20).Draw(rt, "force") == 0 {
				ctrl.ForceAttack()
			}
			before := ctrl.State()
			timer := ctrl.StateTimer()
			clk.Advance(dt)
			ctrl.Tick(dt)
			if before == enemy.Attacking && ctrl.State() == enemy.Recovering {
				assert.LessOrEqual(rt, timer-dt, 0.0)
			}
		}
		for _, tr := range log.all {
			assert.False(rt, tr.from == enemy.Idle && tr.to == enemy.Attacking, "idle -> attacking")
		}
	})
}
