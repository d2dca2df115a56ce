// Package sim runs the fixed-rate combat simulation: it owns the entity
// world, advances every combatant in a strict per-tick order and feeds
// weapon overlaps to the contact arbiter.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
	"github.com/cory-johannsen/guardbreak/internal/game/combat"
	"github.com/cory-johannsen/guardbreak/internal/game/contact"
	"github.com/cory-johannsen/guardbreak/internal/game/dice"
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
	"github.com/cory-johannsen/guardbreak/internal/game/rig"
)

// Config tunes a Simulation.
type Config struct {
	TickRate        int
	Resolver        combat.ResolverConfig
	Rig             rig.Config
	Hitbox          contact.HitboxConfig
	Arena           ArenaConfig
	PlayerMaxHealth int
	PlayerMoveSpeed float64
}

// DefaultConfig returns a 50 Hz simulation with stock combat tuning.
func DefaultConfig() Config {
	return Config{
		TickRate:        50,
		Resolver:        combat.DefaultResolverConfig(),
		Rig:             rig.DefaultConfig(),
		Hitbox:          contact.DefaultHitboxConfig(),
		Arena:           DefaultArenaConfig(),
		PlayerMaxHealth: 100,
		PlayerMoveSpeed: 6,
	}
}

// Observer receives simulation events for metrics.
type Observer interface {
	TickCompleted(tick clock.Tick, elapsed time.Duration)
	StateChanged(id string, from, to enemy.State)
	SwingCleared(id string)
}

// Director is invoked once before every tick, while no tick is in progress.
type Director interface {
	OnTick(tick clock.Tick)
}

// Simulation is a single-threaded fixed-step combat world.
//
// Invariant: within a tick, every combatant's intent is published to its
// resolver before any contact is arbitrated.
type Simulation struct {
	cfg      Config
	logger   *zap.Logger
	clock    *clock.StepClock
	dice     dice.Source
	world    donburi.World
	physics  *Physics
	arbiter  *contact.Arbiter
	feedback contact.Feedback
	observer Observer
	director Director

	entities map[string]donburi.Entity
	byName   map[string]string
	order    []string

	stepMu sync.Mutex

	queueMu sync.Mutex
	queue   []func()
}

// New creates an empty simulation.
//
// Precondition: cfg.TickRate > 0 and src must be non-nil. feedback, recorder
// and observer may be nil.
func New(cfg Config, src dice.Source, feedback contact.Feedback, recorder contact.Recorder, observer Observer, logger *zap.Logger) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	if feedback == nil {
		feedback = NewLogFeedback(logger)
	}
	clk := clock.NewStepClock(1 / float64(cfg.TickRate))
	return &Simulation{
		cfg:      cfg,
		logger:   logger,
		clock:    clk,
		dice:     src,
		world:    donburi.NewWorld(),
		physics:  NewPhysics(cfg.Arena),
		arbiter:  contact.NewArbiter(clk, contact.NewIgnoreRegistry(), feedback, recorder, logger),
		feedback: feedback,
		observer: observer,
		entities: make(map[string]donburi.Entity),
		byName:   make(map[string]string),
	}
}

// Clock returns the simulation clock.
func (s *Simulation) Clock() *clock.StepClock { return s.clock }

// Arbiter returns the contact arbiter.
func (s *Simulation) Arbiter() *contact.Arbiter { return s.arbiter }

// SetDirector installs d. It must be called before Run.
func (s *Simulation) SetDirector(d Director) { s.director = d }

// Enqueue schedules fn to run at the start of the next tick, before any
// combatant is advanced. It is safe to call from any goroutine.
func (s *Simulation) Enqueue(fn func()) {
	s.queueMu.Lock()
	s.queue = append(s.queue, fn)
	s.queueMu.Unlock()
}

func (s *Simulation) drain() {
	s.queueMu.Lock()
	pending := s.queue
	s.queue = nil
	s.queueMu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Step runs one tick: director, queued commands, then for every combatant
// intent, resolver sync, housekeeping and finally contact arbitration.
//
// Postcondition: returns the completed tick.
func (s *Simulation) Step() clock.Tick {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	start := time.Now()

	if s.director != nil {
		s.director.OnTick(s.clock.Tick() + 1)
	}
	s.drain()

	tick := s.clock.Advance()
	now := s.clock.Now()
	dt := s.clock.Delta()

	entries := s.entries()
	for _, e := range entries {
		s.advanceIntent(e, dt)
	}
	for _, e := range entries {
		if e.HasComponent(Rig) {
			Rig.Get(e).Update(dt)
		}
	}
	for _, e := range entries {
		c := Combatant.Get(e)
		if c.Resolver != nil && c.Resolver.Update(now) && s.observer != nil {
			s.observer.SwingCleared(c.ID)
		}
	}
	for _, e := range entries {
		s.syncColliders(e)
	}
	for _, e := range entries {
		s.arbitrate(e)
	}

	if s.observer != nil {
		s.observer.TickCompleted(tick, time.Since(start))
	}
	return tick
}

func (s *Simulation) entries() []*donburi.Entry {
	out := make([]*donburi.Entry, 0, len(s.order))
	for _, id := range s.order {
		ent, ok := s.entities[id]
		if !ok || !s.world.Valid(ent) {
			continue
		}
		out = append(out, s.world.Entry(ent))
	}
	return out
}

func (s *Simulation) advanceIntent(e *donburi.Entry, dt float64) {
	if e.HasComponent(Brain) {
		b := Brain.Get(e)
		b.Motor.Begin(dt)
		b.Tick(dt)
		b.Motor.Integrate()
	}
	if e.HasComponent(PlayerMove) {
		m := PlayerMove.Get(e)
		m.Motor.Begin(dt)
		m.Motor.Walk(m.Dir)
		m.Motor.Integrate()
	}
}

func (s *Simulation) syncColliders(e *donburi.Entry) {
	body := Body.Get(e)
	s.physics.MoveBody(body.Object, body.Pose)
	if e.HasComponent(Blade) {
		s.physics.MoveBlade(Blade.Get(e).Object, body.Pose)
	}
}

func (s *Simulation) arbitrate(e *donburi.Entry) {
	if !e.HasComponent(Blade) {
		return
	}
	c := Combatant.Get(e)
	if c.IsDead() || c.Resolver == nil || !c.Resolver.Swing().Active() {
		return
	}
	blade := Blade.Get(e)
	for _, other := range s.physics.Contacts(blade.Object) {
		if other.Owner == c.Combatant {
			continue
		}
		s.arbiter.HandleContact(blade.Hitbox, other)
	}
}

// Run steps the simulation at TickRate until ctx is cancelled.
//
// Postcondition: returns nil after ctx is cancelled.
func (s *Simulation) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()
	s.logger.Info("simulation running",
		zap.Int("tick_rate", s.cfg.TickRate),
		zap.Int("combatants", len(s.order)),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("simulation stopped", zap.Stringer("tick", s.clock.Tick()))
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// OnTransition implements enemy.TransitionListener.
func (s *Simulation) OnTransition(id string, from, to enemy.State) {
	if s.observer != nil {
		s.observer.StateChanged(id, from, to)
	}
}
