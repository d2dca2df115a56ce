package sim

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/combat"
	"github.com/cory-johannsen/guardbreak/internal/game/contact"
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/rig"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

var (
	// ErrUnknownCombatant is returned for IDs that were never spawned or were despawned.
	ErrUnknownCombatant = errors.New("sim: unknown combatant")
	// ErrNotEnemy is returned when an enemy-only command targets a player.
	ErrNotEnemy = errors.New("sim: combatant is not an enemy")
	// ErrNotPlayer is returned when a player-only command targets an enemy.
	ErrNotPlayer = errors.New("sim: combatant is not a player")
)

// PlayerSpec describes a player-controlled combatant.
type PlayerSpec struct {
	Name      string
	Pos       geom.Vec
	Heading   float64
	// MaxHealth and MoveSpeed fall back to the simulation config when zero.
	MaxHealth int
	MoveSpeed float64
}

// SpawnPlayer adds a player combatant and returns its ID.
//
// Precondition: spec.Name must be non-empty.
func (s *Simulation) SpawnPlayer(spec PlayerSpec) (string, error) {
	if spec.Name == "" {
		return "", errors.New("sim: player name must not be empty")
	}
	maxHealth := spec.MaxHealth
	if maxHealth <= 0 {
		maxHealth = s.cfg.PlayerMaxHealth
	}
	speed := spec.MoveSpeed
	if speed <= 0 {
		speed = s.cfg.PlayerMoveSpeed
	}
	pose := &Pose{Pos: spec.Pos, Heading: spec.Heading}
	c, r, hp := s.newCombatant(spec.Name, pose, maxHealth)
	motor := NewKinematic(pose, speed, 0, 0, func() bool { return !hp.IsDead() })

	e := s.spawn(c, r, hp, pose, PlayerTag, PlayerMove)
	entry := s.world.Entry(e)
	PlayerMove.SetValue(entry, PlayerMoveData{Motor: motor, Flick: stance.NewFlickSelector()})
	s.logger.Info("player spawned", zap.String("id", c.ID), zap.String("name", c.Name))
	return c.ID, nil
}

// SpawnEnemy adds an AI-driven combatant built from stats and returns its ID.
//
// Postcondition: with nil stats the enemy is spawned with a disabled brain
// and enemy.ErrStatsMissing is returned alongside its ID.
func (s *Simulation) SpawnEnemy(stats *enemy.Stats, pos geom.Vec, heading float64) (string, error) {
	name, maxHealth := "Enemy", 100
	move, rot, stop := 0.0, 0.0, 0.0
	if stats != nil {
		name, maxHealth = stats.Name, stats.MaxHealth
		move, rot, stop = stats.MoveSpeed, stats.RotationSpeed, stats.StoppingDistance
	}
	pose := &Pose{Pos: pos, Heading: heading}
	c, r, hp := s.newCombatant(name, pose, maxHealth)
	motor := NewKinematic(pose, move, rot, stop, func() bool { return !hp.IsDead() })

	brain, err := enemy.NewController(c.ID, stats, enemy.Deps{
		Motor:    motor,
		Rig:      r,
		Vitals:   hp,
		Finder:   finder{s},
		Listener: s,
		Clock:    s.clock,
		Dice:     s.dice,
		Position: pose.Position,
		Logger:   s.logger,
	})

	e := s.spawn(c, r, hp, pose, EnemyTag, Brain)
	Brain.SetValue(s.world.Entry(e), BrainData{Controller: brain, Motor: motor})
	s.logger.Info("enemy spawned",
		zap.String("id", c.ID),
		zap.String("name", c.Name),
		zap.Bool("disabled", brain.Disabled()),
	)
	return c.ID, err
}

func (s *Simulation) newCombatant(name string, pose *Pose, maxHealth int) (*contact.Combatant, *rig.Rig, *combat.Health) {
	id := uuid.NewString()
	name = s.freeName(name)
	logger := s.logger.With(zap.String("combatant", name))
	res := combat.NewResolver(name, s.cfg.Resolver, logger)
	r := rig.New(name, res, nil, s.clock, s.cfg.Rig, logger)
	hp := combat.NewHealth(maxHealth)
	c := &contact.Combatant{ID: id, Name: name, Resolver: res, Vitals: hp, Defense: r, Body: pose}
	contact.NewHitbox(name+"/blade", c, s.cfg.Hitbox)
	hp.OnDeath(func(ev combat.DamageEvent) {
		s.logger.Info("combatant died",
			zap.String("id", id),
			zap.String("name", name),
			zap.String("killer", ev.Instigator),
		)
		s.Enqueue(func() {
			r.ClearSwing()
			r.SetDefending(false)
			res.ResetCombatState(false, r.CurrentGuard())
			s.forgetTarget(id)
		})
	})
	return c, r, hp
}

// freeName returns name, or name-N with the smallest N >= 2 not in use.
func (s *Simulation) freeName(name string) string {
	if _, taken := s.byName[name]; !taken {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", name, n)
		if _, taken := s.byName[candidate]; !taken {
			return candidate
		}
	}
}

func (s *Simulation) spawn(c *contact.Combatant, r *rig.Rig, hp *combat.Health, pose *Pose, tag donburi.IComponentType, extra donburi.IComponentType) donburi.Entity {
	e := s.world.Create(Combatant, Body, Rig, Health, Blade, tag, extra)
	entry := s.world.Entry(e)
	Combatant.SetValue(entry, CombatantData{Combatant: c})
	Body.SetValue(entry, BodyData{Pose: pose, Object: s.physics.AddBody(c, pose)})
	Rig.SetValue(entry, RigData{Rig: r})
	Health.SetValue(entry, HealthData{Health: hp})
	hb := c.Blades[0]
	Blade.SetValue(entry, BladeData{Hitbox: hb, Object: s.physics.AddBlade(hb, pose)})

	s.entities[c.ID] = e
	s.byName[c.Name] = c.ID
	s.order = append(s.order, c.ID)
	return e
}

// Despawn removes a combatant and its colliders.
func (s *Simulation) Despawn(id string) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}
	c := Combatant.Get(entry)
	s.physics.Remove(Body.Get(entry).Object, Blade.Get(entry).Object)
	s.arbiter.Registry().Forget(c.ID)
	s.world.Remove(entry.Entity())
	delete(s.entities, id)
	delete(s.byName, c.Name)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.forgetTarget(id)
	s.logger.Info("combatant despawned", zap.String("id", id), zap.String("name", c.Name))
	return nil
}

// Lookup returns the ID of the combatant called name.
func (s *Simulation) Lookup(name string) (string, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// IDs returns every live entity ID in spawn order.
func (s *Simulation) IDs() []string {
	return append([]string(nil), s.order...)
}

func (s *Simulation) entry(id string) (*donburi.Entry, error) {
	e, ok := s.entities[id]
	if !ok || !s.world.Valid(e) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCombatant, id)
	}
	return s.world.Entry(e), nil
}

// forgetTarget clears every enemy target that points at id.
func (s *Simulation) forgetTarget(id string) {
	EnemyTag.Each(s.world, func(e *donburi.Entry) {
		b := Brain.Get(e)
		if t := b.Target(); t != nil && t.ID() == id {
			b.SetTarget(nil)
		}
	})
}

// target adapts a combatant to enemy.Target.
type target struct {
	c *contact.Combatant
}

func (t target) ID() string          { return t.c.ID }
func (t target) Position() geom.Vec { return t.c.Position() }

// finder implements enemy.TargetFinder over the live players.
type finder struct {
	s *Simulation
}

// NearestPlayer returns the closest living player to from.
func (f finder) NearestPlayer(from geom.Vec) (enemy.Target, bool) {
	var (
		best   *contact.Combatant
		bestSq float64
	)
	PlayerTag.Each(f.s.world, func(e *donburi.Entry) {
		c := Combatant.Get(e).Combatant
		if c.IsDead() {
			return
		}
		d := geom.LenSq(geom.Sub(c.Position(), from))
		if best == nil || d < bestSq || (d == bestSq && c.Name < best.Name) {
			best, bestSq = c, d
		}
	})
	if best == nil {
		return nil, false
	}
	return target{best}, true
}
