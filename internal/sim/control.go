package sim

import (
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// The commands below mutate combatants directly. Call them only between
// ticks: from a Director, from a function passed to Enqueue, or before Run.

// ForceAttack makes an enemy attack now, or throws a player's primary swing.
//
// Postcondition: returns false when an enemy is not in a state that may attack.
func (s *Simulation) ForceAttack(id string) (bool, error) {
	entry, err := s.entry(id)
	if err != nil {
		return false, err
	}
	if entry.HasComponent(Brain) {
		return Brain.Get(entry).ForceAttack(), nil
	}
	Rig.Get(entry).TriggerPrimaryAttack()
	return true, nil
}

// ForceGuard sets a combatant's guard immediately.
func (s *Simulation) ForceGuard(id string, g stance.Guard) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}
	if entry.HasComponent(Brain) {
		Brain.Get(entry).ForceGuard(g)
		return nil
	}
	Rig.Get(entry).SetGuard(g)
	return nil
}

// SetTarget points enemy id at targetID. An empty targetID clears the target.
func (s *Simulation) SetTarget(id, targetID string) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}
	if !entry.HasComponent(Brain) {
		return ErrNotEnemy
	}
	if targetID == "" {
		Brain.Get(entry).SetTarget(nil)
		return nil
	}
	te, err := s.entry(targetID)
	if err != nil {
		return err
	}
	Brain.Get(entry).SetTarget(target{Combatant.Get(te).Combatant})
	return nil
}

// EnemyState returns an enemy's behaviour state.
func (s *Simulation) EnemyState(id string) (enemy.State, error) {
	entry, err := s.entry(id)
	if err != nil {
		return "", err
	}
	if !entry.HasComponent(Brain) {
		return "", ErrNotEnemy
	}
	return Brain.Get(entry).State(), nil
}

// Distance returns the planar distance between two combatants.
func (s *Simulation) Distance(a, b string) (float64, error) {
	ea, err := s.entry(a)
	if err != nil {
		return 0, err
	}
	eb, err := s.entry(b)
	if err != nil {
		return 0, err
	}
	return geom.Dist(Body.Get(ea).Pos, Body.Get(eb).Pos), nil
}

func (s *Simulation) player(id string) (*RigData, *PlayerMoveData, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, nil, err
	}
	if !entry.HasComponent(PlayerMove) {
		return nil, nil, ErrNotPlayer
	}
	return Rig.Get(entry), PlayerMove.Get(entry), nil
}

// Feint throws the cross-body swing for a player's current guard.
func (s *Simulation) Feint(id string) error {
	r, _, err := s.player(id)
	if err != nil {
		return err
	}
	r.TriggerFeint()
	return nil
}

// Defend raises or drops a player's defend pose.
func (s *Simulation) Defend(id string, defending bool) error {
	r, _, err := s.player(id)
	if err != nil {
		return err
	}
	r.SetDefending(defending)
	return nil
}

// Walk sets the direction a player walks in each tick. The zero vector stops.
func (s *Simulation) Walk(id string, dir geom.Vec) error {
	_, m, err := s.player(id)
	if err != nil {
		return err
	}
	m.Dir = dir
	return nil
}

// Flick feeds one pointer delta to a player's guard selector. With held false
// the selector is released and nothing is committed.
//
// Postcondition: a committed guard is applied to the player's rig and
// returned with true.
func (s *Simulation) Flick(id string, dx, dy float64, held bool) (stance.Guard, bool, error) {
	r, m, err := s.player(id)
	if err != nil {
		return stance.GuardNone, false, err
	}
	if !held {
		m.Flick.Release()
		return stance.GuardNone, false, nil
	}
	g, ok := m.Flick.Feed(s.clock.Now(), dx, dy)
	if ok {
		r.SetGuard(g)
	}
	return g, ok, nil
}

// Heal restores up to amount hit points. Dead combatants stay dead.
func (s *Simulation) Heal(id string, amount int) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}
	Health.Get(entry).Heal(amount)
	return nil
}

// Face turns a player to heading rad immediately.
func (s *Simulation) Face(id string, rad float64) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}
	Body.Get(entry).Heading = geom.NormalizeAngle(rad)
	return nil
}

// Status is a read-only view of one combatant.
type Status struct {
	ID        string
	Name      string
	Enemy     bool
	State     enemy.State
	Health    int
	Dead      bool
	Guard     stance.Guard
	Defending bool
	Swing     stance.Swing
	Pos       geom.Vec
	Heading   float64
}

// Status returns the view of combatant id.
func (s *Simulation) Status(id string) (Status, error) {
	entry, err := s.entry(id)
	if err != nil {
		return Status{}, err
	}
	c := Combatant.Get(entry)
	r := Rig.Get(entry)
	body := Body.Get(entry)
	st := Status{
		ID:        c.ID,
		Name:      c.Name,
		Health:    Health.Get(entry).CurrentHealth(),
		Dead:      c.IsDead(),
		Guard:     r.CurrentGuard(),
		Defending: r.Defending(),
		Swing:     c.Resolver.Swing(),
		Pos:       body.Pos,
		Heading:   body.Heading,
	}
	if entry.HasComponent(Brain) {
		st.Enemy = true
		st.State = Brain.Get(entry).State()
	}
	return st, nil
}

// Snapshot returns the status of every combatant in spawn order.
func (s *Simulation) Snapshot() []Status {
	out := make([]Status, 0, len(s.order))
	for _, id := range s.order {
		if st, err := s.Status(id); err == nil {
			out = append(out, st)
		}
	}
	return out
}
