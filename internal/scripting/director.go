package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/guardbreak/internal/game/clock"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
	"github.com/cory-johannsen/guardbreak/internal/sim"
)

// TickHook is the global Lua function a Director calls before every tick.
const TickHook = "on_tick"

// Director drives a simulation from Lua. It implements sim.Director.
type Director struct {
	mgr *Manager
}

// NewDirector binds mgr's engine callbacks to s and returns a Director.
//
// Precondition: the returned Director must be installed with s.SetDirector
// so that every callback runs between ticks.
func NewDirector(mgr *Manager, s *sim.Simulation) *Director {
	mgr.Find = s.Lookup
	mgr.ForceAttack = s.ForceAttack
	mgr.ForceGuard = func(id, guard string) error {
		g, err := stance.ParseGuard(guard)
		if err != nil {
			return err
		}
		return s.ForceGuard(id, g)
	}
	mgr.SetTarget = s.SetTarget
	mgr.State = func(id string) (string, error) {
		st, err := s.Status(id)
		if err != nil {
			return "", err
		}
		if !st.Enemy {
			return "player", nil
		}
		return st.State.String(), nil
	}
	mgr.Distance = s.Distance
	mgr.Health = func(id string) (int, error) {
		st, err := s.Status(id)
		return st.Health, err
	}
	mgr.Feint = s.Feint
	mgr.Defend = s.Defend
	mgr.Walk = func(id string, dx, dy float64) error { return s.Walk(id, geom.V(dx, dy)) }
	mgr.Flick = func(id string, dx, dy float64, held bool) (string, bool, error) {
		g, ok, err := s.Flick(id, dx, dy, held)
		return g.String(), ok, err
	}
	mgr.Heal = s.Heal
	return &Director{mgr: mgr}
}

// OnTick calls the on_tick hook with the upcoming tick number.
func (d *Director) OnTick(tick clock.Tick) {
	d.mgr.CallHook(TickHook, lua.LNumber(tick))
}
