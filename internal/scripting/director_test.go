package scripting_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/guardbreak/internal/game/dice"
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
	"github.com/cory-johannsen/guardbreak/internal/scripting"
	"github.com/cory-johannsen/guardbreak/internal/sim"
)

func newScriptedSim(t *testing.T, src string) (*sim.Simulation, *scripting.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	s := sim.New(sim.DefaultConfig(), dice.NewSeededSource(1), nil, nil, nil, logger)
	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(2), logger), logger, 0)
	t.Cleanup(mgr.Close)
	s.SetDirector(scripting.NewDirector(mgr, s))
	require.NoError(t, mgr.LoadString("test", src))
	return s, mgr
}

func TestDirector_ScriptDrivesPlayer(t *testing.T) {
	s, _ := newScriptedSim(t, `
		function on_tick(tick)
			if tick == 1 then
				local hero = engine.find("hero")
				engine.force_guard(hero, "right")
				engine.walk(hero, 1, 0)
			end
		end
	`)
	hero, err := s.SpawnPlayer(sim.PlayerSpec{Name: "hero"})
	require.NoError(t, err)

	s.Step()
	st, err := s.Status(hero)
	require.NoError(t, err)
	assert.Equal(t, stance.Right, st.Guard)
	assert.Greater(t, st.Pos.X, 0.0)
}

func TestDirector_ScriptFlicksPlayerGuard(t *testing.T) {
	s, mgr := newScriptedSim(t, `
		committed = nil
		function on_tick(tick)
			local hero = engine.find("hero")
			if tick == 1 then
				committed = engine.flick(hero, -0.6, 0)
				engine.heal(hero, 5)
			end
		end
	`)
	hero, err := s.SpawnPlayer(sim.PlayerSpec{Name: "hero"})
	require.NoError(t, err)

	s.Step()
	st, err := s.Status(hero)
	require.NoError(t, err)
	assert.Equal(t, stance.Left, st.Guard)
	assert.Equal(t, 100, st.Health)
	require.NoError(t, mgr.LoadString("get", `function get() return committed end`))
	assert.Equal(t, "left", mgr.CallHook("get").String())
}

func TestDirector_ScriptForcesEnemyAttack(t *testing.T) {
	s, _ := newScriptedSim(t, `
		attacked = false
		function on_tick(tick)
			local ogre = engine.find("Enemy")
			if not attacked and engine.state(ogre) == "guarding" then
				attacked = engine.force_attack(ogre)
			end
		end
	`)
	_, err := s.SpawnPlayer(sim.PlayerSpec{Name: "hero", Pos: geom.V(0, 0)})
	require.NoError(t, err)
	ogre, err := s.SpawnEnemy(defaultStats(), geom.V(5, 0), math.Pi)
	require.NoError(t, err)

	s.Step() // Idle -> Guarding
	s.Step() // director forces the attack before this tick
	state, err := s.EnemyState(ogre)
	require.NoError(t, err)
	assert.Equal(t, enemy.Attacking, state)
}

func TestDirector_ScriptErrorsDoNotStopSimulation(t *testing.T) {
	s, _ := newScriptedSim(t, `
		function on_tick(tick)
			engine.force_guard("nobody", "left")
		end
	`)
	for range 3 {
		s.Step()
	}
	assert.Equal(t, uint64(3), uint64(s.Clock().Tick()))
}

func defaultStats() *enemy.Stats {
	s := enemy.DefaultStats()
	return &s
}
