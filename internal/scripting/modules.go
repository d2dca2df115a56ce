package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules defines the engine global in L.
//
// Lua surface:
//
//	engine.log.{debug,info,warn,error}(msg)
//	engine.roll(lo, hi) -> number
//	engine.find(name) -> id | nil
//	engine.force_attack(id) -> bool
//	engine.force_guard(id, "left"|"high"|"right")
//	engine.set_target(id, target_id | nil)
//	engine.state(id) -> string
//	engine.distance(a, b) -> number
//	engine.health(id) -> number
//	engine.feint(id)
//	engine.defend(id, bool)
//	engine.walk(id, dx, dy)
//
// A failing callback raises a Lua error, which the enclosing hook call logs.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)
	L.SetField(engine, "log", m.logModule(L))

	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		lo, hi := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
		L.Push(lua.LNumber(m.roller.Range("script", lo, hi)))
		return 1
	}))

	L.SetField(engine, "find", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if m.Find == nil {
			L.Push(lua.LNil)
			return 1
		}
		id, ok := m.Find(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(id))
		return 1
	}))

	L.SetField(engine, "force_attack", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.ForceAttack == nil {
			L.Push(lua.LFalse)
			return 1
		}
		ok, err := m.ForceAttack(id)
		raise(L, err)
		L.Push(lua.LBool(ok))
		return 1
	}))

	L.SetField(engine, "force_guard", L.NewFunction(func(L *lua.LState) int {
		id, guard := L.CheckString(1), L.CheckString(2)
		if m.ForceGuard != nil {
			raise(L, m.ForceGuard(id, guard))
		}
		return 0
	}))

	L.SetField(engine, "set_target", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		target := L.OptString(2, "")
		if m.SetTarget != nil {
			raise(L, m.SetTarget(id, target))
		}
		return 0
	}))

	L.SetField(engine, "state", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.State == nil {
			L.Push(lua.LNil)
			return 1
		}
		s, err := m.State(id)
		raise(L, err)
		L.Push(lua.LString(s))
		return 1
	}))

	L.SetField(engine, "distance", L.NewFunction(func(L *lua.LState) int {
		a, b := L.CheckString(1), L.CheckString(2)
		if m.Distance == nil {
			L.Push(lua.LNil)
			return 1
		}
		d, err := m.Distance(a, b)
		raise(L, err)
		L.Push(lua.LNumber(d))
		return 1
	}))

	L.SetField(engine, "health", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.Health == nil {
			L.Push(lua.LNil)
			return 1
		}
		hp, err := m.Health(id)
		raise(L, err)
		L.Push(lua.LNumber(hp))
		return 1
	}))

	L.SetField(engine, "feint", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.Feint != nil {
			raise(L, m.Feint(id))
		}
		return 0
	}))

	L.SetField(engine, "defend", L.NewFunction(func(L *lua.LState) int {
		id, on := L.CheckString(1), L.ToBool(2)
		if m.Defend != nil {
			raise(L, m.Defend(id, on))
		}
		return 0
	}))

	L.SetField(engine, "walk", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		dx, dy := float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
		if m.Walk != nil {
			raise(L, m.Walk(id, dx, dy))
		}
		return 0
	}))

	// engine.flick(id, dx, dy [, held]) returns the committed guard or nil.
	L.SetField(engine, "flick", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		dx, dy := float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
		held := L.OptBool(4, true)
		if m.Flick == nil {
			L.Push(lua.LNil)
			return 1
		}
		g, ok, err := m.Flick(id, dx, dy, held)
		raise(L, err)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(g))
		return 1
	}))

	L.SetField(engine, "heal", L.NewFunction(func(L *lua.LState) int {
		id, amount := L.CheckString(1), L.CheckInt(2)
		if m.Heal != nil {
			raise(L, m.Heal(id, amount))
		}
		return 0
	}))
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}
