package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/dice"
)

// Manager owns one sandboxed VM holding every loaded encounter script.
//
// Manager is safe for concurrent use; hook calls are serialized.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger

	// Injected after construction. nil = no-op in engine.* functions.
	Find        func(name string) (string, bool)
	ForceAttack func(id string) (bool, error)
	ForceGuard  func(id, guard string) error
	SetTarget   func(id, targetID string) error
	State       func(id string) (string, error)
	Distance    func(a, b string) (float64, error)
	Health      func(id string) (int, error)
	Feint       func(id string) error
	Defend      func(id string, on bool) error
	Walk        func(id string, dx, dy float64) error
	Flick       func(id string, dx, dy float64, held bool) (string, bool, error)
	Heal        func(id string, amount int) error
}

// NewManager creates a Manager with an empty VM.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: instLimit <= 0 selects DefaultInstructionLimit per call.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	m := &Manager{
		L:         NewSandboxedState(),
		instLimit: instLimit,
		roller:    roller,
		logger:    logger,
	}
	m.RegisterModules(m.L)
	return m
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}

// LoadDir executes every *.lua file in dir in lexicographic order.
//
// Postcondition: returns the first load error; files before it stay loaded.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, path := range files {
		if err := WithBudget(m.L, m.instLimit, func() error { return m.L.DoFile(path) }); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
		m.logger.Debug("script loaded", zap.String("path", path))
	}
	return nil
}

// LoadString executes src under name.
func (m *Manager) LoadString(name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := WithBudget(m.L, m.instLimit, func() error { return m.L.DoString(src) }); err != nil {
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return nil
}

// HasHook reports whether a global function called hook is defined.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// CallHook calls the global Lua function hook. A missing hook returns LNil.
// Lua runtime errors, including an exhausted instruction budget, are logged
// at Warn and never propagated.
//
// Postcondition: returns the hook's first return value, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) lua.LValue {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return lua.LNil
	}
	err := WithBudget(m.L, m.instLimit, func() error {
		return m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error", zap.String("hook", hook), zap.Error(err))
		return lua.LNil
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret
}
