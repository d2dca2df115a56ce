// Package scripting runs encounter scripts in a sandboxed GopherLua VM.
// The VM never touches the simulation directly: every engine.* function
// is backed by a callback field on Manager.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit bounds the opcodes a single load or hook call may run.
const DefaultInstructionLimit = 100_000

// budgetContext cancels itself after Done has been called limit times.
// GopherLua calls Done once per opcode, so the budget is an exact
// instruction count.
type budgetContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (c *budgetContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

func newBudgetContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &budgetContext{Context: base, cancel: cancel, remaining: rem}, cancel
}

// NewSandboxedState creates an LState with only base, table, string and math
// loaded and with dofile, loadfile, load, collectgarbage and require removed.
//
// Postcondition: the caller owns the state and must Close it. No instruction
// budget is installed; use WithBudget around each execution.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// WithBudget runs fn with at most limit opcodes available to L.
//
// Precondition: limit <= 0 selects DefaultInstructionLimit.
func WithBudget(L *lua.LState, limit int, fn func() error) error {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := newBudgetContext(limit)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()
	return fn()
}
