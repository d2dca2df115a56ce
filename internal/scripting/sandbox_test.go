package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guardbreak/internal/scripting"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	err := L.DoString(`
		assert(math.sqrt(4) == 2.0)
		assert(string.upper("guard") == "GUARD")
		local t = {}
		table.insert(t, 1)
		assert(#t == 1)
	`)
	assert.NoError(t, err)
}

func TestWithBudget_InfiniteLoopStops(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	err := scripting.WithBudget(L, 10, func() error { return L.DoString(`while true do end`) })
	assert.Error(t, err)
}

func TestWithBudget_ResetsBetweenCalls(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	for range 20 {
		err := scripting.WithBudget(L, 1000, func() error {
			return L.DoString(`local s = 0 for i = 1, 50 do s = s + i end`)
		})
		require.NoError(t, err)
	}
}

func TestProperty_BudgetAlwaysStopsLoop(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(rt, "limit")
		L := scripting.NewSandboxedState()
		defer L.Close()
		err := scripting.WithBudget(L, limit, func() error { return L.DoString(`while true do end`) })
		if err == nil {
			rt.Fatalf("expected error with limit=%d", limit)
		}
	})
}
