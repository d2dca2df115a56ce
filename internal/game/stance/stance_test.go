package stance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

func TestRequiredGuard_Table(t *testing.T) {
	assert.Equal(t, stance.Left, stance.RequiredGuard(stance.SwingLR))
	assert.Equal(t, stance.Right, stance.RequiredGuard(stance.SwingRL))
	assert.Equal(t, stance.High, stance.RequiredGuard(stance.Slot))
	assert.Equal(t, stance.High, stance.RequiredGuard(stance.SwingNone))
	assert.Equal(t, stance.High, stance.RequiredGuard(stance.Swing(42)))
}

// TestPrimarySwing_BlockedByOwnGuard verifies an attack thrown from guard g is
// blocked by the same guard g.
func TestPrimarySwing_BlockedByOwnGuard(t *testing.T) {
	for _, g := range []stance.Guard{stance.Left, stance.High, stance.Right} {
		assert.Equal(t, g, stance.RequiredGuard(stance.PrimarySwing(g)), g.String())
	}
}

func TestFeintSwing(t *testing.T) {
	assert.Equal(t, stance.SwingLR, stance.FeintSwing(stance.Right))
	assert.Equal(t, stance.SwingRL, stance.FeintSwing(stance.Left))
	assert.Equal(t, stance.SwingRL, stance.FeintSwing(stance.High))
}

func TestParseGuard(t *testing.T) {
	g, err := stance.ParseGuard(" LEFT ")
	require.NoError(t, err)
	assert.Equal(t, stance.Left, g)

	_, err = stance.ParseGuard("low")
	assert.Error(t, err)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "swing_lr", stance.SwingLR.String())
	assert.Equal(t, "high", stance.High.String())
	assert.Equal(t, "blocked", stance.Blocked.String())
	assert.Equal(t, "unknown", stance.Guard(9).String())
}

func TestSwing_Active_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := stance.Swing(rapid.IntRange(-5, 10).Draw(rt, "swing"))
		want := s == stance.SwingRL || s == stance.Slot || s == stance.SwingLR
		assert.Equal(rt, want, s.Active())
	})
}
