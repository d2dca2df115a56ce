package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guardbreak/internal/game/combat"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
)

func TestHealth_TakeDamage_HurtThenDeathOnce(t *testing.T) {
	h := combat.NewHealth(20)
	var hurts, deaths int
	h.OnHurt(func(combat.DamageEvent) { hurts++ })
	h.OnDeath(func(ev combat.DamageEvent) {
		deaths++
		assert.Equal(t, "bandit", ev.Instigator)
		assert.Equal(t, 0, ev.Remaining)
	})

	h.TakeDamage(10, geom.Vec{}, geom.Vec{}, "bandit")
	assert.Equal(t, 10, h.CurrentHealth())
	h.TakeDamage(15, geom.Vec{}, geom.Vec{}, "bandit")
	h.TakeDamage(15, geom.Vec{}, geom.Vec{}, "bandit")

	assert.True(t, h.IsDead())
	assert.Equal(t, 0, h.CurrentHealth())
	assert.Equal(t, 1, hurts)
	assert.Equal(t, 1, deaths)
}

func TestHealth_IgnoresNonPositiveDamage(t *testing.T) {
	h := combat.NewHealth(10)
	h.TakeDamage(0, geom.Vec{}, geom.Vec{}, "x")
	h.TakeDamage(-5, geom.Vec{}, geom.Vec{}, "x")
	assert.Equal(t, 10, h.CurrentHealth())
}

func TestHealth_Heal(t *testing.T) {
	h := combat.NewHealth(10)
	h.TakeDamage(4, geom.Vec{}, geom.Vec{}, "x")
	h.Heal(100)
	assert.Equal(t, 10, h.CurrentHealth())
	h.TakeDamage(10, geom.Vec{}, geom.Vec{}, "x")
	h.Heal(5)
	assert.Equal(t, 0, h.CurrentHealth())
}

func TestHealth_Property_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hp := rapid.IntRange(1, 500).Draw(rt, "max")
		h := combat.NewHealth(hp)
		ops := rapid.SliceOf(rapid.IntRange(-50, 50)).Draw(rt, "ops")
		for _, op := range ops {
			if op >= 0 {
				h.TakeDamage(op, geom.Vec{}, geom.Vec{}, "x")
			} else {
				h.Heal(-op)
			}
			assert.GreaterOrEqual(rt, h.CurrentHealth(), 0)
			assert.LessOrEqual(rt, h.CurrentHealth(), hp)
			assert.Equal(rt, h.CurrentHealth() == 0, h.IsDead())
		}
	})
}

var _ combat.Damageable = (*combat.Health)(nil)
var _ combat.SwingReceiver = (*combat.Resolver)(nil)
