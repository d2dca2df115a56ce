package combat

import (
	"sync"

	"github.com/cory-johannsen/guardbreak/internal/game/geom"
)

// DamageEvent describes one applied hit.
type DamageEvent struct {
	Amount     int
	Point      geom.Vec
	Dir        geom.Vec
	Instigator string
	Remaining  int
}

// Health tracks a combatant's hit points.
//
// Invariant: 0 <= Current() <= Max(); once dead, a Health never changes again.
type Health struct {
	mu      sync.Mutex
	max     int
	current int
	dead    bool

	onHurt  []func(DamageEvent)
	onDeath []func(DamageEvent)
}

// NewHealth creates a Health at full hit points.
//
// Precondition: max > 0.
func NewHealth(max int) *Health {
	return &Health{max: max, current: max}
}

// OnHurt registers fn to run after every non-lethal hit.
func (h *Health) OnHurt(fn func(DamageEvent)) {
	h.mu.Lock()
	h.onHurt = append(h.onHurt, fn)
	h.mu.Unlock()
}

// OnDeath registers fn to run once when health reaches zero.
func (h *Health) OnDeath(fn func(DamageEvent)) {
	h.mu.Lock()
	h.onDeath = append(h.onDeath, fn)
	h.mu.Unlock()
}

// TakeDamage subtracts amount from current health.
//
// Postcondition: a no-op when already dead or amount <= 0. Reaching zero
// latches death and fires OnDeath listeners exactly once; otherwise OnHurt
// listeners fire.
func (h *Health) TakeDamage(amount int, point, dir geom.Vec, instigator string) {
	h.mu.Lock()
	if h.dead || amount <= 0 {
		h.mu.Unlock()
		return
	}
	h.current -= amount
	ev := DamageEvent{Amount: amount, Point: point, Dir: dir, Instigator: instigator}
	var listeners []func(DamageEvent)
	if h.current <= 0 {
		h.current = 0
		h.dead = true
		listeners = h.onDeath
	} else {
		listeners = h.onHurt
	}
	ev.Remaining = h.current
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Heal adds amount, clamped to Max. Dead combatants cannot be healed.
func (h *Health) Heal(amount int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead || amount <= 0 {
		return
	}
	h.current = min(h.current+amount, h.max)
}

// IsDead reports whether death has been latched.
func (h *Health) IsDead() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dead
}

// CurrentHealth returns current hit points.
func (h *Health) CurrentHealth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Max returns maximum hit points.
func (h *Health) Max() int { return h.max }
