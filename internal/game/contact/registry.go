package contact

import "sync"

type ignoreWindow struct {
	damageUntil float64
	blockUntil  float64
}

// IgnoreRegistry maps a combatant ID to the times until which that owner's
// hitboxes ignore damage contacts and block contacts. It is shared by every
// hitbox of an owner so one blocked swing cannot also land through a
// second collider.
//
// Invariant: stored timestamps only ever increase.
type IgnoreRegistry struct {
	mu      sync.Mutex
	windows map[string]*ignoreWindow
}

// NewIgnoreRegistry returns an empty registry.
func NewIgnoreRegistry() *IgnoreRegistry {
	return &IgnoreRegistry{windows: make(map[string]*ignoreWindow)}
}

func (r *IgnoreRegistry) window(id string) *ignoreWindow {
	w, ok := r.windows[id]
	if !ok {
		w = &ignoreWindow{}
		r.windows[id] = w
	}
	return w
}

// ExtendDamage raises id's ignore-damage deadline to until. Earlier values are ignored.
func (r *IgnoreRegistry) ExtendDamage(id string, until float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.window(id)
	w.damageUntil = max(w.damageUntil, until)
}

// ExtendBlock raises id's ignore-block deadline to until. Earlier values are ignored.
func (r *IgnoreRegistry) ExtendBlock(id string, until float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.window(id)
	w.blockUntil = max(w.blockUntil, until)
}

// DamageUntil returns id's ignore-damage deadline, or 0 when none was set.
func (r *IgnoreRegistry) DamageUntil(id string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[id]; ok {
		return w.damageUntil
	}
	return 0
}

// BlockUntil returns id's ignore-block deadline, or 0 when none was set.
func (r *IgnoreRegistry) BlockUntil(id string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[id]; ok {
		return w.blockUntil
	}
	return 0
}

// Forget drops id's windows. Callers use it on despawn.
func (r *IgnoreRegistry) Forget(id string) {
	r.mu.Lock()
	delete(r.windows, id)
	r.mu.Unlock()
}
