package sim

import (
	"cmp"
	"slices"

	"github.com/solarlune/resolv"

	"github.com/cory-johannsen/guardbreak/internal/game/contact"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
)

// ArenaConfig sizes the collision space. World coordinates are centred on
// the origin; the space is offset so the whole arena has positive cells.
type ArenaConfig struct {
	Width     float64 `mapstructure:"width"`
	Height    float64 `mapstructure:"height"`
	CellSize  int     `mapstructure:"cell_size"`
	BodySize  float64 `mapstructure:"body_size"`
	BladeSize float64 `mapstructure:"blade_size"`
	Reach     float64 `mapstructure:"reach"`
}

// DefaultArenaConfig returns a 200x200 arena with sword-sized blades.
func DefaultArenaConfig() ArenaConfig {
	return ArenaConfig{Width: 200, Height: 200, CellSize: 2, BodySize: 0.8, BladeSize: 0.6, Reach: 1.3}
}

// Physics detects overlaps between blades and bodies.
type Physics struct {
	cfg   ArenaConfig
	space *resolv.Space
}

// NewPhysics builds an empty collision space.
func NewPhysics(cfg ArenaConfig) *Physics {
	return &Physics{
		cfg:   cfg,
		space: resolv.NewSpace(int(cfg.Width), int(cfg.Height), cfg.CellSize, cfg.CellSize),
	}
}

// Config returns the arena configuration.
func (p *Physics) Config() ArenaConfig { return p.cfg }

func (p *Physics) toSpace(v geom.Vec, size float64) (x, y float64) {
	return v.X + p.cfg.Width/2 - size/2, v.Y + p.cfg.Height/2 - size/2
}

// AddBody registers a body collider for c.
func (p *Physics) AddBody(c *contact.Combatant, pose *Pose) *resolv.Object {
	x, y := p.toSpace(pose.Pos, p.cfg.BodySize)
	obj := resolv.NewObject(x, y, p.cfg.BodySize, p.cfg.BodySize, tagBody)
	obj.SetShape(resolv.NewRectangle(0, 0, p.cfg.BodySize, p.cfg.BodySize))
	obj.Data = c
	p.space.Add(obj)
	return obj
}

// AddBlade registers a blade collider for hb.
func (p *Physics) AddBlade(hb *contact.Hitbox, pose *Pose) *resolv.Object {
	x, y := p.toSpace(bladeCentre(pose, p.cfg.Reach), p.cfg.BladeSize)
	obj := resolv.NewObject(x, y, p.cfg.BladeSize, p.cfg.BladeSize, tagBlade)
	obj.SetShape(resolv.NewRectangle(0, 0, p.cfg.BladeSize, p.cfg.BladeSize))
	obj.Data = hb
	p.space.Add(obj)
	return obj
}

// Remove drops objects from the space.
func (p *Physics) Remove(objs ...*resolv.Object) {
	for _, o := range objs {
		if o != nil {
			p.space.Remove(o)
		}
	}
}

func bladeCentre(pose *Pose, reach float64) geom.Vec {
	return geom.Add(pose.Pos, geom.Scale(pose.Forward(), reach))
}

// MoveBody syncs a body collider to pose.
func (p *Physics) MoveBody(obj *resolv.Object, pose *Pose) {
	obj.X, obj.Y = p.toSpace(pose.Pos, p.cfg.BodySize)
	obj.Update()
}

// MoveBlade syncs a blade collider to the front of pose.
func (p *Physics) MoveBlade(obj *resolv.Object, pose *Pose) {
	obj.X, obj.Y = p.toSpace(bladeCentre(pose, p.cfg.Reach), p.cfg.BladeSize)
	obj.Update()
}

// Contacts returns every collider overlapping blade, other blades first so a
// clash is always resolved before the body behind it.
func (p *Physics) Contacts(blade *resolv.Object) []*contact.Collider {
	check := blade.Check(0, 0, tagBody, tagBlade)
	if check == nil {
		return nil
	}

	type candidate struct {
		order int
		name  string
		c     *contact.Collider
	}
	var found []candidate
	seen := make(map[*resolv.Object]bool)
	for _, obj := range check.Objects {
		if obj == blade || seen[obj] || !overlaps(blade, obj) {
			continue
		}
		seen[obj] = true
		switch data := obj.Data.(type) {
		case *contact.Hitbox:
			found = append(found, candidate{0, data.Name, &contact.Collider{
				Name:  data.Name,
				Owner: data.Owner,
				Blade: data,
				Point: p.centre(obj),
			}})
		case *contact.Combatant:
			found = append(found, candidate{1, data.Name, &contact.Collider{
				Name:  data.Name,
				Owner: data,
				Point: p.closestPoint(obj, p.centre(blade)),
			}})
		}
	}
	slices.SortFunc(found, func(a, b candidate) int {
		if a.order != b.order {
			return cmp.Compare(a.order, b.order)
		}
		return cmp.Compare(a.name, b.name)
	})
	out := make([]*contact.Collider, len(found))
	for i, f := range found {
		out[i] = f.c
	}
	return out
}

func overlaps(a, b *resolv.Object) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

func (p *Physics) centre(obj *resolv.Object) geom.Vec {
	return geom.V(obj.X+obj.W/2-p.cfg.Width/2, obj.Y+obj.H/2-p.cfg.Height/2)
}

// closestPoint clamps world point v into obj's rectangle.
func (p *Physics) closestPoint(obj *resolv.Object, v geom.Vec) geom.Vec {
	minX, minY := obj.X-p.cfg.Width/2, obj.Y-p.cfg.Height/2
	return geom.V(
		min(max(v.X, minX), minX+obj.W),
		min(max(v.Y, minY), minY+obj.H),
	)
}
