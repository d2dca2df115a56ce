package sim

import (
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"

	"github.com/cory-johannsen/guardbreak/internal/game/combat"
	"github.com/cory-johannsen/guardbreak/internal/game/contact"
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/game/rig"
	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// Pose is a combatant's planar position and heading.
type Pose struct {
	Pos     geom.Vec
	Heading float64 // radians, counter-clockwise from +X
}

// Position implements contact.Body.
func (p *Pose) Position() geom.Vec { return p.Pos }

// Forward implements contact.Body.
func (p *Pose) Forward() geom.Vec { return geom.Heading(p.Heading) }

type CombatantData struct {
	*contact.Combatant
}

type BodyData struct {
	*Pose
	Object *resolv.Object
}

type RigData struct {
	*rig.Rig
}

type HealthData struct {
	*combat.Health
}

type BrainData struct {
	*enemy.Controller
	Motor *Kinematic
}

type BladeData struct {
	Hitbox *contact.Hitbox
	Object *resolv.Object
}

type PlayerMoveData struct {
	Motor *Kinematic
	// Heading the player walks toward; zero means standing still.
	Dir   geom.Vec
	Flick *stance.FlickSelector
}

var (
	Combatant  = donburi.NewComponentType[CombatantData]()
	Body       = donburi.NewComponentType[BodyData]()
	Rig        = donburi.NewComponentType[RigData]()
	Health     = donburi.NewComponentType[HealthData]()
	Brain      = donburi.NewComponentType[BrainData]()
	Blade      = donburi.NewComponentType[BladeData]()
	PlayerMove = donburi.NewComponentType[PlayerMoveData]()

	PlayerTag = donburi.NewTag().SetName("Player")
	EnemyTag  = donburi.NewTag().SetName("Enemy")
)

// resolv tags
const (
	tagBody  = "body"
	tagBlade = "blade"
)
