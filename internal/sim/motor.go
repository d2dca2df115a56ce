package sim

import (
	"math"

	"github.com/cory-johannsen/guardbreak/internal/game/geom"
)

// Kinematic moves a Pose directly, without physics, at a fixed speed.
// It implements enemy.Motor.
type Kinematic struct {
	pose *Pose
	// MoveSpeed is in units per second.
	MoveSpeed float64
	// RotationSpeed is in degrees per second.
	RotationSpeed    float64
	StoppingDistance float64

	alive func() bool
	dt    float64
	vel   geom.Vec
}

// NewKinematic creates a motor for pose. alive gates CanMove and may be nil.
func NewKinematic(pose *Pose, moveSpeed, rotationSpeed, stoppingDistance float64, alive func() bool) *Kinematic {
	return &Kinematic{
		pose:             pose,
		MoveSpeed:        moveSpeed,
		RotationSpeed:    rotationSpeed,
		StoppingDistance: stoppingDistance,
		alive:            alive,
	}
}

// Begin sets the step length used during the coming tick.
func (k *Kinematic) Begin(dt float64) { k.dt = dt }

// Velocity returns the velocity requested for this tick.
func (k *Kinematic) Velocity() geom.Vec { return k.vel }

// Integrate applies the requested velocity for one step and clears it, so a
// motor that is not driven next tick stands still.
func (k *Kinematic) Integrate() {
	if k.CanMove() && !geom.IsZero(k.vel) {
		k.pose.Pos = geom.Add(k.pose.Pos, geom.Scale(k.vel, k.dt))
	}
	k.vel = geom.Vec{}
}

// CanMove is false once the owner is dead.
func (k *Kinematic) CanMove() bool {
	return k.pose != nil && (k.alive == nil || k.alive())
}

// DistanceTo returns the planar distance to p.
func (k *Kinematic) DistanceTo(p geom.Vec) float64 {
	return geom.Dist(k.pose.Pos, p)
}

// FaceTowards turns toward p by at most RotationSpeed*dt.
func (k *Kinematic) FaceTowards(p geom.Vec) {
	to := geom.Sub(p, k.pose.Pos)
	if geom.IsZero(to) {
		return
	}
	maxStep := k.RotationSpeed * math.Pi / 180 * k.dt
	k.pose.Heading = geom.RotateTowards(k.pose.Heading, geom.Angle(to), maxStep)
}

// MoveTowards faces p and advances toward it, never closer than StoppingDistance.
func (k *Kinematic) MoveTowards(p geom.Vec) {
	if !k.CanMove() {
		return
	}
	to := geom.Sub(p, k.pose.Pos)
	dist := geom.Len(to)
	if dist <= k.StoppingDistance {
		k.Stop()
		return
	}
	k.FaceTowards(p)
	speed := k.MoveSpeed
	if k.dt > 0 {
		// Do not overshoot the stopping ring in one step.
		speed = min(speed, (dist-k.StoppingDistance)/k.dt)
	}
	k.vel = geom.Scale(geom.Normalize(to), speed)
}

// Walk requests movement along dir at MoveSpeed without turning.
func (k *Kinematic) Walk(dir geom.Vec) {
	if !k.CanMove() || geom.IsZero(dir) {
		k.Stop()
		return
	}
	k.vel = geom.Scale(geom.Normalize(dir), k.MoveSpeed)
}

// Stop cancels any movement requested this tick.
func (k *Kinematic) Stop() { k.vel = geom.Vec{} }
