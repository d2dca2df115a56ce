// Package geom provides planar vector helpers over donburi's Vec2.
//
// All combat geometry is evaluated on the ground plane; height is never
// carried, matching how the motion collaborator reports positions.
package geom

import (
	"math"

	dmath "github.com/yohamta/donburi/features/math"
)

// Vec is a point or direction on the ground plane.
type Vec = dmath.Vec2

// epsilon below which a squared length is treated as zero.
const epsilon = 0.0001

// V constructs a Vec.
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

// Add returns a+b.
func Add(a, b Vec) Vec { return Vec{X: a.X + b.X, Y: a.Y + b.Y} }

// Sub returns a-b.
func Sub(a, b Vec) Vec { return Vec{X: a.X - b.X, Y: a.Y - b.Y} }

// Scale returns v*s.
func Scale(v Vec, s float64) Vec { return Vec{X: v.X * s, Y: v.Y * s} }

// Dot returns the dot product of a and b.
func Dot(a, b Vec) float64 { return a.X*b.X + a.Y*b.Y }

// LenSq returns the squared length of v.
func LenSq(v Vec) float64 { return Dot(v, v) }

// Len returns the length of v.
func Len(v Vec) float64 { return math.Sqrt(LenSq(v)) }

// Dist returns the distance between a and b.
func Dist(a, b Vec) float64 { return Len(Sub(a, b)) }

// IsZero reports whether v is shorter than the package epsilon.
func IsZero(v Vec) bool { return LenSq(v) < epsilon }

// Normalize returns v scaled to unit length, or the zero vector when v is
// (nearly) zero.
func Normalize(v Vec) Vec {
	if IsZero(v) {
		return Vec{}
	}
	l := Len(v)
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Heading returns the unit vector for an angle in radians, measured
// counter-clockwise from +X.
func Heading(rad float64) Vec { return Vec{X: math.Cos(rad), Y: math.Sin(rad)} }

// Angle returns the heading angle of v in radians.
func Angle(v Vec) float64 { return math.Atan2(v.Y, v.X) }

// RightOf returns the unit vector 90 degrees clockwise of forward.
func RightOf(forward Vec) Vec { return Vec{X: forward.Y, Y: -forward.X} }

// RotateTowards turns heading current toward target by at most maxStep
// radians and returns the new heading angle.
//
// Postcondition: the returned angle is normalized to (-Pi, Pi].
func RotateTowards(current, target, maxStep float64) float64 {
	diff := NormalizeAngle(target - current)
	if math.Abs(diff) <= maxStep {
		return NormalizeAngle(target)
	}
	if diff > 0 {
		return NormalizeAngle(current + maxStep)
	}
	return NormalizeAngle(current - maxStep)
}

// NormalizeAngle wraps angle into (-Pi, Pi].
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
