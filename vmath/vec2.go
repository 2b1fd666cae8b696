package vmath

import "math"

// Vec2 is a 2D vector, used both for texture/UV coordinates and for points
// sampled on the unit disk (camera lens jitter, sun angular-disk jitter).
type Vec2 struct {
	X, Y float32
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2) Mul(scalar float32) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

func (v Vec2) Dot(other Vec2) float32 {
	return v.X*other.X + v.Y*other.Y
}

func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

func (v Vec2) Normalize() Vec2 {
	length := v.Length()
	if length > 0 {
		return v.Mul(1.0 / length)
	}
	return v
}

func (v Vec2) Lerp(other Vec2, t float32) Vec2 {
	return v.Add(other.Sub(v).Mul(t))
}

// SampleUnitDisk maps two uniform random numbers in [0,1) to a point
// uniformly distributed over the unit disk, via the polar map: radius
// sqrt(u1), angle 2*pi*u2. Used to
// jitter a thin-lens camera ray's origin and the sun's angular disk.
func SampleUnitDisk(u1, u2 float32) Vec2 {
	r := float32(math.Sqrt(float64(u1)))
	theta := 2 * math.Pi * float64(u2)
	return Vec2{X: r * float32(math.Cos(theta)), Y: r * float32(math.Sin(theta))}
}
