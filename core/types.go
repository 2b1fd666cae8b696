package core

import (
	"github.com/voxelforge/tracecore/vmath"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite  = Color{1, 1, 1, 1}
	ColorBlack  = Color{0, 0, 0, 1}
	ColorRed    = Color{1, 0, 0, 1}
	ColorGreen  = Color{0, 1, 0, 1}
	ColorBlue   = Color{0, 0, 1, 1}
	ColorYellow = Color{1, 1, 0, 1}
)

func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A}
}

func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B, c.A}
}

func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A}
}

// Vertex is one corner of a triangle-mesh entity primitive.
type Vertex struct {
	Position  vmath.Vec3
	Normal    vmath.Vec3
	UV        vmath.Vec2
	Color     Color
	Tangent   vmath.Vec3
	Bitangent vmath.Vec3
}

// Transform places an entity's local geometry into scene (octree) space.
type Transform struct {
	Position vmath.Vec3
	Rotation vmath.Quaternion
	Scale    vmath.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: vmath.Vec3Zero,
		Rotation: vmath.QuaternionIdentity(),
		Scale:    vmath.Vec3One,
	}
}

func (t Transform) GetMatrix() vmath.Mat4 {
	translation := vmath.Mat4Translation(t.Position)
	rotation := t.Rotation.ToMat4()
	scale := vmath.Mat4Scale(t.Scale)
	return translation.Mul(rotation).Mul(scale)
}

func (t Transform) GetForward() vmath.Vec3 {
	return t.Rotation.RotateVector(vmath.Vec3Front)
}

func (t Transform) GetRight() vmath.Vec3 {
	return t.Rotation.RotateVector(vmath.Vec3Right)
}

func (t Transform) GetUp() vmath.Vec3 {
	return t.Rotation.RotateVector(vmath.Vec3Up)
}
