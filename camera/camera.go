// Package camera generates primary view rays for the image plane. Position
// and orientation are cached behind a dirty flag so repeated ray generation
// doesn't redo the same trig every sample; a Projection maps a normalized
// image-plane coordinate straight to a world-space Ray, since a path tracer
// never needs a view/projection matrix pair the way a rasterizer would.
package camera

import (
	"math"

	"github.com/voxelforge/tracecore/vmath"
)

// ProjectionKind selects the lens model a Camera uses to build view rays.
type ProjectionKind int

const (
	Pinhole ProjectionKind = iota
	Fisheye
	Panoramic
	Stereoscopic
)

// Camera is a positioned, oriented viewpoint plus the lens parameters that
// turn a normalized image coordinate into a primary ray.
type Camera struct {
	Position vmath.Vec3
	Rotation vmath.Quaternion

	FOV         float32 // radians, vertical field of view (Pinhole/Fisheye)
	AspectRatio float32

	Projection ProjectionKind

	// Thin-lens depth of field; ApertureRadius = 0 disables it (pinhole).
	ApertureRadius float32
	FocusDistance  float32

	// EyeSeparation only applies when Projection == Stereoscopic.
	EyeSeparation float32
	LeftEye       bool
}

func New(fov, aspectRatio float32) *Camera {
	return &Camera{
		Position:      vmath.Vec3Zero,
		Rotation:      vmath.QuaternionIdentity(),
		FOV:           fov,
		AspectRatio:   aspectRatio,
		Projection:    Pinhole,
		FocusDistance: 10,
	}
}

func (c *Camera) SetPosition(pos vmath.Vec3) { c.Position = pos }
func (c *Camera) SetRotation(rot vmath.Quaternion) { c.Rotation = rot }

func (c *Camera) Translate(delta vmath.Vec3) { c.Position = c.Position.Add(delta) }

func (c *Camera) Rotate(axis vmath.Vec3, angle float32) {
	c.Rotation = c.Rotation.Mul(vmath.QuaternionFromAxisAngle(axis, angle)).Normalize()
}

func (c *Camera) LookAt(target, up vmath.Vec3) {
	c.Rotation = vmath.QuaternionLookAt(c.Position, target, up)
}

func (c *Camera) Forward() vmath.Vec3 { return c.Rotation.RotateVector(vmath.Vec3Front) }
func (c *Camera) Right() vmath.Vec3   { return c.Rotation.RotateVector(vmath.Vec3Right) }
func (c *Camera) Up() vmath.Vec3      { return c.Rotation.RotateVector(vmath.Vec3Up) }

// ViewRay builds the primary ray for image-plane coordinate (u, v), both in
// [-1, 1] with (0,0) at image center and +v up. lensU/lensV are uniform
// random numbers in [0,1) consumed only when ApertureRadius > 0, for thin-
// lens depth-of-field jitter.
func (c *Camera) ViewRay(u, v, lensU, lensV float32) vmath.Ray {
	dir := c.localDirection(u, v)
	worldDir := c.Rotation.RotateVector(dir)
	origin := c.eyeOffset()

	if c.ApertureRadius <= 0 {
		return vmath.NewRay(origin, worldDir)
	}

	focusPoint := origin.Add(worldDir.Mul(c.FocusDistance / maxF(worldDir.Dot(c.Forward()), 1e-4)))
	lens := vmath.SampleUnitDisk(lensU, lensV)
	dx := lens.X * c.ApertureRadius
	dy := lens.Y * c.ApertureRadius
	jitteredOrigin := origin.Add(c.Right().Mul(dx)).Add(c.Up().Mul(dy))
	return vmath.NewRay(jitteredOrigin, focusPoint.Sub(jitteredOrigin))
}

// eyeOffset shifts Position sideways by half the eye separation for
// Stereoscopic rendering; every other projection returns Position unchanged.
func (c *Camera) eyeOffset() vmath.Vec3 {
	if c.Projection != Stereoscopic || c.EyeSeparation == 0 {
		return c.Position
	}
	sign := float32(1)
	if c.LeftEye {
		sign = -1
	}
	return c.Position.Add(c.Right().Mul(sign * c.EyeSeparation * 0.5))
}

// localDirection maps (u, v) to a camera-local ray direction (+Z forward)
// according to the active lens model.
func (c *Camera) localDirection(u, v float32) vmath.Vec3 {
	switch c.Projection {
	case Fisheye:
		return fisheyeDirection(u, v, c.FOV)
	case Panoramic:
		return panoramicDirection(u, v)
	default: // Pinhole, Stereoscopic (stereo reuses the pinhole frustum)
		halfH := float32(math.Tan(float64(c.FOV / 2)))
		halfW := halfH * c.AspectRatio
		return vmath.Vec3{X: u * halfW, Y: v * halfH, Z: 1}.Normalize()
	}
}

// fisheyeDirection maps (u, v) through an equidistant fisheye projection
// with half-angle fov/2: radius in the image plane maps linearly to the
// polar angle from forward.
func fisheyeDirection(u, v, fov float32) vmath.Vec3 {
	r := float32(math.Hypot(float64(u), float64(v)))
	if r > 1 {
		r = 1
	}
	theta := r * (fov / 2)
	phi := float32(math.Atan2(float64(v), float64(u)))
	sinT := float32(math.Sin(float64(theta)))
	return vmath.Vec3{
		X: sinT * float32(math.Cos(float64(phi))),
		Y: sinT * float32(math.Sin(float64(phi))),
		Z: float32(math.Cos(float64(theta))),
	}
}

// panoramicDirection maps u to a full 360° longitude and v to a 180°
// latitude band, the equirectangular projection used for ~180°+ FoV
// panoramic renders.
func panoramicDirection(u, v float32) vmath.Vec3 {
	lon := u * math.Pi
	lat := v * (math.Pi / 2)
	cosLat := float32(math.Cos(float64(lat)))
	return vmath.Vec3{
		X: cosLat * float32(math.Sin(float64(lon))),
		Y: float32(math.Sin(float64(lat))),
		Z: cosLat * float32(math.Cos(float64(lon))),
	}
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
