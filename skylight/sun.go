package skylight

import (
	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/vmath"
)

// Sun is a single directional light with a small angular disk, used for
// both direct-light sampling (sampling within the sun's angular disk) and
// the preview shader's N·(-sunDir) term.
type Sun struct {
	Direction     vmath.Vec3 // points FROM the scene TOWARD the sun
	Color         core.Color
	Intensity     float32
	AngularRadius float32 // radians; real sun ~0.00465 rad, exaggerated for softer shadows
}

// DefaultSun returns a reasonable bright-midday sun for scenes that don't
// specify their own.
func DefaultSun() Sun {
	return Sun{
		Direction:     vmath.Vec3{X: 0.35, Y: 0.85, Z: 0.2}.Normalize(),
		Color:         core.Color{R: 1.00, G: 0.98, B: 0.92, A: 1},
		Intensity:     1.20,
		AngularRadius: 0.04,
	}
}

// Radiance returns the sun's emitted radiance (Color scaled by Intensity).
func (s Sun) Radiance() core.Color {
	return s.Color.Scale(s.Intensity)
}

// SampleDirection jitters Direction within the sun's angular disk using two
// uniform random numbers in [0,1), producing the soft-shadow cone the path
// tracer samples once per direct-light estimate.
func (s Sun) SampleDirection(u1, u2 float32) vmath.Vec3 {
	t, b := s.Direction.Basis()
	disk := vmath.SampleUnitDisk(u1, u2)
	dx := disk.X * s.AngularRadius
	dy := disk.Y * s.AngularRadius
	dir := s.Direction.Add(t.Mul(dx)).Add(b.Mul(dy))
	return dir.Normalize()
}
