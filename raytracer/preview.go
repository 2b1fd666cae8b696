package raytracer

import (
	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

// Preview is the one-bounce shader used for live feedback: intersect once;
// if hit, shade by surface color x (0.25 + 0.75 * max(0, N.(-sunDir))); if
// miss, sample the sky (with fog).
func Preview(s *scene.Scene, ray vmath.Ray) core.Color {
	hit, ok := Intersect(s, ray, epsilon, 1e30)
	if !ok {
		return s.Sky.SampleWithFog(ray.Dir.Y)
	}
	// Sun.Direction already points from the scene toward the sun, so no
	// extra negation is needed for the spec's N.(-sunDir) term.
	lambert := maxF(0, hit.Normal.Dot(s.Sun.Direction))
	shade := 0.25 + 0.75*lambert
	return albedoAt(hit).Scale(shade)
}

func albedoAt(h Hit) core.Color {
	if h.Material == nil {
		return core.ColorWhite
	}
	if h.Material.Texture != nil {
		return h.Material.Texture.Sample(h.UV.X, h.UV.Y)
	}
	return h.Material.Albedo
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
