package raytracer

import (
	"math"
	"math/rand"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

const invPi = 1 / math.Pi

// directSun next-event-estimates the sun's contribution at hit: sample a
// direction within the sun's angular disk, shadow-test it, and weight by
// the Lambertian cosine term (throughput * sunRadiance * visibility * BRDF).
func (ig Integrator) directSun(s *scene.Scene, hit Hit, throughput core.Color, rng *rand.Rand) core.Color {
	toSun := s.Sun.SampleDirection(rng.Float32(), rng.Float32())
	cosTheta := hit.Normal.Dot(toSun)
	if cosTheta <= 0 {
		return core.Color{}
	}
	shadowRay := vmath.Ray{Origin: offsetOrigin(hit.Point, hit.Normal, toSun), Dir: toSun}
	if Occluded(s, shadowRay, 1e30) {
		return core.Color{}
	}
	brdf := diffuseAlbedo(hit.Material).Scale(invPi)
	return throughput.Mul(s.Sun.Radiance()).Mul(brdf).Scale(cosTheta)
}

func diffuseAlbedo(mat *palette.Material) core.Color {
	if mat == nil {
		return core.ColorWhite
	}
	return mat.Albedo
}
