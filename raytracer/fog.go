package raytracer

import (
	"math"
	"math/rand"

	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

// isotropicPhase is the phase function weight for uniformly-sampled fog
// scattering directions: a constant 1/(4*pi) integrates to 1 over the
// sphere, but since we already sample the outgoing direction uniformly the
// remaining phase contribution is just 1.
const isotropicPhase = 1.0

// fogScatter samples a free-flight distance along ray using the sky's
// homogeneous fog density: s = -ln(xi)/fogDensity; if s falls short of
// maxDist, the ray scatters isotropically at that point. maxDist is the
// distance to the next surface hit (or the far clip).
func (ig Integrator) fogScatter(s *scene.Scene, ray vmath.Ray, rng *rand.Rand, maxDist float32) (float32, bool) {
	density := s.Sky.FogDensity
	if density <= 0 {
		return 0, false
	}
	xi := rng.Float32()
	for xi <= 0 {
		xi = rng.Float32()
	}
	dist := float32(-math.Log(float64(xi))) / density
	if dist >= maxDist {
		return 0, false
	}
	return dist, true
}
