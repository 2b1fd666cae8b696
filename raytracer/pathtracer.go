package raytracer

import (
	"math/rand"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

// MaxBounceCap is the absolute bounce ceiling regardless of Russian
// roulette; no configuration can exceed it.
const MaxBounceCap = 64

// Integrator holds the path tracer's tunable parameters.
type Integrator struct {
	// RouletteDepth is the bounce depth at which Russian roulette
	// termination begins, killing the path with probability 0.5 and
	// doubling the throughput of survivors.
	RouletteDepth int
	// EnableEmitters toggles emitter-grid MIS sampling.
	EnableEmitters bool
}

func DefaultIntegrator() Integrator {
	return Integrator{RouletteDepth: 4, EnableEmitters: true}
}

// Trace estimates the radiance arriving along ray, recursively sampling
// bounces up to MaxBounceCap. rng is the caller's random source (the render
// package builds one per pixel sample, seeded via core.SeedFor, so path
// tracing never contends on a shared lock).
func (ig Integrator) Trace(s *scene.Scene, ray vmath.Ray, rng *rand.Rand) core.Color {
	return ig.trace(s, ray, rng, 0, core.Color{R: 1, G: 1, B: 1, A: 1})
}

func (ig Integrator) trace(s *scene.Scene, ray vmath.Ray, rng *rand.Rand, depth int, throughput core.Color) core.Color {
	if depth >= MaxBounceCap {
		return core.Color{}
	}

	hit, ok := Intersect(s, ray, epsilon, 1e30)
	surfaceDist := float32(1e30)
	if ok {
		surfaceDist = hit.Distance
	}

	if seg, scattered := ig.fogScatter(s, ray, rng, surfaceDist); scattered {
		newThroughput := throughput.Mul(s.Sky.FogColor).Scale(isotropicPhase)
		if !ig.survivesRoulette(&newThroughput, depth, rng) {
			return core.Color{}
		}
		dir := vmath.UniformSampleSphere(rng.Float32(), rng.Float32())
		return ig.trace(s, vmath.Ray{Origin: ray.At(seg), Dir: dir}, rng, depth+1, newThroughput)
	}

	if !ok {
		return throughput.Mul(s.Sky.SampleWithFog(ray.Dir.Y))
	}

	if hit.Kind == HitWater {
		return ig.shadeWater(s, ray, hit, rng, depth, throughput)
	}

	var radiance core.Color
	mat := hit.Material
	if mat != nil && mat.Emittance > 0 {
		radiance = radiance.Add(throughput.Mul(mat.Albedo).Scale(mat.Emittance))
	}

	radiance = radiance.Add(ig.directSun(s, hit, throughput, rng))
	if ig.EnableEmitters && s.Emitters != nil {
		radiance = radiance.Add(ig.sampleEmitterGrid(s, hit, throughput, rng))
	}

	bounceDir, bounceThroughput, ok := sampleBRDF(mat, ray.Dir, hit.Normal, rng, throughput)
	if !ok {
		return radiance
	}
	if !ig.survivesRoulette(&bounceThroughput, depth, rng) {
		return radiance
	}
	origin := offsetOrigin(hit.Point, hit.Normal, bounceDir)
	radiance = radiance.Add(ig.trace(s, vmath.Ray{Origin: origin, Dir: bounceDir}, rng, depth+1, bounceThroughput))
	return radiance
}

// survivesRoulette applies Russian-roulette termination once depth reaches
// RouletteDepth, scaling throughput in place to stay an unbiased estimator.
func (ig Integrator) survivesRoulette(throughput *core.Color, depth int, rng *rand.Rand) bool {
	if depth < ig.RouletteDepth {
		return true
	}
	const p = 0.5
	if rng.Float32() >= p {
		return false
	}
	*throughput = throughput.Scale(1 / p)
	return true
}

// offsetOrigin nudges a new ray's origin off the surface along its normal,
// on whichever side bounceDir points, to avoid immediately re-hitting the
// same surface from floating-point error (spec's tie-break epsilon).
func offsetOrigin(point, normal, dir vmath.Vec3) vmath.Vec3 {
	s := float32(epsilon)
	if dir.Dot(normal) < 0 {
		s = -epsilon
	}
	return point.Add(normal.Mul(s))
}
