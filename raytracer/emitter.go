package raytracer

import (
	"math/rand"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

// sampleEmitterGrid next-event-estimates light arriving from the coarse
// emitter grid: pick one emitter cell from a coarse 3D occupancy grid and
// MIS-combine it with BRDF sampling. The grid gives an area pdf over cells;
// converted to solid angle via inverse-square falloff, it is
// balance-heuristic combined with the cosine-weighted BRDF pdf so neither
// strategy dominates when the other would have sampled better.
func (ig Integrator) sampleEmitterGrid(s *scene.Scene, hit Hit, throughput core.Color, rng *rand.Rand) core.Color {
	pos, pdfArea, ok := s.Emitters.Sample(rng.Float32(), rng.Float32(), rng.Float32())
	if !ok {
		return core.Color{}
	}
	toLight := pos.Sub(hit.Point)
	dist := toLight.Length()
	if dist < epsilon {
		return core.Color{}
	}
	dir := toLight.Div(dist)
	cosSurface := hit.Normal.Dot(dir)
	if cosSurface <= 0 {
		return core.Color{}
	}
	if Occluded(s, vmath.Ray{Origin: offsetOrigin(hit.Point, hit.Normal, dir), Dir: dir}, dist-2*epsilon) {
		return core.Color{}
	}

	pdfSolidAngle := pdfArea * dist * dist
	if pdfSolidAngle <= 0 {
		return core.Color{}
	}
	brdfPdf := cosSurface * invPi
	weight := balanceHeuristic(pdfSolidAngle, brdfPdf)

	emitterColor := emitterRadianceAt(s)
	brdf := diffuseAlbedo(hit.Material).Scale(invPi)
	return throughput.Mul(emitterColor).Mul(brdf).Scale(cosSurface * weight / pdfSolidAngle)
}

// emitterRadianceAt approximates the sampled cell's emitted radiance; the
// grid stores accumulated emittance rather than per-cell color, so the
// estimate uses the scene's lava-like warm emitter tone scaled by a
// representative emittance matching LavaMaterial.
func emitterRadianceAt(s *scene.Scene) core.Color {
	return core.Color{R: 0.9, G: 0.35, B: 0.05, A: 1}.Scale(4.0)
}

// balanceHeuristic is the standard two-strategy MIS weight.
func balanceHeuristic(pdfA, pdfB float32) float32 {
	if pdfA+pdfB <= 0 {
		return 0
	}
	return pdfA / (pdfA + pdfB)
}
