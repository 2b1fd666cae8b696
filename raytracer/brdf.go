package raytracer

import (
	"math/rand"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/vmath"
)

// sampleBRDF importance-samples the next bounce direction for a surface hit:
// it probabilistically chooses between a diffuse cosine-weighted bounce and
// a specular reflection, weighted by Schlick's approximation at the hit's
// incidence angle. Returns the sampled direction, the throughput multiplier
// to apply for that lobe (already divided by its own pdf, so callers just
// multiply it in), and false when mat is nil, when the sampled specular
// direction falls below the surface, or when the diffuse lobe has zero
// selection probability.
func sampleBRDF(mat *palette.Material, viewDir, normal vmath.Vec3, rng *rand.Rand, throughput core.Color) (vmath.Vec3, core.Color, bool) {
	if mat == nil {
		return vmath.Vec3{}, core.Color{}, false
	}

	cosTheta := -viewDir.Dot(normal)
	if cosTheta < 0 {
		cosTheta = -cosTheta
	}
	iorTo := mat.IOR
	if iorTo <= 0 {
		iorTo = 1.0
	}
	specChance := mat.Specular + (1-mat.Specular)*vmath.Schlick(cosTheta, 1.0, iorTo)
	if specChance > 1 {
		specChance = 1
	}

	if rng.Float32() < specChance {
		dir := specularLobe(viewDir, normal, mat.Roughness, rng)
		if dir.Dot(normal) <= 0 {
			return vmath.Vec3{}, core.Color{}, false
		}
		// Specular throughput stays white (no albedo tint) and cancels its
		// own pdf (1/specChance) against the selection probability.
		tint := core.Color{R: 1, G: 1, B: 1, A: 1}
		return dir, throughput.Mul(tint).Scale(1 / specChance), true
	}

	diffuseChance := 1 - specChance
	if diffuseChance <= 0 {
		return vmath.Vec3{}, core.Color{}, false
	}
	dir := normal.CosineSampleHemisphere(rng.Float32(), rng.Float32())
	// Cosine-weighted sampling's pdf (cos/pi) cancels the BRDF's cos/pi
	// term exactly, leaving just the albedo divided by the lobe-selection
	// probability.
	return dir, throughput.Mul(mat.Albedo).Scale(1 / diffuseChance), true
}

// specularLobe perturbs the mirror-reflect direction by roughness, widening
// the specular lobe from a perfect mirror toward a rough microfacet look
// without a full GGX sampling routine.
func specularLobe(viewDir, normal vmath.Vec3, roughness float32, rng *rand.Rand) vmath.Vec3 {
	mirror := viewDir.Reflect(normal)
	if roughness <= 0 {
		return mirror.Normalize()
	}
	t, b := mirror.Normalize().Basis()
	lens := vmath.SampleUnitDisk(rng.Float32(), rng.Float32())
	perturbed := mirror.Add(t.Mul(lens.X * roughness)).Add(b.Mul(lens.Y * roughness))
	return perturbed.Normalize()
}
