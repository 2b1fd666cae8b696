package raytracer

import (
	"math"
	"math/rand"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

// waterOpacity is the Beer-Lambert absorption coefficient for water/lava
// media; materials don't carry their own, so every material that reaches
// shadeWater shares this one coefficient.
const waterOpacity = 0.35

// isWaterRaw reports whether raw is a water/lava voxel, for ExitWater's
// "still inside the medium" test.
func isWaterRaw(raw uint32) bool {
	return raw != 0 && raw != octreeAnyType
}

// octreeAnyType mirrors octree.AnyType; kept local so this file does not
// need to import octree just for the sentinel (the package never names
// octree types directly, only through scene.Scene's fields — see
// intersect.go).
const octreeAnyType = 0xFFFFFFFF

// shadeWater handles a ray entering a water or lava surface: a
// Fresnel-blend choice between reflecting off the surface and refracting
// into the medium, followed by Beer-Lambert absorption over the distance
// traveled inside before ExitWater finds the
// far boundary.
func (ig Integrator) shadeWater(s *scene.Scene, ray vmath.Ray, hit Hit, rng *rand.Rand, depth int, throughput core.Color) core.Color {
	mat := hit.Material
	if mat == nil {
		return core.Color{}
	}

	normal := hit.Normal
	cosTheta := -ray.Dir.Dot(normal)
	entering := cosTheta > 0
	if !entering {
		normal = normal.Negate()
		cosTheta = -cosTheta
	}

	iorFrom, iorTo := float32(1.0), mat.IOR
	if mat.IOR <= 0 {
		iorTo = 1.33
	}
	reflectance := vmath.Schlick(cosTheta, iorFrom, iorTo)

	if rng.Float32() < reflectance {
		reflectDir := ray.Dir.Reflect(normal)
		origin := offsetOrigin(hit.Point, hit.Normal, reflectDir)
		newThroughput := throughput
		if !ig.survivesRoulette(&newThroughput, depth, rng) {
			return core.Color{}
		}
		return ig.trace(s, vmath.Ray{Origin: origin, Dir: reflectDir}, rng, depth+1, newThroughput)
	}

	refractDir, ok := ray.Dir.Refract(normal, iorFrom/iorTo)
	if !ok {
		// total internal reflection: fall back to reflect.
		refractDir = ray.Dir.Reflect(normal)
	}
	entryPoint := offsetOrigin(hit.Point, hit.Normal, refractDir)
	exitHit, found := s.Water.ExitWater(vmath.Ray{Origin: entryPoint, Dir: refractDir}, isWaterRaw)

	traveled := float32(4.0) // fallback path length when the medium boundary isn't found within the octree
	if found {
		traveled = exitHit.Distance
	}

	absorb := beerLambert(mat.Albedo, waterOpacity, traveled)
	newThroughput := throughput.Mul(absorb)
	if !ig.survivesRoulette(&newThroughput, depth, rng) {
		return core.Color{}
	}

	exitPoint := ray.At(hit.Distance + traveled)
	origin := exitPoint.Add(refractDir.Mul(epsilon))
	return ig.trace(s, vmath.Ray{Origin: origin, Dir: refractDir}, rng, depth+1, newThroughput)
}

// beerLambert computes the Beer-Lambert transmittance over distance t
// through a medium whose albedo stands in for its absorption color (spec
// §4.3 "exp(-waterOpacity * t * waterColor)"); darker/more saturated albedo
// channels absorb their complement faster.
func beerLambert(albedo core.Color, opacity float32, t float32) core.Color {
	absorb := func(c float32) float32 {
		return float32(math.Exp(-float64(opacity) * float64(t) * float64(1-c)))
	}
	return core.Color{R: absorb(albedo.R), G: absorb(albedo.G), B: absorb(albedo.B), A: 1}
}
