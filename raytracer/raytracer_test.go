package raytracer

import (
	"math/rand"
	"testing"

	"github.com/voxelforge/tracecore/bvh"
	"github.com/voxelforge/tracecore/octree"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

func newTestScene(t *testing.T) *scene.Scene {
	t.Helper()
	pal := palette.New()
	stoneID := pal.Add(palette.DefaultMaterial())

	solid := octree.NewNode(4)
	if err := solid.Set(pal.Encode(stoneID, 0), 8, 8, 8); err != nil {
		t.Fatalf("Set solid voxel: %v", err)
	}
	water := octree.NewNode(4)
	octree.Finalize(solid, water, pal)

	s := scene.New(solid, water, bvh.New(nil), pal, 4, 4)
	return s
}

func TestIntersectFindsSolidVoxel(t *testing.T) {
	s := newTestScene(t)
	ray := vmath.Ray{Origin: vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, Dir: vmath.Vec3{Z: 1}}
	hit, ok := Intersect(s, ray, epsilon, 1e30)
	if !ok {
		t.Fatal("expected a hit on the solid voxel")
	}
	if hit.Kind != HitSolid {
		t.Fatalf("Kind = %v, want HitSolid", hit.Kind)
	}
	if hit.Material == nil || hit.Material.Name != "default" {
		t.Fatalf("Material = %+v, want the default material", hit.Material)
	}
}

func TestIntersectMissesEmptyScene(t *testing.T) {
	pal := palette.New()
	s := scene.New(octree.NewNode(4), octree.NewNode(4), bvh.New(nil), pal, 4, 4)
	ray := vmath.Ray{Origin: vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, Dir: vmath.Vec3{Z: 1}}
	if _, ok := Intersect(s, ray, epsilon, 1e30); ok {
		t.Fatal("expected no hit in an empty scene")
	}
}

func TestOccludedDetectsSolidVoxel(t *testing.T) {
	s := newTestScene(t)
	ray := vmath.Ray{Origin: vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, Dir: vmath.Vec3{Z: 1}}
	if !Occluded(s, ray, 1e30) {
		t.Fatal("expected the solid voxel to occlude the ray")
	}
}

func TestPreviewSampleSkyOnMiss(t *testing.T) {
	pal := palette.New()
	s := scene.New(octree.NewNode(4), octree.NewNode(4), bvh.New(nil), pal, 4, 4)
	ray := vmath.Ray{Origin: vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, Dir: vmath.Vec3{Y: 1}}
	got := Preview(s, ray)
	want := s.Sky.SampleWithFog(ray.Dir.Y)
	if got != want {
		t.Fatalf("Preview on miss = %+v, want sky sample %+v", got, want)
	}
}

func TestPreviewShadesSolidVoxelByLambert(t *testing.T) {
	s := newTestScene(t)
	ray := vmath.Ray{Origin: vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, Dir: vmath.Vec3{Z: 1}}
	c := Preview(s, ray)
	if c.R <= 0 || c.G <= 0 || c.B <= 0 {
		t.Fatalf("expected nonzero shaded color, got %+v", c)
	}
}

// TestTraceStaysFinite checks that no NaN/Inf ever reaches the sample
// buffer: many traced paths through a nontrivial scene (solid voxel, sky,
// sun, fog) must never produce a non-finite radiance component.
func TestTraceStaysFinite(t *testing.T) {
	s := newTestScene(t)
	s.Sky.FogDensity = 0.05
	ig := DefaultIntegrator()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		ray := vmath.Ray{Origin: vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, Dir: vmath.Vec3{Z: 1}}
		c := ig.Trace(s, ray, rng)
		if isNonFinite(c.R) || isNonFinite(c.G) || isNonFinite(c.B) {
			t.Fatalf("iteration %d: non-finite radiance %+v", i, c)
		}
	}
}

// TestTraceTerminatesWithinBounceCap exercises a fully mirror-like material
// (Specular=1) bouncing inside a box of solid voxels, verifying the
// recursion always returns rather than exceeding Go's call-stack limits —
// MaxBounceCap is the backstop regardless of Russian roulette's 1/p
// inflation never kicking in by chance.
func TestTraceTerminatesWithinBounceCap(t *testing.T) {
	pal := palette.New()
	mirrorID := pal.Add(&palette.Material{Name: "mirror", Specular: 1, Roughness: 0, IOR: 1.5, Opaque: true, Solid: true})
	solid := octree.NewNode(4)
	for x := 6; x <= 10; x++ {
		for y := 6; y <= 10; y++ {
			for z := 6; z <= 10; z++ {
				if x == 8 && y == 8 && z == 8 {
					continue
				}
				_ = solid.Set(pal.Encode(mirrorID, 0), x, y, z)
			}
		}
	}
	water := octree.NewNode(4)
	s := scene.New(solid, water, bvh.New(nil), pal, 4, 4)
	ig := Integrator{RouletteDepth: 2, EnableEmitters: false}
	rng := rand.New(rand.NewSource(3))
	ray := vmath.Ray{Origin: vmath.Vec3{X: 8.5, Y: 8.5, Z: 8.5}, Dir: vmath.Vec3{X: 1}}
	c := ig.Trace(s, ray, rng)
	if isNonFinite(c.R) || isNonFinite(c.G) || isNonFinite(c.B) {
		t.Fatalf("expected a finite result even for a fully mirrored cavity, got %+v", c)
	}
}

func isNonFinite(f float32) bool {
	return f != f || f > 3.4e38 || f < -3.4e38
}
