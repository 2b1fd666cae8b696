// Package raytracer implements scene intersection and shading: the preview
// one-bounce shader for live feedback and the full path-tracing integrator.
// Intersection and shading are split the same way a recursive ray tracer
// usually is: one pass finds the closest scene hit and its surface normal,
// a second shades from it — here against the octree pair plus BVH scene
// representation, with full Fresnel-blend importance sampling rather than a
// fixed reflect-only bounce.
package raytracer

import (
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/vmath"
)

// epsilon is the ray-offset / tie-break distance used throughout to avoid
// self-intersection at surfaces.
const epsilon = 1e-4

// HitKind identifies which part of the scene representation produced a Hit.
type HitKind int

const (
	HitNone HitKind = iota
	HitSolid
	HitWater
	HitEntity
)

// Hit unifies octree and BVH intersection results into one shading input.
type Hit struct {
	Kind     HitKind
	Distance float32
	Point    vmath.Vec3
	Normal   vmath.Vec3
	UV       vmath.Vec2
	Material *palette.Material
	Level    uint8
	Corners  [4]uint8
}

// Intersect finds the closest hit along ray among the solid octree, the
// water octree's entry surface, and the entity BVH, within (tMin, tMax).
func Intersect(s *scene.Scene, ray vmath.Ray, tMin, tMax float32) (Hit, bool) {
	best := Hit{Distance: tMax}
	found := false

	if s.Solid != nil {
		if oh, ok := s.Solid.EnterBlock(shiftRay(ray, tMin), isAir); ok {
			d := oh.Distance + tMin
			if d < best.Distance {
				mat, level, corners := s.Palette.Lookup(oh.Raw)
				best = Hit{Kind: HitSolid, Distance: d, Point: ray.At(d), Normal: oh.Normal, UV: oh.UV, Material: mat, Level: level, Corners: corners}
				found = true
			}
		}
	}
	if s.Water != nil {
		if oh, ok := s.Water.EnterBlock(shiftRay(ray, tMin), isAir); ok {
			d := oh.Distance + tMin
			if d < best.Distance {
				mat, level, corners := s.Palette.Lookup(oh.Raw)
				best = Hit{Kind: HitWater, Distance: d, Point: ray.At(d), Normal: oh.Normal, UV: oh.UV, Material: mat, Level: level, Corners: corners}
				found = true
			}
		}
	}
	if s.BVH != nil {
		if bh, ok := s.BVH.Intersect(ray, tMin, best.Distance); ok {
			best = Hit{Kind: HitEntity, Distance: bh.Distance, Point: ray.At(bh.Distance), Normal: bh.Normal, UV: bh.UV, Material: bh.Material}
			found = true
		}
	}
	return best, found
}

// shiftRay advances a ray's origin by tMin along its direction so octree
// traversal starts outside whatever surface the ray was just shaded at,
// and expresses its own returned distances relative to the *original* ray
// origin by our caller's "+ tMin" convention above.
func shiftRay(ray vmath.Ray, tMin float32) vmath.Ray {
	if tMin <= 0 {
		return ray
	}
	return vmath.Ray{Origin: ray.At(tMin), Dir: ray.Dir}
}

func isAir(raw uint32) bool {
	return raw == 0
}

// Occluded is a cheap shadow-ray test: true if anything lies strictly
// between the ray origin and maxDist along ray.
func Occluded(s *scene.Scene, ray vmath.Ray, maxDist float32) bool {
	if s.Solid != nil {
		if oh, ok := s.Solid.EnterBlock(shiftRay(ray, epsilon), isAir); ok && oh.Distance+epsilon < maxDist {
			return true
		}
	}
	if s.BVH != nil {
		if _, ok := s.BVH.Intersect(ray, epsilon, maxDist-epsilon); ok {
			return true
		}
	}
	return false
}
