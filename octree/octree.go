// Package octree implements the sparse voxel storage and ray-traversal core
// of the renderer: a cubic region of side 2^depth holding one packed u32
// "raw" value per voxel (a palette.Palette id plus, for water/lava, a
// bit-packed level/corner-height data word — see palette.Palette.Encode/
// Decode). Two storage variants exist, chosen at scene-load time: Packed
// (flat array of 16-bit ids into a table of distinct raw values, 2 bytes per
// voxel whatever the layout) and Node (per-leaf pointer
// allocation, the fallback once Packed's id space is exhausted).
//
// Traversal descends into child octants ordered by ray entry time, each
// node carrying its own bounds rather than recomputing them from a global
// coordinate frame.
package octree

import (
	"errors"

	"github.com/voxelforge/tracecore/vmath"
)

// AnyType is the sentinel leaf value meaning "interior, fully occluded by
// neighbors; never traversed". The finalization pass substitutes it for
// voxels that can never be seen by any ray.
const AnyType uint32 = 0xFFFFFFFF

// ErrOctreeTooBig is raised by Packed.Set when its internal id space is
// exhausted; the caller (the scene loader) must rebuild into a Node octree.
var ErrOctreeTooBig = errors.New("octree: packed id space exhausted")

// Octree is the common contract both storage variants satisfy.
type Octree interface {
	Depth() int
	Size() int // 2^Depth()
	Get(x, y, z int) uint32
	Set(raw uint32, x, y, z int) error
	EnterBlock(ray vmath.Ray, isSkip func(raw uint32) bool) (Hit, bool)
	ExitWater(ray vmath.Ray, isWater func(raw uint32) bool) (Hit, bool)
}

// Walkable is implemented by both storage variants; the finalization pass
// uses it to rewrite every voxel's raw value in place without caring which
// variant backs the scene.
type Walkable interface {
	Octree
	Walk(fn func(x, y, z, size int, raw uint32) uint32)
}

// Hit is the result of a ray/octree intersection: distance along the ray,
// the face normal at the hit (facing back toward the ray origin), a UV
// coordinate on that face, and the raw leaf value hit.
type Hit struct {
	Distance float32
	Normal   vmath.Vec3
	UV       vmath.Vec2
	Raw      uint32
}

// faceNormalAndUV derives the axis-aligned face normal and a [0,1] UV for a
// ray entering a unit voxel at local point p (relative to the voxel's
// min corner). Node's leaf-hit code takes both the normal and the UV from
// it; Packed takes only the UV and derives the normal from its DDA step axis.
func faceNormalAndUV(p vmath.Vec3) (vmath.Vec3, vmath.Vec2) {
	const eps = 1e-4
	switch {
	case p.X < eps:
		return vmath.Vec3{X: -1}, vmath.Vec2{X: p.Z, Y: p.Y}
	case p.X > 1-eps:
		return vmath.Vec3{X: 1}, vmath.Vec2{X: 1 - p.Z, Y: p.Y}
	case p.Y < eps:
		return vmath.Vec3{Y: -1}, vmath.Vec2{X: p.X, Y: p.Z}
	case p.Y > 1-eps:
		return vmath.Vec3{Y: 1}, vmath.Vec2{X: p.X, Y: 1 - p.Z}
	case p.Z < eps:
		return vmath.Vec3{Z: -1}, vmath.Vec2{X: 1 - p.X, Y: p.Y}
	default:
		return vmath.Vec3{Z: 1}, vmath.Vec2{X: p.X, Y: p.Y}
	}
}

// rayBoxEntry returns the [tMin, tMax] interval over which ray intersects
// the axis-aligned box [min,max], and whether the interval is non-empty
// with tMax >= 0.
func rayBoxEntry(ray vmath.Ray, min, max vmath.Vec3) (float32, float32, bool) {
	tMin := float32(0)
	tMax := float32(1e30)

	for axis := 0; axis < 3; axis++ {
		var o, d, lo, hi float32
		switch axis {
		case 0:
			o, d, lo, hi = ray.Origin.X, ray.Dir.X, min.X, max.X
		case 1:
			o, d, lo, hi = ray.Origin.Y, ray.Dir.Y, min.Y, max.Y
		default:
			o, d, lo, hi = ray.Origin.Z, ray.Dir.Z, min.Z, max.Z
		}
		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / d
		t0 := (lo - o) * inv
		t1 := (hi - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, 0, false
		}
	}
	return tMin, tMax, tMax >= 0
}
