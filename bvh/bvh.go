// Package bvh implements the bounding-volume hierarchy over static entity
// triangles: a mesh's world-space triangles are flattened into a BVH once
// at scene load, then queried per ray for the closest hit alongside the
// octree pair.
//
// Each node holds BoundsMin/BoundsMax, LeftChild/RightChild, and
// FirstPrimitive/PrimitiveCount for its triangle range. Construction sorts
// primitive indices by the widest-extent axis at each split and recurses,
// so a long thin mesh doesn't get split on an axis with no spread.
// Closest-hit ray/triangle intersection uses the Möller–Trumbore
// formulation.
package bvh

import (
	"sort"

	"github.com/voxelforge/tracecore/entity"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/vmath"
)

// leafSize caps the number of primitives a leaf node may hold before the
// builder keeps splitting.
const leafSize = 4

// Node is one BVH node: a leaf holds [FirstPrimitive, FirstPrimitive+
// PrimitiveCount) into BVH.indices; a branch holds LeftChild/RightChild
// indices into BVH.Nodes, with FirstPrimitive/PrimitiveCount left at -1/0.
type Node struct {
	BoundsMin, BoundsMax vmath.Vec3
	LeftChild            int
	RightChild           int
	FirstPrimitive       int
	PrimitiveCount       int
}

// Triangle is one baked (world-space) triangle primitive.
type Triangle struct {
	A, B, C       vmath.Vec3
	NA, NB, NC    vmath.Vec3
	UVA, UVB, UVC vmath.Vec2
	Material      *palette.Material
}

func (t Triangle) bounds() (min, max vmath.Vec3) {
	min = vmath.Vec3{X: minOf3(t.A.X, t.B.X, t.C.X), Y: minOf3(t.A.Y, t.B.Y, t.C.Y), Z: minOf3(t.A.Z, t.B.Z, t.C.Z)}
	max = vmath.Vec3{X: maxOf3(t.A.X, t.B.X, t.C.X), Y: maxOf3(t.A.Y, t.B.Y, t.C.Y), Z: maxOf3(t.A.Z, t.B.Z, t.C.Z)}
	return
}

func (t Triangle) centroid() vmath.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// BVH is a flattened bounding volume hierarchy over a fixed triangle set.
// indices is a permutation of prims built once and then only reordered
// within each split's sub-range, so a leaf's FirstPrimitive/PrimitiveCount
// addresses a contiguous run of indices regardless of how deep it sits.
type BVH struct {
	Nodes   []Node
	Root    int
	prims   []Triangle
	indices []int
}

// Hit is a ray/BVH intersection result: distance, interpolated normal, UV,
// and the hit triangle's material.
type Hit struct {
	Distance float32
	Normal   vmath.Vec3
	UV       vmath.Vec2
	Material *palette.Material
}

// New builds a BVH from a set of baked meshes (entity.Node.Flatten output —
// every mesh's vertices already live in world space).
func New(meshes []*entity.Mesh) *BVH {
	var prims []Triangle
	for _, m := range meshes {
		for i := 0; i < m.TriangleCount(); i++ {
			a, b, c := m.Triangle(i)
			prims = append(prims, Triangle{
				A: a.Position, B: b.Position, C: c.Position,
				NA: a.Normal, NB: b.Normal, NC: c.Normal,
				UVA: a.UV, UVB: b.UV, UVC: c.UV,
				Material: m.Material,
			})
		}
	}
	h := &BVH{prims: prims}
	if len(prims) == 0 {
		h.Root = -1
		return h
	}
	h.indices = make([]int, len(prims))
	for i := range h.indices {
		h.indices[i] = i
	}
	h.Nodes = make([]Node, 0, 2*len(prims))
	h.Root = h.build(0, len(prims))
	return h
}

// build constructs the subtree over h.indices[start:start+count] and
// returns its node index.
func (h *BVH) build(start, count int) int {
	run := h.indices[start : start+count]
	min, max := h.boundsOf(run)

	if count <= leafSize {
		idx := len(h.Nodes)
		h.Nodes = append(h.Nodes, Node{
			BoundsMin: min, BoundsMax: max,
			LeftChild: -1, RightChild: -1,
			FirstPrimitive: start, PrimitiveCount: count,
		})
		return idx
	}

	axis := widestAxis(min, max)
	sort.Slice(run, func(i, j int) bool {
		return axisOf(h.prims[run[i]].centroid(), axis) < axisOf(h.prims[run[j]].centroid(), axis)
	})
	mid := count / 2

	nodeIdx := len(h.Nodes)
	h.Nodes = append(h.Nodes, Node{}) // reserved, filled in once children are known
	left := h.build(start, mid)
	right := h.build(start+mid, count-mid)
	h.Nodes[nodeIdx] = Node{
		BoundsMin: min, BoundsMax: max,
		LeftChild: left, RightChild: right,
		FirstPrimitive: -1, PrimitiveCount: 0,
	}
	return nodeIdx
}

func (h *BVH) boundsOf(indices []int) (min, max vmath.Vec3) {
	min = vmath.Vec3{X: 1e30, Y: 1e30, Z: 1e30}
	max = vmath.Vec3{X: -1e30, Y: -1e30, Z: -1e30}
	for _, i := range indices {
		tmin, tmax := h.prims[i].bounds()
		min = vmath.Vec3{X: minOf(min.X, tmin.X), Y: minOf(min.Y, tmin.Y), Z: minOf(min.Z, tmin.Z)}
		max = vmath.Vec3{X: maxOf(max.X, tmax.X), Y: maxOf(max.Y, tmax.Y), Z: maxOf(max.Z, tmax.Z)}
	}
	return
}

func widestAxis(min, max vmath.Vec3) int {
	dx, dy, dz := max.X-min.X, max.Y-min.Y, max.Z-min.Z
	if dx >= dy && dx >= dz {
		return 0
	}
	if dy >= dz {
		return 1
	}
	return 2
}

func axisOf(v vmath.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func minOf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func maxOf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
func minOf3(a, b, c float32) float32 { return minOf(a, minOf(b, c)) }
func maxOf3(a, b, c float32) float32 { return maxOf(a, maxOf(b, c)) }
