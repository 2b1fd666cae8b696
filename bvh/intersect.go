package bvh

import "github.com/voxelforge/tracecore/vmath"

// Intersect finds the closest hit along ray within (tMin, tMax), descending
// child nodes ordered by their box entry distance and pruning any subtree
// whose box entry is already farther than the best hit found so far.
func (h *BVH) Intersect(ray vmath.Ray, tMin, tMax float32) (Hit, bool) {
	if h.Root < 0 {
		return Hit{}, false
	}
	best := Hit{Distance: tMax}
	hit := h.intersectNode(h.Root, ray, tMin, tMax, &best)
	return best, hit
}

func (h *BVH) intersectNode(nodeIdx int, ray vmath.Ray, tMin, tMax float32, best *Hit) bool {
	n := &h.Nodes[nodeIdx]
	if _, _, ok := rayBox(ray, n.BoundsMin, n.BoundsMax, tMin, best.Distance); !ok {
		return false
	}

	if n.LeftChild < 0 {
		found := false
		for i := 0; i < n.PrimitiveCount; i++ {
			tri := h.prims[h.indices[n.FirstPrimitive+i]]
			if t, u, v, ok := rayTriangle(ray, tri, tMin, best.Distance); ok {
				best.Distance = t
				best.Normal = interpolateNormal(tri, u, v)
				best.UV = interpolateUV(tri, u, v)
				best.Material = tri.Material
				found = true
			}
		}
		return found
	}

	first, second := n.LeftChild, n.RightChild
	le, _, lok := rayBox(ray, h.Nodes[first].BoundsMin, h.Nodes[first].BoundsMax, tMin, best.Distance)
	re, _, rok := rayBox(ray, h.Nodes[second].BoundsMin, h.Nodes[second].BoundsMax, tMin, best.Distance)
	if rok && (!lok || re < le) {
		first, second = second, first
	}
	firstHit := h.intersectNode(first, ray, tMin, tMax, best)
	secondHit := h.intersectNode(second, ray, tMin, tMax, best)
	return firstHit || secondHit
}

// rayBox is a standard slab test, returning the entry/exit t and whether the
// ray hits the box within [tMin, tMax].
func rayBox(ray vmath.Ray, min, max vmath.Vec3, tMin, tMax float32) (float32, float32, bool) {
	entry, exit := tMin, tMax
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
		if t0 > entry {
			entry = t0
		}
		if t1 < exit {
			exit = t1
		}
		if entry > exit {
			return 0, 0, false
		}
	}
	return entry, exit, true
}

// rayTriangle is the Möller–Trumbore ray/triangle intersection, returning
// the hit distance and barycentric (u, v) coordinates of vertices B and C.
func rayTriangle(ray vmath.Ray, tri Triangle, tMin, tMax float32) (t, u, v float32, ok bool) {
	const eps = 1e-7
	edge1 := tri.B.Sub(tri.A)
	edge2 := tri.C.Sub(tri.A)
	pvec := ray.Dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if det > -eps && det < eps {
		return 0, 0, 0, false
	}
	invDet := 1 / det
	tvec := ray.Origin.Sub(tri.A)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	qvec := tvec.Cross(edge1)
	v = ray.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = edge2.Dot(qvec) * invDet
	if t < tMin || t > tMax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

func interpolateNormal(tri Triangle, u, v float32) vmath.Vec3 {
	w := 1 - u - v
	n := tri.NA.Mul(w).Add(tri.NB.Mul(u)).Add(tri.NC.Mul(v))
	return n.Normalize()
}

func interpolateUV(tri Triangle, u, v float32) vmath.Vec2 {
	w := 1 - u - v
	return vmath.Vec2{
		X: tri.UVA.X*w + tri.UVB.X*u + tri.UVC.X*v,
		Y: tri.UVA.Y*w + tri.UVB.Y*u + tri.UVC.Y*v,
	}
}
