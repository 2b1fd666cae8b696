package vmath

// Ray is a parametric ray origin + direction, shared by every intersection
// consumer (octree traversal, BVH queries, the path tracer). Dir is not
// required to be normalized by construction, but every producer in this
// module normalizes it — intersection math throughout assumes unit length.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
