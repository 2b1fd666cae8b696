package octree

import "github.com/voxelforge/tracecore/vmath"

// node is one tree node: either a leaf (children == nil, raw holds the
// voxel's packed type) or a branch with exactly 8 children.
type node struct {
	children *[8]*node
	raw      uint32
}

// Node is the pointer-allocated octree variant: one node.children array per
// branch, no fixed limit on the number of distinct raw values it can store
// (unlike Packed, which indexes into a bounded id table). This is the
// fallback the scene loader rebuilds into when Packed.Set returns
// ErrOctreeTooBig.
type Node struct {
	depth int
	root  *node
}

// NewNode creates an all-air Node octree of side 2^depth.
func NewNode(depth int) *Node {
	return &Node{depth: depth, root: &node{raw: 0}}
}

func (o *Node) Depth() int { return o.depth }
func (o *Node) Size() int  { return 1 << o.depth }

func (o *Node) Get(x, y, z int) uint32 {
	n := o.root
	size := o.Size()
	if x < 0 || y < 0 || z < 0 || x >= size || y >= size || z >= size {
		return 0
	}
	for n.children != nil {
		size /= 2
		idx, lx, ly, lz := octant(x, y, z, size)
		x, y, z = lx, ly, lz
		n = n.children[idx]
	}
	return n.raw
}

func (o *Node) Set(raw uint32, x, y, z int) error {
	size := o.Size()
	if x < 0 || y < 0 || z < 0 || x >= size || y >= size || z >= size {
		return nil
	}
	o.root = setRec(o.root, raw, x, y, z, size)
	return nil
}

// setRec descends to the target unit voxel, subdividing branches as needed,
// and coalesces a branch back into a leaf when all 8 children become equal.
func setRec(n *node, raw uint32, x, y, z, size int) *node {
	if size == 1 {
		return &node{raw: raw}
	}
	if n.children == nil {
		if n.raw == raw {
			return n // already uniform with the target value
		}
		// Subdivide: every child inherits the current uniform value.
		children := &[8]*node{}
		for i := range children {
			children[i] = &node{raw: n.raw}
		}
		n = &node{children: children}
	}
	half := size / 2
	idx, lx, ly, lz := octant(x, y, z, half)
	children := *n.children
	children[idx] = setRec(children[idx], raw, lx, ly, lz, half)
	n = &node{children: &children}
	coalesce(n)
	return n
}

// coalesce collapses n into a leaf in place if all 8 children are leaves
// with the same raw value.
func coalesce(n *node) {
	if n.children == nil {
		return
	}
	first := n.children[0]
	if first.children != nil {
		return
	}
	for _, c := range n.children[1:] {
		if c.children != nil || c.raw != first.raw {
			return
		}
	}
	n.children = nil
	n.raw = first.raw
}

// octant maps a voxel coordinate within a cell of the given half-size to
// its child index (bit0=x, bit1=y, bit2=z) and the coordinate local to that
// child.
func octant(x, y, z, half int) (idx, lx, ly, lz int) {
	if x >= half {
		idx |= 1
		lx = x - half
	} else {
		lx = x
	}
	if y >= half {
		idx |= 2
		ly = y - half
	} else {
		ly = y
	}
	if z >= half {
		idx |= 4
		lz = z - half
	} else {
		lz = z
	}
	return
}

// EnterBlock advances along ray until it crosses into the first voxel for
// which isSkip returns false (typically: not air), returning the hit
// distance/normal/UV and that voxel's raw value.
func (o *Node) EnterBlock(ray vmath.Ray, isSkip func(raw uint32) bool) (Hit, bool) {
	return traverseNode(o.root, o.Size(), ray, isSkip, false)
}

// ExitWater advances along ray until it crosses into the first voxel for
// which isWater returns false — used once inside a water medium to find
// where the medium ends.
func (o *Node) ExitWater(ray vmath.Ray, isWater func(raw uint32) bool) (Hit, bool) {
	return traverseNode(o.root, o.Size(), ray, isWater, true)
}

// traverseNode recursively descends the octree, visiting child octants in
// the order the ray enters them, skipping any leaf for which skip(raw) is
// true. Both EnterBlock and ExitWater stop at the first leaf skip rejects.
func traverseNode(n *node, size int, ray vmath.Ray, skip func(uint32) bool, exitMode bool) (Hit, bool) {
	min := vmath.Vec3{}
	max := vmath.Vec3{X: float32(size), Y: float32(size), Z: float32(size)}
	tEnter, _, ok := rayBoxEntry(ray, min, max)
	if !ok {
		return Hit{}, false
	}
	return traverseNodeBox(n, min, max, ray, tEnter, skip, exitMode)
}

func traverseNodeBox(n *node, min, max vmath.Vec3, ray vmath.Ray, tEnter float32, skip func(uint32) bool, exitMode bool) (Hit, bool) {
	if n.children == nil {
		if skip(n.raw) {
			return Hit{}, false
		}
		if tEnter < 0 {
			tEnter = 0
		}
		p := ray.At(tEnter).Sub(min)
		size := max.X - min.X
		if size > 0 {
			p = p.Mul(1 / size)
		}
		normal, uv := faceNormalAndUV(p)
		return Hit{Distance: tEnter, Normal: normal, UV: uv, Raw: n.raw}, true
	}

	mid := min.Add(max).Mul(0.5)
	// Visit the 8 children ordered by their ray-entry distance.
	type childEntry struct {
		idx int
		t   float32
	}
	var order [8]childEntry
	count := 0
	for i := 0; i < 8; i++ {
		cmin, cmax := childBounds(min, mid, max, i)
		t, _, ok := rayBoxEntry(ray, cmin, cmax)
		if !ok {
			continue
		}
		order[count] = childEntry{idx: i, t: t}
		count++
	}
	for a := 1; a < count; a++ {
		for b := a; b > 0 && order[b].t < order[b-1].t; b-- {
			order[b], order[b-1] = order[b-1], order[b]
		}
	}
	for i := 0; i < count; i++ {
		idx := order[i].idx
		cmin, cmax := childBounds(min, mid, max, idx)
		if hit, ok := traverseNodeBox(n.children[idx], cmin, cmax, ray, order[i].t, skip, exitMode); ok {
			return hit, true
		}
	}
	return Hit{}, false
}

func childBounds(min, mid, max vmath.Vec3, idx int) (vmath.Vec3, vmath.Vec3) {
	lo, hi := min, mid
	if idx&1 != 0 {
		lo.X, hi.X = mid.X, max.X
	}
	if idx&2 != 0 {
		lo.Y, hi.Y = mid.Y, max.Y
	}
	if idx&4 != 0 {
		lo.Z, hi.Z = mid.Z, max.Z
	}
	return lo, hi
}

// Walk visits every leaf in the tree with its integer-space bounds, used by
// the finalization pass (water/lava corner heights, hidden-voxel culling).
func (o *Node) Walk(fn func(x, y, z, size int, raw uint32) uint32) {
	o.root = walkRec(o.root, 0, 0, 0, o.Size(), fn)
}

func walkRec(n *node, x, y, z, size int, fn func(int, int, int, int, uint32) uint32) *node {
	if n.children == nil {
		newRaw := fn(x, y, z, size, n.raw)
		if newRaw != n.raw {
			return &node{raw: newRaw}
		}
		return n
	}
	half := size / 2
	children := *n.children
	for i := 0; i < 8; i++ {
		cx, cy, cz := x, y, z
		if i&1 != 0 {
			cx += half
		}
		if i&2 != 0 {
			cy += half
		}
		if i&4 != 0 {
			cz += half
		}
		children[i] = walkRec(children[i], cx, cy, cz, half, fn)
	}
	nn := &node{children: &children}
	coalesce(nn)
	return nn
}
