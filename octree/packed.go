package octree

import (
	"math"

	"github.com/voxelforge/tracecore/vmath"
)

// maxPackedIDs bounds Packed's id table; once a scene's distinct raw voxel
// values exceed this, Set returns ErrOctreeTooBig and the caller must
// rebuild into a Node octree.
const maxPackedIDs = 1 << 16

// Packed is the array-backed octree variant: a flat grid of 16-bit ids into
// a dedup table of the distinct 32-bit raw values actually used. A scene
// built from a handful of materials costs 2 bytes/voxel regardless of
// storage layout, so the saving comes entirely from deduplication, not from
// hierarchical collapsing the way Node gets it. A region using every
// distinct raw value the scene can produce degrades to the Node fallback.
type Packed struct {
	depth   int
	size    int
	cells   []uint16
	idTable []uint32
	idIndex map[uint32]uint16
}

// NewPacked creates an all-air Packed octree of side 2^depth.
func NewPacked(depth int) *Packed {
	size := 1 << depth
	p := &Packed{
		depth:   depth,
		size:    size,
		cells:   make([]uint16, size*size*size),
		idTable: []uint32{0},
		idIndex: map[uint32]uint16{0: 0},
	}
	return p
}

func (p *Packed) Depth() int { return p.depth }
func (p *Packed) Size() int  { return p.size }

func (p *Packed) index(x, y, z int) int {
	return (z*p.size+y)*p.size + x
}

func (p *Packed) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < p.size && y < p.size && z < p.size
}

func (p *Packed) Get(x, y, z int) uint32 {
	if !p.inBounds(x, y, z) {
		return 0
	}
	return p.idTable[p.cells[p.index(x, y, z)]]
}

func (p *Packed) Set(raw uint32, x, y, z int) error {
	if !p.inBounds(x, y, z) {
		return nil
	}
	id, ok := p.idIndex[raw]
	if !ok {
		if len(p.idTable) >= maxPackedIDs {
			return ErrOctreeTooBig
		}
		id = uint16(len(p.idTable))
		p.idTable = append(p.idTable, raw)
		p.idIndex[raw] = id
	}
	p.cells[p.index(x, y, z)] = id
	return nil
}

// Walk visits every voxel with its coordinates, used by the finalization
// pass. Unlike Node.Walk, there is no branch-size structure to expose, so
// every call reports size 1.
func (p *Packed) Walk(fn func(x, y, z, size int, raw uint32) uint32) {
	for z := 0; z < p.size; z++ {
		for y := 0; y < p.size; y++ {
			for x := 0; x < p.size; x++ {
				i := p.index(x, y, z)
				raw := p.idTable[p.cells[i]]
				newRaw := fn(x, y, z, 1, raw)
				if newRaw != raw {
					if err := p.Set(newRaw, x, y, z); err != nil {
						// Finalization can write raw values not yet in the
						// id table (AnyType, re-encoded water data bits), so
						// the table can grow here; Walk panics if that
						// exhausts it.
						panic(err)
					}
				}
			}
		}
	}
}

// EnterBlock walks unit voxels with a 3D-DDA (Amanatides & Woo) until it
// reaches one for which isSkip returns false.
func (p *Packed) EnterBlock(ray vmath.Ray, isSkip func(raw uint32) bool) (Hit, bool) {
	return p.traverse(ray, isSkip, false)
}

// ExitWater walks unit voxels until it leaves the water medium.
func (p *Packed) ExitWater(ray vmath.Ray, isWater func(raw uint32) bool) (Hit, bool) {
	return p.traverse(ray, isWater, true)
}

func (p *Packed) traverse(ray vmath.Ray, skip func(uint32) bool, exitMode bool) (Hit, bool) {
	size := float32(p.size)
	min := vmath.Vec3{}
	max := vmath.Vec3{X: size, Y: size, Z: size}
	tEnter, tExit, ok := rayBoxEntry(ray, min, max)
	if !ok {
		return Hit{}, false
	}
	if tEnter < 0 {
		tEnter = 0
	}

	start := ray.At(tEnter)
	x := clampInt(int(math.Floor(float64(start.X))), 0, p.size-1)
	y := clampInt(int(math.Floor(float64(start.Y))), 0, p.size-1)
	z := clampInt(int(math.Floor(float64(start.Z))), 0, p.size-1)

	stepX, tMaxX, tDeltaX := ddaAxis(ray.Origin.X, ray.Dir.X, x)
	stepY, tMaxY, tDeltaY := ddaAxis(ray.Origin.Y, ray.Dir.Y, y)
	stepZ, tMaxZ, tDeltaZ := ddaAxis(ray.Origin.Z, ray.Dir.Z, z)

	var lastAxis int
	t := tEnter
	for t <= tExit {
		raw := p.Get(x, y, z)
		if !skip(raw) {
			hitPoint := ray.At(t)
			local := vmath.Vec3{X: hitPoint.X - float32(x), Y: hitPoint.Y - float32(y), Z: hitPoint.Z - float32(z)}
			var normal vmath.Vec3
			switch lastAxis {
			case 0:
				normal = vmath.Vec3{X: -float32(stepX)}
			case 1:
				normal = vmath.Vec3{Y: -float32(stepY)}
			case 2:
				normal = vmath.Vec3{Z: -float32(stepZ)}
			}
			_, uv := faceNormalAndUV(local)
			return Hit{Distance: t, Normal: normal, UV: uv, Raw: raw}, true
		}

		if tMaxX < tMaxY && tMaxX < tMaxZ {
			x += stepX
			t = tMaxX
			tMaxX += tDeltaX
			lastAxis = 0
		} else if tMaxY < tMaxZ {
			y += stepY
			t = tMaxY
			tMaxY += tDeltaY
			lastAxis = 1
		} else {
			z += stepZ
			t = tMaxZ
			tMaxZ += tDeltaZ
			lastAxis = 2
		}
		if x < 0 || y < 0 || z < 0 || x >= p.size || y >= p.size || z >= p.size {
			break
		}
	}
	return Hit{}, false
}

// ddaAxis computes the Amanatides & Woo step direction, initial tMax, and
// tDelta for one axis of a unit-voxel grid traversal.
func ddaAxis(origin, dir float32, cell int) (step int, tMax, tDelta float32) {
	if dir > 0 {
		step = 1
		tMax = (float32(cell+1) - origin) / dir
		tDelta = 1 / dir
	} else if dir < 0 {
		step = -1
		tMax = (float32(cell) - origin) / dir
		tDelta = -1 / dir
	} else {
		step = 0
		tMax = float32(math.Inf(1))
		tDelta = float32(math.Inf(1))
	}
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
