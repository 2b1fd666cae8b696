package octree

import "github.com/voxelforge/tracecore/palette"

// neighborOffsets are the 6 face-adjacent offsets used by hidden-voxel
// culling.
var neighborOffsets = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// cornerDiagonals gives, for each of the 4 horizontal corners of a voxel's
// top face (in the fixed order +x+z, -x+z, +x-z, -x-z), the offsets of the
// 3 neighboring columns whose water level is averaged into that corner.
var cornerDiagonals = [4][3][2]int{
	{{1, 0}, {0, 1}, {1, 1}},
	{{-1, 0}, {0, 1}, {-1, 1}},
	{{1, 0}, {0, -1}, {1, -1}},
	{{-1, 0}, {0, -1}, {-1, -1}},
}

// Finalize runs the post-load finalization pass over a solid/water octree
// pair: hidden-interior voxels in solid are culled to AnyType, and every
// water/lava voxel in water gets its corner heights resolved. Callers
// bracket this with their own no-concurrent-readers guarantee; Finalize
// itself does no locking.
func Finalize(solid, water Walkable, pal *palette.Palette) {
	cullHiddenVoxels(solid, pal)
	finalizeWater(water, pal)
}

// cullHiddenVoxels substitutes AnyType for every voxel whose 6 face
// neighbors are all opaque solid material — such a voxel can never be seen
// by any ray regardless of its own material, so its original type is
// discarded.
func cullHiddenVoxels(solid Walkable, pal *palette.Palette) {
	size := solid.Size()
	solid.Walk(func(x, y, z, cellSize int, raw uint32) uint32 {
		if raw == AnyType || cellSize != 1 {
			return raw
		}
		mat, _, _ := pal.Lookup(raw)
		if !mat.Opaque {
			return raw
		}
		for _, off := range neighborOffsets {
			nx, ny, nz := x+off[0], y+off[1], z+off[2]
			if nx < 0 || ny < 0 || nz < 0 || nx >= size || ny >= size || nz >= size {
				return raw // voxel touches the scene boundary, stays visible
			}
			nmat, _, _ := pal.Lookup(solid.Get(nx, ny, nz))
			if !nmat.Opaque {
				return raw
			}
		}
		return AnyType
	})
}

// finalizeWater resolves every water/lava voxel's corner heights: a voxel
// whose upward neighbor is also water becomes a full source block; all
// other water voxels get their 4 corners set to the clamped average of
// their diagonal neighbors' levels.
func finalizeWater(water Walkable, pal *palette.Palette) {
	size := water.Size()
	// Levels are read from the pre-finalization state, so capture them
	// before any voxel is rewritten in place.
	levels := make([]int8, size*size*size)
	for i := range levels {
		levels[i] = -1
	}
	idx := func(x, y, z int) int { return (z*size+y)*size + x }

	water.Walk(func(x, y, z, cellSize int, raw uint32) uint32 {
		if cellSize != 1 {
			return raw
		}
		mat, level, _ := pal.Lookup(raw)
		if mat.IsWaterLike {
			levels[idx(x, y, z)] = int8(level)
		}
		return raw
	})

	water.Walk(func(x, y, z, cellSize int, raw uint32) uint32 {
		if cellSize != 1 {
			return raw
		}
		mat, _, _ := pal.Lookup(raw)
		if !mat.IsWaterLike {
			return raw
		}

		id, _ := pal.Decode(raw)

		if y+1 < size && levels[idx(x, y+1, z)] >= 0 {
			full := palette.EncodeWaterData(0, [4]uint8{0, 0, 0, 0})
			return pal.Encode(id, full)
		}

		var corners [4]uint8
		for c := 0; c < 4; c++ {
			sum, n := 0, 0
			for _, d := range cornerDiagonals[c] {
				nx, nz := x+d[0], z+d[1]
				if nx < 0 || nz < 0 || nx >= size || nz >= size {
					continue
				}
				lvl := levels[idx(nx, y, nz)]
				if lvl >= 0 {
					sum += int(lvl)
					n++
				}
			}
			h := 7
			if n > 0 {
				h = sum / n
			}
			if h < 0 {
				h = 0
			}
			if h > 7 {
				h = 7
			}
			corners[c] = uint8(h)
		}

		level := levels[idx(x, y, z)]
		if level < 0 {
			level = 0
		}
		return pal.Encode(id, palette.EncodeWaterData(uint8(level), corners))
	})
}
