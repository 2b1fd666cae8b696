package sceneio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"

	"github.com/voxelforge/tracecore/octree"
	"github.com/voxelforge/tracecore/palette"
)

// World is the decoded contents of a scene's `<name>.octree2` file: the
// solid and water octrees plus the palette they index into. Biome textures
// (foliage/grass, `<name>.foliage`/`<name>.grass`) are an internal,
// undocumented format produced by an external texture-pack tool and are not
// decoded here — World only carries Solid/Water/Palette, and leaves texture
// attachment to the caller.
type World struct {
	Solid   octree.Walkable
	Water   octree.Walkable
	Palette *palette.Palette
}

// SaveWorld gzip-writes solid, water and pal to path as the scene's
// `<name>.octree2` file: octree.Serialize for each tree, then
// palette.Palette.WriteTo, one gzip stream, in that fixed order.
func SaveWorld(path string, solid, water octree.Octree, pal *palette.Palette) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sceneio: create %s: %w", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	bw := bufio.NewWriter(gz)

	if err := octree.Serialize(solid, bw); err != nil {
		return fmt.Errorf("sceneio: write solid octree: %w", err)
	}
	if err := octree.Serialize(water, bw); err != nil {
		return fmt.Errorf("sceneio: write water octree: %w", err)
	}
	if _, err := pal.WriteTo(bw); err != nil {
		return fmt.Errorf("sceneio: write palette: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("sceneio: flush %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("sceneio: close gzip stream for %s: %w", path, err)
	}
	return nil
}

// LoadWorld reads a `<name>.octree2` file written by SaveWorld. Octrees
// always come back as the pointer-based Node variant (octree.Deserialize's
// own guarantee); a caller wanting the more compact Packed storage can Walk
// the result into a fresh octree.NewPacked and fall back to Node on
// octree.ErrOctreeTooBig, the same retry PackOrFallback performs.
func LoadWorld(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sceneio: open %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("sceneio: open gzip stream for %s: %w", path, err)
	}
	defer gz.Close()
	br := bufio.NewReader(gz)

	solid, err := octree.Deserialize(br)
	if err != nil {
		return nil, fmt.Errorf("sceneio: read solid octree: %w", err)
	}
	water, err := octree.Deserialize(br)
	if err != nil {
		return nil, fmt.Errorf("sceneio: read water octree: %w", err)
	}
	pal, err := palette.ReadFrom(br)
	if err != nil {
		return nil, fmt.Errorf("sceneio: read palette: %w", err)
	}
	return &World{Solid: solid, Water: water, Palette: pal}, nil
}

// PackOrFallback rebuilds w into a Packed octree for compactness, falling
// back to the already-loaded Node storage if the id space fills up before
// the rebuild finishes.
func PackOrFallback(w octree.Walkable) octree.Walkable {
	packed := octree.NewPacked(w.Depth())
	var failed bool
	w.Walk(func(x, y, z, size int, raw uint32) uint32 {
		if failed || raw == 0 {
			return raw
		}
		for dz := 0; dz < size && !failed; dz++ {
			for dy := 0; dy < size && !failed; dy++ {
				for dx := 0; dx < size && !failed; dx++ {
					if err := packed.Set(raw, x+dx, y+dy, z+dz); err == octree.ErrOctreeTooBig {
						failed = true
					}
				}
			}
		}
		return raw
	})
	if failed {
		return w
	}
	return packed
}
