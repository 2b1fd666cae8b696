package sceneio

import (
	"compress/gzip"
	"fmt"
	"os"

	"github.com/voxelforge/tracecore/skylight"
)

// SaveEmitterGrid gzip-writes grid to path as the scene's `<name>.emittergrid`
// file.
func SaveEmitterGrid(path string, grid *skylight.EmitterGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sceneio: create %s: %w", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := grid.WriteTo(gz); err != nil {
		return fmt.Errorf("sceneio: write emitter grid: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("sceneio: close gzip stream for %s: %w", path, err)
	}
	return nil
}

// LoadEmitterGrid reads a `<name>.emittergrid` file written by
// SaveEmitterGrid, returning a grid already Finalize'd and ready for Sample.
func LoadEmitterGrid(path string) (*skylight.EmitterGrid, error) {
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

	grid, err := skylight.ReadFromEmitterGrid(gz)
	if err != nil {
		return nil, fmt.Errorf("sceneio: read emitter grid: %w", err)
	}
	return grid, nil
}
