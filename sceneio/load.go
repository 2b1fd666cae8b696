package sceneio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxelforge/tracecore/bvh"
	"github.com/voxelforge/tracecore/scene"
)

// LoadScene assembles a complete scene.Scene from a scene directory's three
// files: `<name>.json`, `<name>.octree2` and, if present, `<name>.emittergrid`.
// Entity meshes (the BVH) are outside a scene directory's file set — mesh
// loading is a separate concern handled by entity.LoadGLTF/LoadOBJ, so
// LoadScene hands back an empty BVH and leaves that to the caller.
func LoadScene(dir, name string) (*scene.Scene, *Description, error) {
	desc, err := Load(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, nil, err
	}
	world, err := LoadWorld(filepath.Join(dir, name+".octree2"))
	if err != nil {
		return nil, nil, fmt.Errorf("sceneio: load %s: %w", name, err)
	}

	s := scene.New(world.Solid, world.Water, bvh.New(nil), world.Palette, desc.Width, desc.Height)
	Apply(desc, s)

	gridPath := filepath.Join(dir, name+".emittergrid")
	if _, err := os.Stat(gridPath); err == nil {
		grid, err := LoadEmitterGrid(gridPath)
		if err != nil {
			return nil, nil, fmt.Errorf("sceneio: load %s: %w", name, err)
		}
		s.SetEmitters(grid)
	}

	s.Refresh(scene.ResetSceneLoaded)
	return s, desc, nil
}

// SaveScene writes a scene directory's `<name>.json`, `<name>.octree2` and
// `<name>.emittergrid` files from the current state of s and desc. Capture
// should be called first if desc's camera/sun/sky need to reflect in-session
// edits rather than the values desc already carries.
func SaveScene(dir, name string, desc *Description, s *scene.Scene) error {
	s.RLock()
	defer s.RUnlock()

	if err := Save(filepath.Join(dir, name+".json"), desc); err != nil {
		return err
	}
	if err := SaveWorld(filepath.Join(dir, name+".octree2"), s.Solid, s.Water, s.Palette); err != nil {
		return err
	}
	if s.Emitters != nil {
		if err := SaveEmitterGrid(filepath.Join(dir, name+".emittergrid"), s.Emitters); err != nil {
			return err
		}
	}
	return nil
}
