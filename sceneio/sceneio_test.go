package sceneio

import (
	"path/filepath"
	"testing"

	"github.com/voxelforge/tracecore/octree"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/skylight"
)

func TestDescriptionSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")

	want := Default("test", 64, 48)
	want.Chunks = []ChunkRef{{X: 0, Z: 0}, {X: 1, Z: 0}}
	want.MaterialOverrides = []MaterialOverride{
		{Name: "stone", Albedo: [4]float32{0.5, 0.5, 0.5, 1}, Roughness: 0.9, Opaque: true, Solid: true},
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.SDFVersion != sdfVersion {
		t.Errorf("SDFVersion = %d, want %d", got.SDFVersion, sdfVersion)
	}
	if got.Width != want.Width || got.Height != want.Height {
		t.Errorf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	if len(got.Chunks) != 2 || got.Chunks[1].X != 1 {
		t.Errorf("Chunks = %v, want %v", got.Chunks, want.Chunks)
	}
	if len(got.MaterialOverrides) != 1 || got.MaterialOverrides[0].Name != "stone" {
		t.Errorf("MaterialOverrides = %v, want %v", got.MaterialOverrides, want.MaterialOverrides)
	}
}

func TestWorldSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.octree2")

	pal := palette.New()
	stoneID := pal.Add(palette.DefaultMaterial())

	solid := octree.NewNode(3)
	if err := solid.Set(pal.Encode(stoneID, 0), 2, 3, 4); err != nil {
		t.Fatalf("Set: %v", err)
	}
	water := octree.NewNode(3)

	if err := SaveWorld(path, solid, water, pal); err != nil {
		t.Fatalf("SaveWorld: %v", err)
	}
	got, err := LoadWorld(path)
	if err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}

	if raw := got.Solid.Get(2, 3, 4); got.Palette.Get(int(raw)).Name != "default" {
		t.Errorf("Solid.Get(2,3,4) decoded to material %q, want default", got.Palette.Get(int(raw)).Name)
	}
	if got.Palette.Len() != pal.Len() {
		t.Errorf("Palette.Len() = %d, want %d", got.Palette.Len(), pal.Len())
	}
}

func TestEmitterGridSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.emittergrid")

	grid := skylight.NewEmitterGrid(32, 8)
	grid.Accumulate(1, 1, 1, 4.0)
	grid.Accumulate(20, 20, 20, 2.0)
	grid.Finalize()

	if err := SaveEmitterGrid(path, grid); err != nil {
		t.Fatalf("SaveEmitterGrid: %v", err)
	}
	got, err := LoadEmitterGrid(path)
	if err != nil {
		t.Fatalf("LoadEmitterGrid: %v", err)
	}

	if got.CellSize != grid.CellSize || got.Dims != grid.Dims {
		t.Errorf("CellSize/Dims = %d/%v, want %d/%v", got.CellSize, got.Dims, grid.CellSize, grid.Dims)
	}
	if got.Empty() {
		t.Fatal("loaded grid reports Empty(), want non-empty")
	}
	if _, pdf, ok := got.Sample(0, 0.5, 0.5); !ok || pdf <= 0 {
		t.Errorf("Sample = pdf %v ok %v, want a positive pdf", pdf, ok)
	}
}

func TestLoadSceneAssemblesFromThreeFiles(t *testing.T) {
	dir := t.TempDir()
	const name = "test"

	pal := palette.New()
	stoneID := pal.Add(palette.DefaultMaterial())
	solid := octree.NewNode(4)
	if err := solid.Set(pal.Encode(stoneID, 0), 8, 8, 8); err != nil {
		t.Fatalf("Set: %v", err)
	}
	water := octree.NewNode(4)
	octree.Finalize(solid, water, pal)

	desc := Default(name, 16, 12)
	if err := Save(filepath.Join(dir, name+".json"), desc); err != nil {
		t.Fatalf("Save description: %v", err)
	}
	if err := SaveWorld(filepath.Join(dir, name+".octree2"), solid, water, pal); err != nil {
		t.Fatalf("SaveWorld: %v", err)
	}

	s, gotDesc, err := LoadScene(dir, name)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if s.Samples.Width != 16 || s.Samples.Height != 12 {
		t.Errorf("sample buffer size = %dx%d, want 16x12", s.Samples.Width, s.Samples.Height)
	}
	if gotDesc.Name != name {
		t.Errorf("Description.Name = %q, want %q", gotDesc.Name, name)
	}
	if raw := s.Solid.Get(8, 8, 8); s.Palette.Get(int(raw)).Name != "default" {
		t.Error("loaded scene's solid octree did not round-trip the stone voxel")
	}
}
