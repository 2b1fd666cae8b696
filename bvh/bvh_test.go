package bvh

import (
	"testing"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/entity"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/vmath"
)

func quadMesh(center vmath.Vec3, mat *palette.Material) *entity.Mesh {
	h := float32(0.5)
	verts := []core.Vertex{
		{Position: center.Add(vmath.Vec3{X: -h, Y: -h}), Normal: vmath.Vec3{Z: -1}, UV: vmath.Vec2{X: 0, Y: 0}},
		{Position: center.Add(vmath.Vec3{X: h, Y: -h}), Normal: vmath.Vec3{Z: -1}, UV: vmath.Vec2{X: 1, Y: 0}},
		{Position: center.Add(vmath.Vec3{X: h, Y: h}), Normal: vmath.Vec3{Z: -1}, UV: vmath.Vec2{X: 1, Y: 1}},
		{Position: center.Add(vmath.Vec3{X: -h, Y: h}), Normal: vmath.Vec3{Z: -1}, UV: vmath.Vec2{X: 0, Y: 1}},
	}
	return &entity.Mesh{
		Name:     "quad",
		Vertices: verts,
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		Material: mat,
	}
}

func TestIntersectClosestHit(t *testing.T) {
	near := palette.EmissiveMaterial("near", core.ColorRed, 0)
	far := palette.EmissiveMaterial("far", core.ColorBlue, 0)
	meshes := []*entity.Mesh{
		quadMesh(vmath.Vec3{Z: 5}, near),
		quadMesh(vmath.Vec3{Z: 10}, far),
	}
	h := New(meshes)

	ray := vmath.NewRay(vmath.Vec3{}, vmath.Vec3{Z: 1})
	hit, ok := h.Intersect(ray, 1e-4, 1e30)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Distance < 4.99 || hit.Distance > 5.01 {
		t.Fatalf("Distance = %v, want ~5", hit.Distance)
	}
	if hit.Material != near {
		t.Fatalf("Material = %v, want the near quad's material", hit.Material.Name)
	}
}

func TestIntersectMiss(t *testing.T) {
	mat := palette.DefaultMaterial()
	h := New([]*entity.Mesh{quadMesh(vmath.Vec3{Z: 5}, mat)})
	ray := vmath.NewRay(vmath.Vec3{X: 100}, vmath.Vec3{Z: 1})
	if _, ok := h.Intersect(ray, 1e-4, 1e30); ok {
		t.Fatal("expected no hit")
	}
}

func TestEmptyBVH(t *testing.T) {
	h := New(nil)
	ray := vmath.NewRay(vmath.Vec3{}, vmath.Vec3{Z: 1})
	if _, ok := h.Intersect(ray, 1e-4, 1e30); ok {
		t.Fatal("expected no hit on an empty BVH")
	}
}
