package entity

import (
	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/vmath"
)

// Mesh is a CPU-resident triangle mesh. It owns nothing GPU-side; the BVH
// reads vertices directly out of Vertices/Indices to build triangle
// primitives (bvh.New).
type Mesh struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32
	Material *palette.Material
}

func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	return &Mesh{Name: name, Vertices: vertices, Indices: indices}
}

// TriangleCount returns the number of triangles, len(Indices)/3; trailing
// indices short of a full triangle are not counted.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c core.Vertex) {
	base := i * 3
	return m.Vertices[m.Indices[base]], m.Vertices[m.Indices[base+1]], m.Vertices[m.Indices[base+2]]
}

// Transformed bakes world into every vertex's position and normal, returning
// a new mesh sharing the same index buffer and material. The BVH builder
// only ever sees baked, world-space meshes: entities are a static triangle
// soup at render start, not a live transform hierarchy.
func (m *Mesh) Transformed(world vmath.Mat4) *Mesh {
	normalMat := world.Inverse().Transpose()
	verts := make([]core.Vertex, len(m.Vertices))
	for i, v := range m.Vertices {
		nv := v
		nv.Position = world.MulVec3(v.Position)
		nv.Normal = normalMat.MulDir(v.Normal).Normalize()
		verts[i] = nv
	}
	return &Mesh{Name: m.Name, Vertices: verts, Indices: m.Indices, Material: m.Material}
}
