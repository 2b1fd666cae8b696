package entity

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/vmath"
)

// LoadOBJ parses a Wavefront .obj file into a node tree, one child Node per
// "o"/"g" group, each carrying a *Mesh with its material resolved out of an
// associated .mtl file. Parsing and material resolution happen in one pass;
// there is no GPU upload stage to defer either step to.
func LoadOBJ(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OBJ file: %w", err)
	}
	defer f.Close()

	root := NewNode(filepath.Base(path))
	mtlLib := make(map[string]*palette.Material)

	var positions []vmath.Vec3
	var normals []vmath.Vec3
	var uvs []vmath.Vec2

	type objMesh struct {
		name     string
		vertices []core.Vertex
		indices  []uint32
		material string
	}

	var sawNormals bool

	flush := func(m objMesh) {
		if len(m.vertices) == 0 {
			return
		}
		if !sawNormals {
			generateFlatNormals(m.vertices, m.indices)
		}
		mesh := CreateMeshFromData(m.name, m.vertices, m.indices)
		if mat, ok := mtlLib[m.material]; ok {
			mesh.Material = mat
		} else {
			mesh.Material = palette.DefaultMaterial()
		}
		child := NewNode(m.name)
		child.Mesh = mesh
		root.AddChild(child)
	}

	current := objMesh{name: "default"}
	currentMaterial := ""
	vertexMap := make(map[string]uint32)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "v":
			if len(parts) >= 4 {
				x, _ := strconv.ParseFloat(parts[1], 32)
				y, _ := strconv.ParseFloat(parts[2], 32)
				z, _ := strconv.ParseFloat(parts[3], 32)
				positions = append(positions, vmath.Vec3{X: float32(x), Y: float32(y), Z: float32(z)})
			}
		case "vn":
			if len(parts) >= 4 {
				x, _ := strconv.ParseFloat(parts[1], 32)
				y, _ := strconv.ParseFloat(parts[2], 32)
				z, _ := strconv.ParseFloat(parts[3], 32)
				normals = append(normals, vmath.Vec3{X: float32(x), Y: float32(y), Z: float32(z)})
				sawNormals = true
			}
		case "vt":
			if len(parts) >= 3 {
				u, _ := strconv.ParseFloat(parts[1], 32)
				v, _ := strconv.ParseFloat(parts[2], 32)
				uvs = append(uvs, vmath.Vec2{X: float32(u), Y: float32(v)})
			}
		case "f":
			faceVerts := make([]uint32, 0, len(parts)-1)
			for _, faceStr := range parts[1:] {
				if idx, ok := vertexMap[faceStr]; ok {
					faceVerts = append(faceVerts, idx)
					continue
				}
				vertex := parseFaceVertex(faceStr, positions, normals, uvs)
				newIdx := uint32(len(current.vertices))
				current.vertices = append(current.vertices, vertex)
				vertexMap[faceStr] = newIdx
				faceVerts = append(faceVerts, newIdx)
			}
			for i := 2; i < len(faceVerts); i++ {
				current.indices = append(current.indices, faceVerts[0], faceVerts[i-1], faceVerts[i])
			}

		case "o", "g":
			flush(current)
			name := "unnamed"
			if len(parts) > 1 {
				name = parts[1]
			}
			current = objMesh{name: name, material: currentMaterial}
			vertexMap = make(map[string]uint32)

		case "usemtl":
			if len(parts) > 1 {
				currentMaterial = parts[1]
				current.material = currentMaterial
			}

		case "mtllib":
			if len(parts) > 1 {
				mtlPath := filepath.Join(filepath.Dir(path), parts[1])
				mtls, err := LoadMTL(mtlPath)
				if err != nil {
					fmt.Printf("obj: mtllib %s: %v\n", mtlPath, err)
				} else {
					for k, v := range mtls {
						mtlLib[k] = v
					}
				}
			}
		}
	}
	flush(current)

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(root.Children) == 0 {
		return nil, fmt.Errorf("no mesh data found in OBJ file %q", path)
	}
	return root, nil
}

// LoadMTL parses a Wavefront .mtl material file into palette.Materials.
func LoadMTL(path string) (map[string]*palette.Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := make(map[string]*palette.Material)
	var current *palette.Material

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "newmtl":
			if len(parts) > 1 {
				current = palette.DefaultMaterial()
				current.Name = parts[1]
				result[parts[1]] = current
			}
		case "Kd":
			if current != nil && len(parts) >= 4 {
				r, _ := strconv.ParseFloat(parts[1], 32)
				g, _ := strconv.ParseFloat(parts[2], 32)
				b, _ := strconv.ParseFloat(parts[3], 32)
				current.Albedo.R, current.Albedo.G, current.Albedo.B = float32(r), float32(g), float32(b)
			}
		case "Ks":
			if current != nil && len(parts) >= 4 {
				r, _ := strconv.ParseFloat(parts[1], 32)
				g, _ := strconv.ParseFloat(parts[2], 32)
				b, _ := strconv.ParseFloat(parts[3], 32)
				current.Specular = (float32(r) + float32(g) + float32(b)) / 3
			}
		case "Ns":
			if current != nil && len(parts) >= 2 {
				ns, _ := strconv.ParseFloat(parts[1], 32)
				current.Roughness = 1.0 - float32(ns)/1000.0
				if current.Roughness < 0 {
					current.Roughness = 0
				}
			}
		case "Ni":
			if current != nil && len(parts) >= 2 {
				ni, _ := strconv.ParseFloat(parts[1], 32)
				current.IOR = float32(ni)
			}
		case "d", "Tr":
			if current != nil && len(parts) >= 2 {
				d, _ := strconv.ParseFloat(parts[1], 32)
				if parts[0] == "Tr" {
					d = 1.0 - d
				}
				current.Albedo.A = float32(d)
				current.Opaque = d >= 0.999
			}
		case "map_Kd":
			if current != nil && len(parts) >= 2 {
				texPath := filepath.Join(filepath.Dir(path), parts[1])
				tex, err := palette.LoadTexture(texPath)
				if err == nil {
					current.Texture = tex
				}
			}
		}
	}

	return result, scanner.Err()
}

// generateFlatNormals computes area-weighted face normals for an OBJ mesh
// that carried no "vn" lines of its own.
func generateFlatNormals(vertices []core.Vertex, indices []uint32) {
	accum := make([]vmath.Vec3, len(vertices))
	counts := make([]int, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0 := vertices[i0].Position
		v1 := vertices[i1].Position
		v2 := vertices[i2].Position
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
		counts[i0]++
		counts[i1]++
		counts[i2]++
	}
	for i := range vertices {
		if counts[i] > 0 {
			vertices[i].Normal = accum[i].Normalize()
		}
	}
}

// parseFaceVertex parses an OBJ face vertex spec like "v/vt/vn".
func parseFaceVertex(spec string, positions []vmath.Vec3, normals []vmath.Vec3, uvs []vmath.Vec2) core.Vertex {
	v := core.Vertex{Color: defaultVertexColor}

	parts := strings.Split(spec, "/")

	if len(parts) >= 1 && parts[0] != "" {
		idx, _ := strconv.Atoi(parts[0])
		if idx < 0 {
			idx = len(positions) + idx + 1
		}
		if idx > 0 && idx <= len(positions) {
			v.Position = positions[idx-1]
		}
	}

	if len(parts) >= 2 && parts[1] != "" {
		idx, _ := strconv.Atoi(parts[1])
		if idx < 0 {
			idx = len(uvs) + idx + 1
		}
		if idx > 0 && idx <= len(uvs) {
			v.UV = uvs[idx-1]
		}
	}

	if len(parts) >= 3 && parts[2] != "" {
		idx, _ := strconv.Atoi(parts[2])
		if idx < 0 {
			idx = len(normals) + idx + 1
		}
		if idx > 0 && idx <= len(normals) {
			v.Normal = normals[idx-1]
		}
	}

	return v
}
