package entity

import (
	stdmath "math"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/vmath"
)

// Procedural mesh generators. Each returns a *Mesh directly: a CPU-resident
// mesh has no GPU buffer allocation that can fail, so there is nothing for
// these to return an error for.

var defaultVertexColor = core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1.0}

func CreateSphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	var vertices []core.Vertex
	var indices []uint32

	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * stdmath.Pi / float64(rings)
		sinPhi := float32(stdmath.Sin(phi))
		cosPhi := float32(stdmath.Cos(phi))

		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2.0 * stdmath.Pi / float64(segments)
			sinTheta := float32(stdmath.Sin(theta))
			cosTheta := float32(stdmath.Cos(theta))

			normal := vmath.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			position := normal.Mul(radius)
			uv := vmath.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)}

			vertices = append(vertices, core.Vertex{
				Position: position,
				Normal:   normal,
				UV:       uv,
				Color:    defaultVertexColor,
			})
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)

			indices = append(indices, current, next, current+1)
			indices = append(indices, current+1, next, next+1)
		}
	}

	return CreateMeshFromData("Sphere", vertices, indices)
}

func CreateCylinder(radius, height float32, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}

	var vertices []core.Vertex
	var indices []uint32
	halfHeight := height / 2.0

	for i := 0; i <= segments; i++ {
		theta := float64(i) * 2.0 * stdmath.Pi / float64(segments)
		cosT := float32(stdmath.Cos(theta))
		sinT := float32(stdmath.Sin(theta))
		normal := vmath.Vec3{X: cosT, Y: 0, Z: sinT}
		u := float32(i) / float32(segments)

		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosT * radius, Y: -halfHeight, Z: sinT * radius},
			Normal:   normal,
			UV:       vmath.Vec2{X: u, Y: 0},
			Color:    defaultVertexColor,
		})
		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosT * radius, Y: halfHeight, Z: sinT * radius},
			Normal:   normal,
			UV:       vmath.Vec2{X: u, Y: 1},
			Color:    defaultVertexColor,
		})
	}

	for i := 0; i < segments; i++ {
		base := uint32(i * 2)
		indices = append(indices, base, base+1, base+2)
		indices = append(indices, base+2, base+1, base+3)
	}

	topCenter := uint32(len(vertices))
	vertices = append(vertices, core.Vertex{
		Position: vmath.Vec3{X: 0, Y: halfHeight, Z: 0},
		Normal:   vmath.Vec3Up,
		UV:       vmath.Vec2{X: 0.5, Y: 0.5},
		Color:    defaultVertexColor,
	})

	for i := 0; i < segments; i++ {
		theta := float64(i) * 2.0 * stdmath.Pi / float64(segments)
		nextTheta := float64(i+1) * 2.0 * stdmath.Pi / float64(segments)
		cosT := float32(stdmath.Cos(theta))
		sinT := float32(stdmath.Sin(theta))
		cosN := float32(stdmath.Cos(nextTheta))
		sinN := float32(stdmath.Sin(nextTheta))

		v1 := uint32(len(vertices))
		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosT * radius, Y: halfHeight, Z: sinT * radius},
			Normal:   vmath.Vec3Up,
			UV:       vmath.Vec2{X: cosT*0.5 + 0.5, Y: sinT*0.5 + 0.5},
			Color:    defaultVertexColor,
		})
		v2 := uint32(len(vertices))
		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosN * radius, Y: halfHeight, Z: sinN * radius},
			Normal:   vmath.Vec3Up,
			UV:       vmath.Vec2{X: cosN*0.5 + 0.5, Y: sinN*0.5 + 0.5},
			Color:    defaultVertexColor,
		})
		indices = append(indices, topCenter, v1, v2)
	}

	botCenter := uint32(len(vertices))
	vertices = append(vertices, core.Vertex{
		Position: vmath.Vec3{X: 0, Y: -halfHeight, Z: 0},
		Normal:   vmath.Vec3Down,
		UV:       vmath.Vec2{X: 0.5, Y: 0.5},
		Color:    defaultVertexColor,
	})

	for i := 0; i < segments; i++ {
		theta := float64(i) * 2.0 * stdmath.Pi / float64(segments)
		nextTheta := float64(i+1) * 2.0 * stdmath.Pi / float64(segments)
		cosT := float32(stdmath.Cos(theta))
		sinT := float32(stdmath.Sin(theta))
		cosN := float32(stdmath.Cos(nextTheta))
		sinN := float32(stdmath.Sin(nextTheta))

		v1 := uint32(len(vertices))
		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosT * radius, Y: -halfHeight, Z: sinT * radius},
			Normal:   vmath.Vec3Down,
			UV:       vmath.Vec2{X: cosT*0.5 + 0.5, Y: sinT*0.5 + 0.5},
			Color:    defaultVertexColor,
		})
		v2 := uint32(len(vertices))
		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosN * radius, Y: -halfHeight, Z: sinN * radius},
			Normal:   vmath.Vec3Down,
			UV:       vmath.Vec2{X: cosN*0.5 + 0.5, Y: sinN*0.5 + 0.5},
			Color:    defaultVertexColor,
		})
		indices = append(indices, botCenter, v2, v1)
	}

	return CreateMeshFromData("Cylinder", vertices, indices)
}

func CreateCone(radius, height float32, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}

	var vertices []core.Vertex
	var indices []uint32
	halfHeight := height / 2.0

	tipIdx := uint32(0)
	vertices = append(vertices, core.Vertex{
		Position: vmath.Vec3{X: 0, Y: halfHeight, Z: 0},
		Normal:   vmath.Vec3Up,
		UV:       vmath.Vec2{X: 0.5, Y: 0},
		Color:    defaultVertexColor,
	})

	for i := 0; i <= segments; i++ {
		theta := float64(i) * 2.0 * stdmath.Pi / float64(segments)
		cosT := float32(stdmath.Cos(theta))
		sinT := float32(stdmath.Sin(theta))

		slopeAngle := float32(stdmath.Atan2(float64(radius), float64(height)))
		ny := float32(stdmath.Cos(float64(slopeAngle)))
		nr := float32(stdmath.Sin(float64(slopeAngle)))
		normal := vmath.Vec3{X: cosT * nr, Y: ny, Z: sinT * nr}.Normalize()

		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosT * radius, Y: -halfHeight, Z: sinT * radius},
			Normal:   normal,
			UV:       vmath.Vec2{X: float32(i) / float32(segments), Y: 1},
			Color:    defaultVertexColor,
		})
	}

	for i := 0; i < segments; i++ {
		indices = append(indices, tipIdx, uint32(i+1), uint32(i+2))
	}

	botCenter := uint32(len(vertices))
	vertices = append(vertices, core.Vertex{
		Position: vmath.Vec3{X: 0, Y: -halfHeight, Z: 0},
		Normal:   vmath.Vec3Down,
		UV:       vmath.Vec2{X: 0.5, Y: 0.5},
		Color:    defaultVertexColor,
	})

	for i := 0; i < segments; i++ {
		theta := float64(i) * 2.0 * stdmath.Pi / float64(segments)
		nextTheta := float64(i+1) * 2.0 * stdmath.Pi / float64(segments)
		cosT := float32(stdmath.Cos(theta))
		sinT := float32(stdmath.Sin(theta))
		cosN := float32(stdmath.Cos(nextTheta))
		sinN := float32(stdmath.Sin(nextTheta))

		v1 := uint32(len(vertices))
		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosT * radius, Y: -halfHeight, Z: sinT * radius},
			Normal:   vmath.Vec3Down,
			UV:       vmath.Vec2{X: cosT*0.5 + 0.5, Y: sinT*0.5 + 0.5},
			Color:    defaultVertexColor,
		})
		v2 := uint32(len(vertices))
		vertices = append(vertices, core.Vertex{
			Position: vmath.Vec3{X: cosN * radius, Y: -halfHeight, Z: sinN * radius},
			Normal:   vmath.Vec3Down,
			UV:       vmath.Vec2{X: cosN*0.5 + 0.5, Y: sinN*0.5 + 0.5},
			Color:    defaultVertexColor,
		})
		indices = append(indices, botCenter, v2, v1)
	}

	return CreateMeshFromData("Cone", vertices, indices)
}

func CreateTorus(majorRadius, minorRadius float32, majorSegments, minorSegments int) *Mesh {
	if majorSegments < 3 {
		majorSegments = 3
	}
	if minorSegments < 3 {
		minorSegments = 3
	}

	var vertices []core.Vertex
	var indices []uint32

	for i := 0; i <= majorSegments; i++ {
		theta := float64(i) * 2.0 * stdmath.Pi / float64(majorSegments)
		cosTheta := float32(stdmath.Cos(theta))
		sinTheta := float32(stdmath.Sin(theta))

		for j := 0; j <= minorSegments; j++ {
			phi := float64(j) * 2.0 * stdmath.Pi / float64(minorSegments)
			cosPhi := float32(stdmath.Cos(phi))
			sinPhi := float32(stdmath.Sin(phi))

			x := (majorRadius + minorRadius*cosPhi) * cosTheta
			y := minorRadius * sinPhi
			z := (majorRadius + minorRadius*cosPhi) * sinTheta

			nx := cosPhi * cosTheta
			ny := sinPhi
			nz := cosPhi * sinTheta

			vertices = append(vertices, core.Vertex{
				Position: vmath.Vec3{X: x, Y: y, Z: z},
				Normal:   vmath.Vec3{X: nx, Y: ny, Z: nz}.Normalize(),
				UV:       vmath.Vec2{X: float32(i) / float32(majorSegments), Y: float32(j) / float32(minorSegments)},
				Color:    defaultVertexColor,
			})
		}
	}

	for i := 0; i < majorSegments; i++ {
		for j := 0; j < minorSegments; j++ {
			current := uint32(i*(minorSegments+1) + j)
			next := uint32((i+1)*(minorSegments+1) + j)

			indices = append(indices, current, next, current+1)
			indices = append(indices, current+1, next, next+1)
		}
	}

	return CreateMeshFromData("Torus", vertices, indices)
}

func CreatePlane(width, depth float32, subdivisions int) *Mesh {
	if subdivisions < 1 {
		subdivisions = 1
	}

	var vertices []core.Vertex
	var indices []uint32

	halfW := width / 2.0
	halfD := depth / 2.0

	for z := 0; z <= subdivisions; z++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(z) / float32(subdivisions)

			vertices = append(vertices, core.Vertex{
				Position: vmath.Vec3{
					X: -halfW + u*width,
					Y: 0,
					Z: -halfD + v*depth,
				},
				Normal: vmath.Vec3Up,
				UV:     vmath.Vec2{X: u, Y: v},
				Color:  defaultVertexColor,
			})
		}
	}

	for z := 0; z < subdivisions; z++ {
		for x := 0; x < subdivisions; x++ {
			topLeft := uint32(z*(subdivisions+1) + x)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(subdivisions+1)
			bottomRight := bottomLeft + 1

			indices = append(indices, topLeft, bottomLeft, topRight)
			indices = append(indices, topRight, bottomLeft, bottomRight)
		}
	}

	return CreateMeshFromData("Plane", vertices, indices)
}

// CreateTriangle and CreateQuad build their mesh directly out of raw
// vertex/index slices.

func CreateTriangle(a, b, c vmath.Vec3) *Mesh {
	normal := b.Sub(a).Cross(c.Sub(a)).Normalize()
	vertices := []core.Vertex{
		{Position: a, Normal: normal, UV: vmath.Vec2{X: 0, Y: 0}, Color: defaultVertexColor},
		{Position: b, Normal: normal, UV: vmath.Vec2{X: 1, Y: 0}, Color: defaultVertexColor},
		{Position: c, Normal: normal, UV: vmath.Vec2{X: 0.5, Y: 1}, Color: defaultVertexColor},
	}
	return CreateMeshFromData("Triangle", vertices, []uint32{0, 1, 2})
}

func CreateQuad(width, height float32) *Mesh {
	halfW, halfH := width/2, height/2
	vertices := []core.Vertex{
		{Position: vmath.Vec3{X: -halfW, Y: -halfH, Z: 0}, Normal: vmath.Vec3Front, UV: vmath.Vec2{X: 0, Y: 0}, Color: defaultVertexColor},
		{Position: vmath.Vec3{X: halfW, Y: -halfH, Z: 0}, Normal: vmath.Vec3Front, UV: vmath.Vec2{X: 1, Y: 0}, Color: defaultVertexColor},
		{Position: vmath.Vec3{X: halfW, Y: halfH, Z: 0}, Normal: vmath.Vec3Front, UV: vmath.Vec2{X: 1, Y: 1}, Color: defaultVertexColor},
		{Position: vmath.Vec3{X: -halfW, Y: halfH, Z: 0}, Normal: vmath.Vec3Front, UV: vmath.Vec2{X: 0, Y: 1}, Color: defaultVertexColor},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return CreateMeshFromData("Quad", vertices, indices)
}

func CreateCube(size float32) *Mesh {
	h := size / 2
	faces := []struct {
		normal     vmath.Vec3
		a, b, c, d vmath.Vec3
	}{
		{vmath.Vec3Front, vmath.Vec3{X: -h, Y: -h, Z: h}, vmath.Vec3{X: h, Y: -h, Z: h}, vmath.Vec3{X: h, Y: h, Z: h}, vmath.Vec3{X: -h, Y: h, Z: h}},
		{vmath.Vec3Back, vmath.Vec3{X: h, Y: -h, Z: -h}, vmath.Vec3{X: -h, Y: -h, Z: -h}, vmath.Vec3{X: -h, Y: h, Z: -h}, vmath.Vec3{X: h, Y: h, Z: -h}},
		{vmath.Vec3Up, vmath.Vec3{X: -h, Y: h, Z: h}, vmath.Vec3{X: h, Y: h, Z: h}, vmath.Vec3{X: h, Y: h, Z: -h}, vmath.Vec3{X: -h, Y: h, Z: -h}},
		{vmath.Vec3Down, vmath.Vec3{X: -h, Y: -h, Z: -h}, vmath.Vec3{X: h, Y: -h, Z: -h}, vmath.Vec3{X: h, Y: -h, Z: h}, vmath.Vec3{X: -h, Y: -h, Z: h}},
		{vmath.Vec3Right, vmath.Vec3{X: h, Y: -h, Z: h}, vmath.Vec3{X: h, Y: -h, Z: -h}, vmath.Vec3{X: h, Y: h, Z: -h}, vmath.Vec3{X: h, Y: h, Z: h}},
		{vmath.Vec3Left, vmath.Vec3{X: -h, Y: -h, Z: -h}, vmath.Vec3{X: -h, Y: -h, Z: h}, vmath.Vec3{X: -h, Y: h, Z: h}, vmath.Vec3{X: -h, Y: h, Z: -h}},
	}

	var vertices []core.Vertex
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(vertices))
		uvs := [4]vmath.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
		for i, p := range [4]vmath.Vec3{f.a, f.b, f.c, f.d} {
			vertices = append(vertices, core.Vertex{Position: p, Normal: f.normal, UV: uvs[i], Color: defaultVertexColor})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return CreateMeshFromData("Cube", vertices, indices)
}
