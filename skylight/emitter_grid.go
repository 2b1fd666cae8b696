package skylight

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/voxelforge/tracecore/vmath"
)

// EmitterGrid is a coarse 3D occupancy map of emittance-weighted cells,
// built once at scene load by summing emitter material emittance over each
// cell's voxels, and used to importance-sample surface emitters for the
// path tracer's MIS direct-light estimate: pick one emitter cell weighted
// by its emittance, then MIS-combine with BRDF sampling. Persisted
// separately as the scene's gzipped `.emittergrid` file.
type EmitterGrid struct {
	CellSize int
	Dims     [3]int // grid dimensions in cells
	weights  []float32
	cumWeight []float32 // running sum, for O(log n) weighted cell selection
	total     float32
}

// NewEmitterGrid allocates an all-zero grid over a scene of the given voxel
// size, with cells of cellSize^3 voxels.
func NewEmitterGrid(sceneSize, cellSize int) *EmitterGrid {
	n := (sceneSize + cellSize - 1) / cellSize
	g := &EmitterGrid{
		CellSize: cellSize,
		Dims:     [3]int{n, n, n},
		weights:  make([]float32, n*n*n),
	}
	return g
}

func (g *EmitterGrid) index(cx, cy, cz int) int {
	return (cz*g.Dims[1]+cy)*g.Dims[0] + cx
}

// Accumulate adds weight (typically a voxel's material emittance) to the
// cell containing voxel coordinate (x, y, z).
func (g *EmitterGrid) Accumulate(x, y, z int, weight float32) {
	if weight <= 0 {
		return
	}
	cx, cy, cz := x/g.CellSize, y/g.CellSize, z/g.CellSize
	if cx < 0 || cy < 0 || cz < 0 || cx >= g.Dims[0] || cy >= g.Dims[1] || cz >= g.Dims[2] {
		return
	}
	g.weights[g.index(cx, cy, cz)] += weight
}

// Finalize builds the cumulative distribution used by Sample. Call once
// after every Accumulate call has been made.
func (g *EmitterGrid) Finalize() {
	g.cumWeight = make([]float32, len(g.weights))
	var sum float32
	for i, w := range g.weights {
		sum += w
		g.cumWeight[i] = sum
	}
	g.total = sum
}

// Empty reports whether the grid has no emitting cells, in which case the
// path tracer should skip emitter-grid sampling entirely.
func (g *EmitterGrid) Empty() bool {
	return g.total <= 0
}

// Sample draws one cell weighted by its accumulated emittance (returning a
// world-space point inside it, jittered uniformly in X and Y by u2/u3 and at
// the cell's mid-height in Z) and the pdf of
// having picked that cell, for MIS with BRDF sampling.
func (g *EmitterGrid) Sample(u1, u2, u3 float32) (pos vmath.Vec3, pdf float32, ok bool) {
	if g.Empty() {
		return vmath.Vec3{}, 0, false
	}
	target := u1 * g.total
	i := sort.Search(len(g.cumWeight), func(i int) bool { return g.cumWeight[i] >= target })
	if i >= len(g.cumWeight) {
		i = len(g.cumWeight) - 1
	}
	cz := i / (g.Dims[0] * g.Dims[1])
	rem := i % (g.Dims[0] * g.Dims[1])
	cy := rem / g.Dims[0]
	cx := rem % g.Dims[0]

	cs := float32(g.CellSize)
	base := vmath.Vec3{X: float32(cx) * cs, Y: float32(cy) * cs, Z: float32(cz) * cs}
	jitter := vmath.Vec3{X: u2 * cs, Y: u3 * cs, Z: cs * 0.5}
	pos = base.Add(jitter)

	weight := g.weights[i]
	pdf = weight / g.total
	return pos, pdf, true
}

// --- serialization ------------------------------------------------------
//
// Only CellSize, Dims and the raw per-cell weights survive a round trip;
// cumWeight and total are derived, so ReadFrom rebuilds them with Finalize
// instead of storing them — the same derived-state-is-not-persisted approach
// as palette.Palette.WriteTo/ReadFrom, which this mirrors field-for-field.

func (g *EmitterGrid) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	writeU32 := func(v uint32) error {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		n, err := bw.Write(b[:])
		written += int64(n)
		return err
	}
	writeF32 := func(v float32) error { return writeU32(math.Float32bits(v)) }

	if err := writeU32(uint32(g.CellSize)); err != nil {
		return written, err
	}
	for _, d := range g.Dims {
		if err := writeU32(uint32(d)); err != nil {
			return written, err
		}
	}
	if err := writeU32(uint32(len(g.weights))); err != nil {
		return written, err
	}
	for _, w := range g.weights {
		if err := writeF32(w); err != nil {
			return written, err
		}
	}
	if err := bw.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

// ReadFromEmitterGrid reads a grid written by WriteTo and finalizes its
// cumulative distribution so it is immediately ready for Sample.
func ReadFromEmitterGrid(r io.Reader) (*EmitterGrid, error) {
	br := bufio.NewReader(r)
	readU32 := func() (uint32, error) {
		var b [4]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint32(b[:]), nil
	}
	readF32 := func() (float32, error) {
		v, err := readU32()
		return math.Float32frombits(v), err
	}

	cellSize, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("emitter grid header: %w", err)
	}
	g := &EmitterGrid{CellSize: int(cellSize)}
	for i := range g.Dims {
		d, err := readU32()
		if err != nil {
			return nil, fmt.Errorf("emitter grid dims[%d]: %w", i, err)
		}
		g.Dims[i] = int(d)
	}
	n, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("emitter grid weight count: %w", err)
	}
	g.weights = make([]float32, n)
	for i := range g.weights {
		if g.weights[i], err = readF32(); err != nil {
			return nil, fmt.Errorf("emitter grid weight %d: %w", i, err)
		}
	}
	g.Finalize()
	return g, nil
}
