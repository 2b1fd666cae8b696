// Package dump implements the render dump persistence format: a versioned
// binary big-endian format plus a pre-versioned gzipped legacy variant, and
// the weighted-mean merge operation used both to combine two partial
// renders and to round-trip through save/load. Saves are atomic (write to a
// temp file, then rename) and every fallible path returns a wrapped error
// rather than panicking.
package dump

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/framebuffer"
)

const magic = "DUMP"
const version = 1

// Dump is the in-memory representation of a render dump: one RGB triple per
// pixel in row-major order plus the header metadata recorded alongside it.
type Dump struct {
	Width, Height int
	SPP           uint32
	RenderTimeMS  int64
	Means         []core.Color // row-major, len == Width*Height
}

// FromSampleBuffer snapshots a sample buffer into a Dump. spp is taken as
// the buffer's minimum per-pixel count, matching normal progressive
// rendering where every pixel advances one sample per pass; any pixel ahead
// of that (e.g. a resumed, non-uniformly-sampled region) is represented at
// its true mean but the header's single scalar spp undercounts it slightly,
// which only ever makes merge/tonemap conservative, never wrong-signed.
func FromSampleBuffer(sb *framebuffer.SampleBuffer, renderTimeMS int64) *Dump {
	return &Dump{
		Width:        sb.Width,
		Height:       sb.Height,
		SPP:          sb.MinSPP(),
		RenderTimeMS: renderTimeMS,
		Means:        sb.MeansRowMajor(),
	}
}

// ToSampleBuffer reconstructs a SampleBuffer from a Dump, for loading a dump
// back into a live scene.
func (d *Dump) ToSampleBuffer() *framebuffer.SampleBuffer {
	return framebuffer.FromMeans(d.Width, d.Height, d.Means, d.SPP)
}

// Save writes d to path atomically: a temp file in the same directory is
// written and fsynced, then renamed over path, so a crash mid-write never
// corrupts a prior dump.
func Save(path string, d *Dump) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("dump: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	w := bufio.NewWriter(tmp)
	if err := writeVersioned(w, d); err != nil {
		tmp.Close()
		return fmt.Errorf("dump: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("dump: flush %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("dump: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dump: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("dump: rename into place: %w", err)
	}
	return nil
}

func writeVersioned(w io.Writer, d *Dump) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	header := []any{uint32(version), uint32(d.Width), uint32(d.Height), d.SPP, d.RenderTimeMS}
	for _, field := range header {
		if err := binary.Write(w, binary.BigEndian, field); err != nil {
			return err
		}
	}
	return writeBody(w, d.Means)
}

func writeBody(w io.Writer, means []core.Color) error {
	for _, c := range means {
		triple := [3]float64{float64(c.R), float64(c.G), float64(c.B)}
		if err := binary.Write(w, binary.BigEndian, triple); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a dump from path, dispatching between the versioned and
// legacy gzip formats by peeking the first 4 bytes and unreading them
// before choosing a decoder.
func Load(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump: open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	peek, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("dump: peek header of %s: %w", path, err)
	}
	if bytes.Equal(peek, []byte(magic)) {
		return readVersioned(br)
	}
	return readLegacy(br)
}

func readVersioned(r io.Reader) (*Dump, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("dump: read magic: %w", err)
	}
	var ver, width, height uint32
	var spp uint32
	var renderTimeMS int64
	for _, field := range []any{&ver, &width, &height, &spp, &renderTimeMS} {
		if err := binary.Read(r, binary.BigEndian, field); err != nil {
			return nil, fmt.Errorf("dump: read header: %w", err)
		}
	}
	if ver != version {
		return nil, fmt.Errorf("dump: unknown version %d", ver)
	}
	means, err := readBody(r, int(width), int(height))
	if err != nil {
		return nil, err
	}
	return &Dump{Width: int(width), Height: int(height), SPP: spp, RenderTimeMS: renderTimeMS, Means: means}, nil
}

// readLegacy parses the pre-versioned gzipped variant: a gzip stream
// containing u32 width, u32 height, u32 spp, i64 renderTime, then the body.
func readLegacy(r io.Reader) (*Dump, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("dump: open legacy gzip stream: %w", err)
	}
	defer gz.Close()

	var width, height, spp uint32
	var renderTimeMS int64
	for _, field := range []any{&width, &height, &spp, &renderTimeMS} {
		if err := binary.Read(gz, binary.BigEndian, field); err != nil {
			return nil, fmt.Errorf("dump: read legacy header: %w", err)
		}
	}
	means, err := readBody(gz, int(width), int(height))
	if err != nil {
		return nil, err
	}
	return &Dump{Width: int(width), Height: int(height), SPP: spp, RenderTimeMS: renderTimeMS, Means: means}, nil
}

func readBody(r io.Reader, width, height int) ([]core.Color, error) {
	n := width * height
	means := make([]core.Color, n)
	for i := 0; i < n; i++ {
		var triple [3]float64
		if err := binary.Read(r, binary.BigEndian, &triple); err != nil {
			return nil, fmt.Errorf("dump: read body pixel %d: %w", i, err)
		}
		means[i] = core.Color{R: float32(triple[0]), G: float32(triple[1]), B: float32(triple[2]), A: 1}
	}
	return means, nil
}

// Merge combines two dumps of matching dimensions into a weighted-mean
// result. Neither input is mutated.
func Merge(a, b *Dump) (*Dump, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("dump: merge requires matching dimensions, got %dx%d and %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	total := a.SPP + b.SPP
	means := make([]core.Color, len(a.Means))
	if total == 0 {
		copy(means, a.Means)
	} else {
		wa, wb := float64(a.SPP)/float64(total), float64(b.SPP)/float64(total)
		for i := range means {
			means[i] = core.Color{
				R: float32(float64(a.Means[i].R)*wa + float64(b.Means[i].R)*wb),
				G: float32(float64(a.Means[i].G)*wa + float64(b.Means[i].G)*wb),
				B: float32(float64(a.Means[i].B)*wa + float64(b.Means[i].B)*wb),
				A: 1,
			}
		}
	}
	return &Dump{
		Width:        a.Width,
		Height:       a.Height,
		SPP:          total,
		RenderTimeMS: a.RenderTimeMS + b.RenderTimeMS,
		Means:        means,
	}, nil
}
