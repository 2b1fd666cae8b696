package dump

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/framebuffer"
)

func sampleDump(w, h int, spp uint32) *Dump {
	means := make([]core.Color, w*h)
	for i := range means {
		means[i] = core.Color{R: float32(i) * 0.01, G: 0.5, B: 1, A: 1}
	}
	return &Dump{Width: w, Height: h, SPP: spp, RenderTimeMS: 1234, Means: means}
}

// TestSaveLoadRoundTrip checks load(save(d)) == d, down to bitwise
// equality of every float field.
func TestSaveLoadRoundTrip(t *testing.T) {
	d := sampleDump(4, 3, 10)
	path := filepath.Join(t.TempDir(), "scene.dump")
	if err := Save(path, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Width != d.Width || got.Height != d.Height || got.SPP != d.SPP || got.RenderTimeMS != d.RenderTimeMS {
		t.Fatalf("header mismatch: got %+v, want dims=%dx%d spp=%d time=%d", got, d.Width, d.Height, d.SPP, d.RenderTimeMS)
	}
	for i := range d.Means {
		if got.Means[i] != d.Means[i] {
			t.Fatalf("pixel %d: got %+v, want %+v", i, got.Means[i], d.Means[i])
		}
	}
}

// TestMergeIdentity checks that merging d with a zeroed, empty-SPP dump of
// the same dimensions yields d back unchanged.
func TestMergeIdentity(t *testing.T) {
	d := sampleDump(2, 2, 5)
	empty := &Dump{Width: 2, Height: 2, SPP: 0, Means: make([]core.Color, 4)}
	merged, err := Merge(d, empty)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.SPP != d.SPP {
		t.Fatalf("SPP = %d, want %d", merged.SPP, d.SPP)
	}
	for i := range d.Means {
		if merged.Means[i] != d.Means[i] {
			t.Fatalf("pixel %d: got %+v, want %+v", i, merged.Means[i], d.Means[i])
		}
	}
}

func TestMergeWeightedMean(t *testing.T) {
	a := &Dump{Width: 1, Height: 1, SPP: 1, Means: []core.Color{{R: 0, A: 1}}}
	b := &Dump{Width: 1, Height: 1, SPP: 3, Means: []core.Color{{R: 4, A: 1}}}
	merged, err := Merge(a, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.SPP != 4 {
		t.Fatalf("SPP = %d, want 4", merged.SPP)
	}
	want := float32(3.0) // (1*0 + 3*4)/4
	if merged.Means[0].R != want {
		t.Fatalf("R = %v, want %v", merged.Means[0].R, want)
	}
}

func TestMergeDimensionMismatch(t *testing.T) {
	a := sampleDump(2, 2, 1)
	b := sampleDump(3, 3, 1)
	if _, err := Merge(a, b); err == nil {
		t.Fatal("expected an error merging mismatched dimensions")
	}
}

// TestLegacyLoad checks that a gzipped legacy dump loads and merges into a
// zeroed buffer to yield the original dump exactly.
func TestLegacyLoad(t *testing.T) {
	width, height := 3, 2
	spp := uint32(200)
	var body bytes.Buffer
	gz := gzip.NewWriter(&body)
	binary.Write(gz, binary.BigEndian, uint32(width))
	binary.Write(gz, binary.BigEndian, uint32(height))
	binary.Write(gz, binary.BigEndian, spp)
	binary.Write(gz, binary.BigEndian, int64(5000))
	for i := 0; i < width*height; i++ {
		binary.Write(gz, binary.BigEndian, [3]float64{float64(i), 0.25, 0.75})
	}
	gz.Close()

	path := filepath.Join(t.TempDir(), "legacy.dump")
	if err := os.WriteFile(path, body.Bytes(), 0644); err != nil {
		t.Fatalf("write legacy fixture: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load legacy: %v", err)
	}
	if got.Width != width || got.Height != height || got.SPP != spp {
		t.Fatalf("got %+v, want dims=%dx%d spp=%d", got, width, height, spp)
	}

	zero := &Dump{Width: width, Height: height, SPP: 0, Means: make([]core.Color, width*height)}
	merged, err := Merge(got, zero)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	for i := range got.Means {
		if merged.Means[i] != got.Means[i] {
			t.Fatalf("pixel %d: merged %+v, want %+v", i, merged.Means[i], got.Means[i])
		}
	}
}

func TestToFromSampleBuffer(t *testing.T) {
	sb := framebuffer.NewSampleBuffer(2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			sb.Add(x, y, core.Color{R: 1, G: 0.5, B: 0.25, A: 1})
		}
	}
	d := FromSampleBuffer(sb, 42)
	restored := d.ToSampleBuffer()
	wantC, wantN := sb.Mean(1, 1)
	gotC, gotN := restored.Mean(1, 1)
	if gotC != wantC {
		t.Fatalf("Mean color = %+v, want %+v", gotC, wantC)
	}
	if gotN != wantN {
		t.Fatalf("SPP = %d, want %d", gotN, wantN)
	}
}
