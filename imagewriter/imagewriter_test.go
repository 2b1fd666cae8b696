package imagewriter

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/framebuffer"
	"github.com/voxelforge/tracecore/tonemap"
)

func sampleBuffer() *framebuffer.SampleBuffer {
	sb := framebuffer.NewSampleBuffer(4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			sb.Add(x, y, core.Color{R: 0.5, G: 0.25, B: 0.1, A: 1})
		}
	}
	return sb
}

func TestWritePNGDecodesBack(t *testing.T) {
	sb := sampleBuffer()
	path := filepath.Join(t.TempDir(), "out.png")
	opt := PNGOptions{Operator: tonemap.ACES, Gamma: 2.2}
	if err := WritePNG(path, sb, opt); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("decoded size = %v, want 4x3", img.Bounds())
	}
}

func TestWritePNGPanoramicEmbedsGPanoChunk(t *testing.T) {
	sb := sampleBuffer()
	path := filepath.Join(t.TempDir(), "pano.png")
	opt := PNGOptions{Operator: tonemap.Gamma, Gamma: 2.2, Panoramic: true}
	if err := WritePNG(path, sb, opt); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !containsBytes(data, []byte("iTXt")) {
		t.Fatal("expected an iTXt chunk in the panoramic PNG output")
	}
	if !containsBytes(data, []byte("GPano")) {
		t.Fatal("expected GPano metadata in the panoramic PNG output")
	}
	// The spliced file must still be a valid, decodable PNG.
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("spliced PNG failed to decode: %v", err)
	}
}

func TestWriteTIFF32Header(t *testing.T) {
	sb := sampleBuffer()
	path := filepath.Join(t.TempDir(), "out.tiff")
	if err := WriteTIFF32(path, sb); err != nil {
		t.Fatalf("WriteTIFF32: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) < 8 || data[0] != 'I' || data[1] != 'I' {
		t.Fatalf("expected little-endian TIFF byte order marker, got %v", data[:2])
	}
}

func TestWritePFMHeader(t *testing.T) {
	sb := sampleBuffer()
	path := filepath.Join(t.TempDir(), "out.pfm")
	if err := WritePFM(path, sb); err != nil {
		t.Fatalf("WritePFM: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "PF\n4 3\n-1.0\n"
	if string(data[:len(want)]) != want {
		t.Fatalf("header = %q, want %q", data[:len(want)], want)
	}
}

func TestThumbnailDownscales(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	thumb := Thumbnail(src, 100)
	if thumb.Bounds().Dx() != 100 || thumb.Bounds().Dy() != 50 {
		t.Fatalf("thumbnail size = %v, want 100x50", thumb.Bounds())
	}
}

func TestThumbnailNoopWhenAlreadySmall(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	thumb := Thumbnail(src, 100)
	if thumb.Bounds().Dx() != 50 || thumb.Bounds().Dy() != 50 {
		t.Fatalf("thumbnail size = %v, want unchanged 50x50", thumb.Bounds())
	}
}

func containsBytes(haystack, needle []byte) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}

