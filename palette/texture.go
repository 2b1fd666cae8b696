package palette

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/voxelforge/tracecore/core"
)

// Texture holds CPU-side pixel data sampled directly by the ray tracer —
// there is no GPU upload path, unlike the teacher engine's identically named
// type.
type Texture struct {
	Name   string
	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, top-to-bottom).
	Pixels []byte
}

// LoadTexture reads a PNG or JPEG file from disk and returns a CPU-side
// Texture. Texture-pack decoding (biome color tables, block atlases) is a
// host responsibility; this only handles a single already-extracted image.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}

	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	return &Texture{Name: path, Width: w, Height: h, Pixels: rgba.Pix}, nil
}

// NewSolidTexture creates a 1x1 texture with the given RGBA color values (0-255).
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{Name: name, Width: 1, Height: 1, Pixels: []byte{r, g, b, a}}
}

// Sample nearest-neighbour-samples the texture at UV coordinates wrapped
// into [0,1). u,v outside that range are tiled.
func (t *Texture) Sample(u, v float32) core.Color {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return core.ColorWhite
	}
	u -= float32(int(u))
	if u < 0 {
		u += 1
	}
	v -= float32(int(v))
	if v < 0 {
		v += 1
	}
	x := int(u * float32(t.Width))
	y := int((1 - v) * float32(t.Height))
	if x >= t.Width {
		x = t.Width - 1
	}
	if y >= t.Height {
		y = t.Height - 1
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	i := (y*t.Width + x) * 4
	if i+3 >= len(t.Pixels) {
		return core.ColorWhite
	}
	return core.Color{
		R: float32(t.Pixels[i]) / 255,
		G: float32(t.Pixels[i+1]) / 255,
		B: float32(t.Pixels[i+2]) / 255,
		A: float32(t.Pixels[i+3]) / 255,
	}
}
