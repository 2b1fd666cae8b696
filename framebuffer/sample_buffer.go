// Package framebuffer holds the renderer's accumulation state: a
// double-precision sample buffer that the path tracer adds radiance
// estimates into, and a double-buffered preview framebuffer the UI/CLI can
// read from a different goroutine while rendering continues.
package framebuffer

import (
	"math"

	"github.com/voxelforge/tracecore/core"
)

// SampleBuffer accumulates per-pixel radiance in f64 (precision matters
// across millions of accumulated low-variance samples) alongside a per-pixel
// sample count, so partial renders can be resumed, merged (dump.Merge), or
// tonemapped at any point without losing accumulated precision.
type SampleBuffer struct {
	Width, Height int
	sumR, sumG, sumB []float64
	spp              []uint32
}

func NewSampleBuffer(width, height int) *SampleBuffer {
	n := width * height
	return &SampleBuffer{
		Width: width, Height: height,
		sumR: make([]float64, n), sumG: make([]float64, n), sumB: make([]float64, n),
		spp: make([]uint32, n),
	}
}

func (b *SampleBuffer) index(x, y int) int { return y*b.Width + x }

// Add accumulates one radiance sample at (x, y) and increments its SPP
// counter. NaN/Inf components are clamped to zero before accumulation (spec
// §4.3 "NaN/Inf clamp-to-zero") so one pathological sample can't poison a
// pixel's entire running average.
func (b *SampleBuffer) Add(x, y int, c core.Color) {
	i := b.index(x, y)
	b.sumR[i] += sanitize(c.R)
	b.sumG[i] += sanitize(c.G)
	b.sumB[i] += sanitize(c.B)
	b.spp[i]++
}

// AddBlack registers that one sample was taken at (x, y) that contributed no
// radiance: the SPP counter advances so the pixel's average correctly
// dilutes toward black, but no color bits are touched.
func (b *SampleBuffer) AddBlack(x, y int) {
	b.spp[b.index(x, y)]++
}

func sanitize(v float32) float64 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Mean returns the running average color and sample count at (x, y).
func (b *SampleBuffer) Mean(x, y int) (core.Color, uint32) {
	i := b.index(x, y)
	n := b.spp[i]
	if n == 0 {
		return core.Color{A: 1}, 0
	}
	inv := 1.0 / float64(n)
	return core.Color{
		R: float32(b.sumR[i] * inv),
		G: float32(b.sumG[i] * inv),
		B: float32(b.sumB[i] * inv),
		A: 1,
	}, n
}

// SPP returns the sample count at (x, y).
func (b *SampleBuffer) SPP(x, y int) uint32 { return b.spp[b.index(x, y)] }

// MinSPP returns the lowest sample count across the buffer — the value the
// render scheduler checks against an SPP milestone before dispatching a
// dump.
func (b *SampleBuffer) MinSPP() uint32 {
	min := uint32(math.MaxUint32)
	for _, s := range b.spp {
		if s < min {
			min = s
		}
	}
	return min
}

// Merge combines another buffer's accumulated sums and counts into b, a
// weighted-mean merge of two partial renders of the same resolution (spec
// §6 "dump ... merge (weighted-mean) operation"). Panics if dimensions
// differ.
func (b *SampleBuffer) Merge(other *SampleBuffer) {
	if b.Width != other.Width || b.Height != other.Height {
		panic("framebuffer: Merge requires matching dimensions")
	}
	for i := range b.spp {
		b.sumR[i] += other.sumR[i]
		b.sumG[i] += other.sumG[i]
		b.sumB[i] += other.sumB[i]
		b.spp[i] += other.spp[i]
	}
}

// Clone deep-copies the buffer's accumulated state. A snapshot taken for a
// dump write must never alias the live buffer's slices — the render workers
// keep accumulating into it concurrently.
func (b *SampleBuffer) Clone() *SampleBuffer {
	clone := &SampleBuffer{
		Width: b.Width, Height: b.Height,
		sumR: append([]float64(nil), b.sumR...),
		sumG: append([]float64(nil), b.sumG...),
		sumB: append([]float64(nil), b.sumB...),
		spp:  append([]uint32(nil), b.spp...),
	}
	return clone
}

// MeansRowMajor returns every pixel's running-mean color in row-major order,
// the shape the dump format's body serializes directly.
func (b *SampleBuffer) MeansRowMajor() []core.Color {
	out := make([]core.Color, len(b.spp))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c, _ := b.Mean(x, y)
			out[b.index(x, y)] = c
		}
	}
	return out
}

// FromMeans rebuilds a SampleBuffer from a flat row-major slice of per-pixel
// means and a single uniform sample count (the dump format's header carries
// one scalar spp for the whole image, matching a progressive path tracer
// where every pixel advances one sample per pass).
func FromMeans(width, height int, means []core.Color, spp uint32) *SampleBuffer {
	b := NewSampleBuffer(width, height)
	for i, c := range means {
		b.sumR[i] = float64(c.R) * float64(spp)
		b.sumG[i] = float64(c.G) * float64(spp)
		b.sumB[i] = float64(c.B) * float64(spp)
		b.spp[i] = spp
	}
	return b
}

// Reset clears all accumulated radiance and sample counts in place, used
// when the scene's reset-flag machinery (scene.ResetReason) determines a
// render must restart from zero.
func (b *SampleBuffer) Reset() {
	for i := range b.spp {
		b.sumR[i], b.sumG[i], b.sumB[i] = 0, 0, 0
		b.spp[i] = 0
	}
}
