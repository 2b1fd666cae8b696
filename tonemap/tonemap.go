// Package tonemap converts the path tracer's linear HDR radiance into
// display-ready LDR color, and computes the optional PNG alpha channel from
// sky visibility. The three operators below are the standard published
// formulas (gamma, Reinhard/filmic, ACES), gamma-corrected with a plain
// `math.Pow`/`math.Exp` expression rather than a color-science library.
package tonemap

import (
	"math"
	"math/rand"

	"github.com/voxelforge/tracecore/camera"
	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/raytracer"
	"github.com/voxelforge/tracecore/scene"
)

// Operator selects which curve maps linear HDR radiance into [0,1] LDR.
type Operator int

const (
	Gamma Operator = iota
	Filmic
	ACES
)

// Apply maps a linear HDR color through op, then applies gamma correction
// (for Filmic/ACES this is display gamma on top of their own built-in
// rolloff; for Gamma it's the entire operator).
func Apply(op Operator, c core.Color, gamma float32) core.Color {
	switch op {
	case Filmic:
		c = filmic(c)
	case ACES:
		c = aces(c)
	}
	return gammaCorrect(c, gamma)
}

func gammaCorrect(c core.Color, gamma float32) core.Color {
	if gamma <= 0 {
		gamma = 2.2
	}
	inv := 1 / gamma
	return core.Color{
		R: powClamp(c.R, inv),
		G: powClamp(c.G, inv),
		B: powClamp(c.B, inv),
		A: c.A,
	}
}

func powClamp(v float32, exp float32) float32 {
	if v < 0 {
		v = 0
	}
	out := float32(math.Pow(float64(v), float64(exp)))
	if out > 1 {
		out = 1
	}
	return out
}

// filmic is the Uncharted2/Hable tone curve, preserving highlight rolloff
// before the final gamma pass.
func filmic(c core.Color) core.Color {
	const (
		a = 0.15
		b = 0.50
		cc = 0.10
		d = 0.20
		e = 0.02
		f = 0.30
		w = 11.2
	)
	curve := func(x float32) float32 {
		return ((x*(a*x+cc*b) + d*e) / (x*(a*x+b) + d*f)) - e/f
	}
	whiteScale := 1 / curve(w)
	return core.Color{
		R: clamp01(curve(c.R) * whiteScale),
		G: clamp01(curve(c.G) * whiteScale),
		B: clamp01(curve(c.B) * whiteScale),
		A: c.A,
	}
}

// aces is Narkowicz's fast ACES filmic curve fit.
func aces(c core.Color) core.Color {
	const a, b, cc, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	curve := func(x float32) float32 {
		return clamp01((x * (a*x + b)) / (x*(cc*x+d) + e))
	}
	return core.Color{R: curve(c.R), G: curve(c.G), B: curve(c.B), A: c.A}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// skyTaps are the 4 sub-pixel offsets of a rotated-grid supersample
// pattern: the classic 2x2 rotated-grid antialiasing offsets, each a
// quarter-pixel off center along a 26.57 degree (arctan 1/2) rotated axis.
var skyTaps = [4][2]float32{
	{0.125, 0.375}, {0.375, -0.125}, {-0.125, -0.375}, {-0.375, 0.125},
}

// SkyAlpha computes the alpha channel value for pixel (x, y): the fraction
// of the 4 rotated-grid sub-pixel rays that hit scene geometry rather than
// escaping to the sky, used for PNG's optional alpha channel. Fully
// sky-visible pixels are transparent (alpha 0); fully covered pixels are
// opaque (alpha 1).
func SkyAlpha(s *scene.Scene, cam *camera.Camera, x, y, width, height int) float32 {
	var hits float32
	for _, tap := range skyTaps {
		u := 2*(float32(x)+0.5+tap[0])/float32(width) - 1
		v := 1 - 2*(float32(y)+0.5+tap[1])/float32(height)
		ray := cam.ViewRay(u, v, 0, 0)
		if _, ok := raytracer.Intersect(s, ray, 1e-4, 1e30); ok {
			hits++
		}
	}
	return hits / float32(len(skyTaps))
}

// NewDitherSource constructs a fresh RNG for 8-bit quantization dithering,
// avoiding banding in smooth gradients; callers own one source per
// goroutine rather than contending on a shared one.
func NewDitherSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
