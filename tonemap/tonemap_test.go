package tonemap

import (
	"testing"

	"github.com/voxelforge/tracecore/core"
)

func TestGammaCorrectMidGray(t *testing.T) {
	c := Apply(Gamma, core.Color{R: 0.214, G: 0.214, B: 0.214, A: 1}, 2.2)
	if c.R < 0.45 || c.R > 0.55 {
		t.Fatalf("gamma(0.214) = %v, want roughly 0.5 (standard mid-gray)", c.R)
	}
}

func TestOperatorsClampToUnitRange(t *testing.T) {
	bright := core.Color{R: 50, G: 50, B: 50, A: 1}
	for _, op := range []Operator{Gamma, Filmic, ACES} {
		c := Apply(op, bright, 2.2)
		if c.R < 0 || c.R > 1 || c.G < 0 || c.G > 1 || c.B < 0 || c.B > 1 {
			t.Fatalf("operator %v: out-of-range result %+v for bright input", op, c)
		}
	}
}

func TestOperatorsMapBlackToBlack(t *testing.T) {
	for _, op := range []Operator{Gamma, Filmic, ACES} {
		c := Apply(op, core.Color{}, 2.2)
		if c.R != 0 || c.G != 0 || c.B != 0 {
			t.Fatalf("operator %v: black input produced %+v, want zero", op, c)
		}
	}
}

func TestFilmicMonotonic(t *testing.T) {
	prev := float32(-1)
	for _, v := range []float32{0, 0.2, 0.5, 1, 2, 5} {
		c := filmic(core.Color{R: v, A: 1})
		if c.R < prev {
			t.Fatalf("filmic(%v).R = %v, not monotonically increasing from previous %v", v, c.R, prev)
		}
		prev = c.R
	}
}
