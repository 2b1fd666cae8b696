package framebuffer

import (
	"math"
	"testing"

	"github.com/voxelforge/tracecore/core"
)

func TestSampleBufferAccumulatesMean(t *testing.T) {
	b := NewSampleBuffer(4, 4)
	b.Add(1, 1, core.Color{R: 1, G: 0, B: 0, A: 1})
	b.Add(1, 1, core.Color{R: 0, G: 1, B: 0, A: 1})
	mean, n := b.Mean(1, 1)
	if n != 2 {
		t.Fatalf("SPP = %d, want 2", n)
	}
	if mean.R != 0.5 || mean.G != 0.5 {
		t.Fatalf("Mean = %v, want {0.5, 0.5, 0}", mean)
	}
}

func TestSampleBufferSanitizesNaN(t *testing.T) {
	b := NewSampleBuffer(1, 1)
	b.Add(0, 0, core.Color{R: float32(math.NaN()), G: 1, A: 1})
	mean, _ := b.Mean(0, 0)
	if mean.R != 0 {
		t.Fatalf("NaN sample should sanitize to 0, got %v", mean.R)
	}
}

func TestSampleBufferAddBlackAdvancesSPPOnly(t *testing.T) {
	b := NewSampleBuffer(1, 1)
	b.AddBlack(0, 0)
	mean, n := b.Mean(0, 0)
	if n != 1 {
		t.Fatalf("SPP = %d, want 1", n)
	}
	if mean.R != 0 || mean.G != 0 || mean.B != 0 {
		t.Fatalf("Mean = %v, want black", mean)
	}
}

func TestSampleBufferMerge(t *testing.T) {
	a := NewSampleBuffer(2, 2)
	b := NewSampleBuffer(2, 2)
	a.Add(0, 0, core.Color{R: 1, A: 1})
	b.Add(0, 0, core.Color{R: 3, A: 1})
	a.Merge(b)
	mean, n := a.Mean(0, 0)
	if n != 2 {
		t.Fatalf("SPP after merge = %d, want 2", n)
	}
	if mean.R != 2 {
		t.Fatalf("Mean.R after merge = %v, want 2", mean.R)
	}
}

func TestSampleBufferMinSPP(t *testing.T) {
	b := NewSampleBuffer(2, 1)
	b.Add(0, 0, core.Color{A: 1})
	if got := b.MinSPP(); got != 0 {
		t.Fatalf("MinSPP = %d, want 0 (pixel (1,0) untouched)", got)
	}
}

func TestPreviewPublishSwapsBuffers(t *testing.T) {
	p := NewPreview(2, 2)
	back := p.BackBuffer()
	back[0] = PackARGB(1, 0, 0, 1)
	p.Publish()
	front := p.Front()
	if front[0] != PackARGB(1, 0, 0, 1) {
		t.Fatalf("Front()[0] = %#x, want the published red pixel", front[0])
	}
}
