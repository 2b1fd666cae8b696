package render

import (
	"context"
	"testing"
	"time"

	"github.com/voxelforge/tracecore/bvh"
	"github.com/voxelforge/tracecore/octree"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/raytracer"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/tonemap"
	"github.com/voxelforge/tracecore/vmath"
)

func newTestScene(t *testing.T) *scene.Scene {
	t.Helper()
	pal := palette.New()
	stoneID := pal.Add(palette.DefaultMaterial())

	solid := octree.NewNode(4)
	if err := solid.Set(pal.Encode(stoneID, 0), 8, 8, 8); err != nil {
		t.Fatalf("Set solid voxel: %v", err)
	}
	water := octree.NewNode(4)
	octree.Finalize(solid, water, pal)

	s := scene.New(solid, water, bvh.New(nil), pal, 4, 4)
	s.Camera.Position = vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}
	s.Camera.LookAt(vmath.Vec3{X: 8.5, Y: 8.5, Z: 8.5}, vmath.Vec3{Y: 1})
	return s
}

func TestMilestonePolicyFiresOncePerFrequency(t *testing.T) {
	p := &MilestonePolicy{Frequency: 4}
	cases := []struct {
		spp  uint32
		want bool
	}{
		{1, false}, {3, false}, {4, true}, {5, false}, {7, false}, {8, true}, {8, false},
	}
	for _, c := range cases {
		if got := p.ShouldSaveDump(nil, c.spp); got != c.want {
			t.Errorf("ShouldSaveDump(%d) = %v, want %v", c.spp, got, c.want)
		}
	}
}

func TestMilestonePolicyZeroFrequencyNeverFires(t *testing.T) {
	p := &MilestonePolicy{}
	if p.ShouldSaveSnapshot(nil, 100) {
		t.Fatal("zero-frequency policy must never fire")
	}
}

func TestManagerPausesAtTargetAndStopsCleanly(t *testing.T) {
	s := newTestScene(t)
	ig := raytracer.DefaultIntegrator()
	completed := make(chan struct{}, 1)
	cfg := Config{
		Threads:   2,
		SPPTarget: 2,
		RunSeed:   1,
		Tonemap:   tonemap.Gamma,
		Gamma:     2.2,
		OnRenderCompleted: func(elapsedMS int64, sps float64) {
			completed <- struct{}{}
		},
	}
	m := New(s, ig, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	m.StartRender()
	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("render did not complete within timeout")
	}

	if spp := s.Samples.MinSPP(); spp < cfg.SPPTarget {
		t.Fatalf("MinSPP = %d, want >= %d", spp, cfg.SPPTarget)
	}
	if s.State() != scene.StatePaused {
		t.Fatalf("state = %v, want StatePaused after reaching target SPP", s.State())
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// TestStopRenderWriteBarrier is the spec's own testable property: "after
// stopRender() returns, no worker writes to the sample buffer" — a
// post-stop write-barrier probe.
func TestStopRenderWriteBarrier(t *testing.T) {
	s := newTestScene(t)
	ig := raytracer.DefaultIntegrator()
	cfg := Config{Threads: 4, RunSeed: 7}
	m := New(s, ig, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.StartRender()
	time.Sleep(2 * time.Millisecond)
	m.StopRender()
	time.Sleep(20 * time.Millisecond)

	before := s.Samples.MeansRowMajor()
	time.Sleep(20 * time.Millisecond)
	after := s.Samples.MeansRowMajor()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("pixel %d changed after StopRender returned: %v -> %v", i, before[i], after[i])
		}
	}
}
