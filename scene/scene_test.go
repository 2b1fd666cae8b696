package scene

import (
	"testing"

	"github.com/voxelforge/tracecore/bvh"
	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/octree"
	"github.com/voxelforge/tracecore/palette"
)

func newTestScene() *Scene {
	return New(octree.NewNode(2), octree.NewNode(2), bvh.New(nil), palette.New(), 4, 4)
}

func TestRefreshEscalatesOnly(t *testing.T) {
	s := newTestScene()
	s.Refresh(ResetSettingsChanged)
	s.Refresh(ResetNone) // must not downgrade
	if reason := s.ConsumeReset(); reason != ResetSettingsChanged {
		t.Fatalf("ConsumeReset = %v, want ResetSettingsChanged", reason)
	}
	if reason := s.ConsumeReset(); reason != ResetNone {
		t.Fatalf("second ConsumeReset = %v, want ResetNone (already consumed)", reason)
	}
}

func TestOverrideMaterialTriggersReset(t *testing.T) {
	s := newTestScene()
	s.Samples.Add(0, 0, core.Color{R: 1, A: 1})
	s.OverrideMaterial(palette.LavaMaterial())
	if _, n := s.Samples.Mean(0, 0); n != 0 {
		t.Fatalf("sample buffer should reset after a materials change, SPP=%d", n)
	}
}

func TestSnapshotDoesNotAliasLiveBuffer(t *testing.T) {
	s := newTestScene()
	s.Samples.Add(1, 1, core.Color{R: 1, A: 1})
	snap := s.Snapshot()
	s.Samples.Add(1, 1, core.Color{R: 1, A: 1})
	_, liveN := s.Samples.Mean(1, 1)
	_, snapN := snap.Mean(1, 1)
	if liveN == snapN {
		t.Fatalf("snapshot should not observe later writes to the live buffer: live=%d snap=%d", liveN, snapN)
	}
}
