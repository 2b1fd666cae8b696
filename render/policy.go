package render

import "github.com/voxelforge/tracecore/scene"

// MilestonePolicy is the default SnapshotControl/DumpControl: it fires once
// per Frequency samples-per-pixel, the SPP stride at which a multiple is
// crossed. The manager performs this check once per pass rather than
// racing workers against it.
type MilestonePolicy struct {
	Frequency uint32

	lastDump     uint32
	lastSnapshot uint32
}

// ShouldSaveDump reports whether spp has crossed a new Frequency-multiple
// boundary since the last call.
func (p *MilestonePolicy) ShouldSaveDump(s *scene.Scene, spp uint32) bool {
	return crossedBoundary(&p.lastDump, p.Frequency, spp)
}

// ShouldSaveSnapshot uses the same cadence as ShouldSaveDump by default —
// image snapshots and the binary dump are written on the same milestones.
// It tracks its own boundary independently of ShouldSaveDump so one call
// doesn't consume the other's milestone.
func (p *MilestonePolicy) ShouldSaveSnapshot(s *scene.Scene, spp uint32) bool {
	return crossedBoundary(&p.lastSnapshot, p.Frequency, spp)
}

func crossedBoundary(last *uint32, frequency, spp uint32) bool {
	if frequency == 0 {
		return false
	}
	milestone := (spp / frequency) * frequency
	if milestone > 0 && milestone > *last {
		*last = milestone
		return true
	}
	return false
}
