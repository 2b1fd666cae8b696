// Package scene aggregates every subsystem a render needs into one
// container and drives the render-state machine: the voxel octree pair,
// entity BVH, material palette, camera, sun/sky, emitter grid, and the
// accumulation buffers a render writes into.
//
// Camera/Sky/Sun are held by value rather than by back-reference pointer,
// so there is no cyclic Scene<->Camera<->Sky<->Sun pointer graph for a
// child mutation to dirty its parent through; every mutation instead goes
// through an explicit Refresh(reason) call on the Scene itself.
package scene

import (
	"sync"

	"github.com/voxelforge/tracecore/bvh"
	"github.com/voxelforge/tracecore/camera"
	"github.com/voxelforge/tracecore/framebuffer"
	"github.com/voxelforge/tracecore/octree"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/skylight"
)

// State is the render-state machine's current mode.
type State int

const (
	StatePreview State = iota
	StateRendering
	StatePaused
)

// ResetReason identifies why accumulated samples must be discarded and a
// render restarted; values are ordered so that escalating a pending reason
// (e.g. from SettingsChanged to SceneLoaded) never silently downgrades it.
type ResetReason int

const (
	ResetNone ResetReason = iota
	ResetSettingsChanged
	ResetMaterialsChanged
	ResetModeChange
	ResetSceneLoaded
)

// Scene is the render's complete, self-contained world state. All mutation
// goes through its methods, which take mu and call Refresh so the render
// scheduler's next pass observes a consistent reset reason — this is the
// "scene lock rule": nothing outside this package reads or writes Scene
// fields without holding Lock/RLock.
type Scene struct {
	mu sync.RWMutex

	Solid    octree.Walkable
	Water    octree.Walkable
	BVH      *bvh.BVH
	Palette  *palette.Palette
	Camera   *camera.Camera
	Sun      skylight.Sun
	Sky      skylight.Sky
	Emitters *skylight.EmitterGrid

	Samples *framebuffer.SampleBuffer
	Preview *framebuffer.Preview

	state        State
	pendingReset ResetReason
}

// New builds a Scene around an already-loaded octree pair, BVH, and
// palette, with a default camera/sky/sun and a sample buffer sized to the
// requested output resolution.
func New(solid, water octree.Walkable, tree *bvh.BVH, pal *palette.Palette, width, height int) *Scene {
	return &Scene{
		Solid:   solid,
		Water:   water,
		BVH:     tree,
		Palette: pal,
		Camera:  camera.New(1.0472, float32(width)/float32(height)),
		Sun:     skylight.DefaultSun(),
		Sky:     skylight.Default(),
		Samples: framebuffer.NewSampleBuffer(width, height),
		Preview: framebuffer.NewPreview(width, height),
		state:   StatePreview,
	}
}

// Lock/Unlock/RLock/RUnlock satisfy the scene lock rule for callers that
// need to hold the lock across several field reads or writes (e.g. the
// render scheduler's pass loop).
func (s *Scene) Lock()    { s.mu.Lock() }
func (s *Scene) Unlock()  { s.mu.Unlock() }
func (s *Scene) RLock()   { s.mu.RLock() }
func (s *Scene) RUnlock() { s.mu.RUnlock() }

func (s *Scene) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Scene) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Refresh escalates the scene's pending reset reason — a reason never
// downgrades a higher one already pending, so a SettingsChanged notification
// arriving after a SceneLoaded one (still unconsumed by the scheduler)
// doesn't erase the bigger reset the loader needs.
func (s *Scene) Refresh(reason ResetReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason > s.pendingReset {
		s.pendingReset = reason
	}
}

// ConsumeReset returns the pending reset reason and clears it, resetting the
// sample buffer whenever a reason was pending. Called once per scheduler
// pass boundary.
func (s *Scene) ConsumeReset() ResetReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	reason := s.pendingReset
	if reason != ResetNone {
		s.Samples.Reset()
	}
	s.pendingReset = ResetNone
	return reason
}

// SetCamera replaces the camera wholesale (e.g. loading a new scene
// description) and requests a reset.
func (s *Scene) SetCamera(c *camera.Camera) {
	s.mu.Lock()
	s.Camera = c
	s.mu.Unlock()
	s.Refresh(ResetSceneLoaded)
}

// SetSky replaces the sky/fog model and requests a settings reset.
func (s *Scene) SetSky(sky skylight.Sky) {
	s.mu.Lock()
	s.Sky = sky
	s.mu.Unlock()
	s.Refresh(ResetSettingsChanged)
}

// SetSun replaces the sun and requests a settings reset.
func (s *Scene) SetSun(sun skylight.Sun) {
	s.mu.Lock()
	s.Sun = sun
	s.mu.Unlock()
	s.Refresh(ResetSettingsChanged)
}

// SetEmitters replaces the emitter grid (e.g. after loading a scene's
// `.emittergrid` file) and requests a materials reset, since the grid is
// derived from the same voxel data the material-change reason covers.
func (s *Scene) SetEmitters(grid *skylight.EmitterGrid) {
	s.mu.Lock()
	s.Emitters = grid
	s.mu.Unlock()
	s.Refresh(ResetMaterialsChanged)
}

// OverrideMaterial replaces (or adds) a palette entry in place and requests
// a materials reset — existing octree raw values referencing that id keep
// working unchanged since Palette.Add reuses the id for a known name.
func (s *Scene) OverrideMaterial(m *palette.Material) {
	s.mu.Lock()
	s.Palette.Add(m)
	s.mu.Unlock()
	s.Refresh(ResetMaterialsChanged)
}

// Snapshot returns a deep copy of the sample buffer for a dump write: it
// must never alias the live buffer, which render workers keep accumulating
// into concurrently while the dump is encoded.
func (s *Scene) Snapshot() *framebuffer.SampleBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Samples.Clone()
}
