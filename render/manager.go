// Package render drives the worker pool that turns a scene into accumulated
// radiance: a fixed-size pool of goroutines claims pixel jobs from an atomic
// counter, traces one sample per job into the scene's sample buffer, and a
// single coordinator performs the pass-boundary bookkeeping (SPP milestones,
// snapshot/dump dispatch, preview publish) — kept off the worker goroutines
// so none of it needs its own locking.
//
// One worker goroutine runs per CPU, each racing the same atomic job
// counter down to zero before the pass's WaitGroup releases the
// coordinator; the pass loop then repeats, pausable and resumable, with
// cancellation and periodic persistence layered on top.
package render

import (
	"context"
	"fmt"
	"image"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/dump"
	"github.com/voxelforge/tracecore/framebuffer"
	"github.com/voxelforge/tracecore/imagewriter"
	"github.com/voxelforge/tracecore/raytracer"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/tonemap"
)

// SnapshotControl decides whether a just-completed pass should be written
// out as a PNG/TIFF/PFM snapshot.
type SnapshotControl interface {
	ShouldSaveSnapshot(s *scene.Scene, spp uint32) bool
}

// DumpControl decides whether a just-completed pass should persist a
// `.dump`.
type DumpControl interface {
	ShouldSaveDump(s *scene.Scene, spp uint32) bool
}

// FrameCallback is invoked after every completed pass. thumb is a cheap
// downscaled preview of the current accumulation, or nil if no preview
// framebuffer is wired.
type FrameCallback func(s *scene.Scene, spp uint32, thumb *image.NRGBA)

// CompletionCallback fires once, when the target SPP is reached or the
// render is stopped.
type CompletionCallback func(elapsedMS int64, samplesPerSecond float64)

// Config are the fixed, load-time parameters of a Manager.
type Config struct {
	Threads       int // 0 means max(1, runtime.NumCPU())
	SPPTarget     uint32
	DumpFrequency uint32 // SPP stride at which a dump/snapshot milestone fires
	RunSeed       uint64

	SceneName  string // base name for <name>-<spp>.{png,tiff,pfm} and <name>.dump
	OutputDir  string
	ThumbSize  int // max dimension of the preview thumbnail; 0 disables it
	Tonemap    tonemap.Operator
	Gamma      float32

	SnapshotControl SnapshotControl
	DumpControl     DumpControl

	OnFrameCompleted   FrameCallback
	OnRenderCompleted  CompletionCallback
}

// Manager owns the worker pool and the render-state machine's driving loop.
// A Manager is built around one *scene.Scene for its lifetime; loading a
// different scene means building a new Manager.
type Manager struct {
	sc         *scene.Scene
	integrator raytracer.Integrator
	cfg        Config
	threads    int

	mu   sync.Mutex
	cond *sync.Cond

	epoch atomic.Uint64

	startedAt time.Time
}

// New builds a Manager around sc. integrator is the path tracer configured
// for this run; cfg.Threads of 0 defaults to runtime.NumCPU().
func New(sc *scene.Scene, integrator raytracer.Integrator, cfg Config) *Manager {
	threads := cfg.Threads
	if threads < 1 {
		threads = maxInt(1, defaultThreads())
	}
	if cfg.SnapshotControl == nil && cfg.DumpControl == nil && cfg.DumpFrequency > 0 {
		policy := &MilestonePolicy{Frequency: cfg.DumpFrequency}
		cfg.SnapshotControl = policy
		cfg.DumpControl = policy
	}
	m := &Manager{sc: sc, integrator: integrator, cfg: cfg, threads: threads}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// StartRender transitions PREVIEW->RENDERING or PAUSED->RENDERING, waking
// the driving loop.
func (m *Manager) StartRender() {
	if m.sc.State() == scene.StatePreview {
		m.sc.Refresh(scene.ResetModeChange)
	}
	m.sc.SetState(scene.StateRendering)
	m.wake()
}

// PauseRender transitions RENDERING->PAUSED. The in-flight pass is allowed
// to finish its already-claimed jobs; no new pass starts until StartRender
// is called again.
func (m *Manager) PauseRender() {
	m.sc.SetState(scene.StatePaused)
	m.epoch.Add(1)
	m.wake()
}

// StopRender forces PREVIEW from any state, discarding accumulated samples
// on the next loop iteration.
func (m *Manager) StopRender() {
	m.sc.SetState(scene.StatePreview)
	m.sc.Refresh(scene.ResetModeChange)
	m.epoch.Add(1)
	m.wake()
}

func (m *Manager) wake() {
	m.mu.Lock()
	m.cond.Broadcast()
	m.mu.Unlock()
}

// Run drives the render-state machine until ctx is cancelled: it waits for
// RENDERING, runs passes, and performs pass-boundary bookkeeping. It returns
// ctx.Err() on cancellation; this is the only path by which Run exits.
func (m *Manager) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.wake()
		case <-done:
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.waitForRendering(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		if reason := m.sc.ConsumeReset(); reason != scene.ResetNone {
			m.epoch.Add(1)
			m.startedAt = time.Now()
		}
		if m.startedAt.IsZero() {
			m.startedAt = time.Now()
		}

		completed := m.runPass(ctx)
		if !completed {
			continue
		}

		m.onPassCompleted()
	}
}

// waitForRendering blocks on the condition variable until the scene enters
// RENDERING or ctx is cancelled. Only the coordinator parks here; each pass
// still spawns exactly T worker goroutines once it wakes.
func (m *Manager) waitForRendering(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.sc.State() != scene.StateRendering && ctx.Err() == nil {
		m.cond.Wait()
	}
}

// runPass executes exactly one sample pass over every pixel using T worker
// goroutines racing an atomic job counter, and reports whether the pass
// completed without an intervening reset/pause/stop. The pass-epoch is
// captured once up front and re-checked both before a worker claims a job
// and immediately before its sample-buffer write, so no write can straggle
// in after cancellation is observed.
func (m *Manager) runPass(ctx context.Context) bool {
	passEpoch := m.epoch.Load()
	width, height := m.sc.Samples.Width, m.sc.Samples.Height
	total := int64(width) * int64(height)

	var jobCounter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(m.threads)
	for t := 0; t < m.threads; t++ {
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil || m.epoch.Load() != passEpoch {
					return
				}
				job := jobCounter.Add(1) - 1
				if job >= total {
					return
				}
				x, y := int(job)%width, int(job)/width
				sample := m.traceSample(x, y, width, height)
				if m.epoch.Load() != passEpoch {
					return
				}
				m.sc.Samples.Add(x, y, sample)
			}
		}()
	}
	wg.Wait()
	return m.epoch.Load() == passEpoch
}

// traceSample generates and traces one primary ray for pixel (x, y). The RNG
// is reseeded per (pixel, current SPP at that pixel) via core.SeedFor so a
// render is bit-reproducible from its run seed regardless of which worker
// happens to claim which job.
func (m *Manager) traceSample(x, y, width, height int) core.Color {
	spp := m.sc.Samples.SPP(x, y)
	seed := core.SeedFor(m.cfg.RunSeed, y*width+x, int(spp))
	rng := rand.New(core.NewRNG(seed))

	m.sc.RLock()
	cam := m.sc.Camera
	u := (2*(float32(x)+rng.Float32()))/float32(width) - 1
	v := 1 - (2*(float32(y)+rng.Float32()))/float32(height)
	ray := cam.ViewRay(u, v, rng.Float32(), rng.Float32())
	color := m.integrator.Trace(m.sc, ray, rng)
	m.sc.RUnlock()
	return color
}

// onPassCompleted performs the bookkeeping that stays off the worker
// goroutines: SPP milestone check, snapshot/dump dispatch, preview publish,
// and the RENDERING->PAUSED transition at target SPP.
func (m *Manager) onPassCompleted() {
	spp := m.sc.Samples.MinSPP()

	var thumb *image.NRGBA
	if m.cfg.ThumbSize > 0 {
		thumb = m.publishPreview()
	}
	if m.cfg.OnFrameCompleted != nil {
		m.cfg.OnFrameCompleted(m.sc, spp, thumb)
	}

	m.dispatchMilestone(spp)

	if m.cfg.SPPTarget > 0 && spp >= m.cfg.SPPTarget {
		m.sc.SetState(scene.StatePaused)
		m.reportCompletion(spp)
	}
}

func (m *Manager) elapsedMS() int64 {
	if m.startedAt.IsZero() {
		return 0
	}
	return time.Since(m.startedAt).Milliseconds()
}

func (m *Manager) reportCompletion(spp uint32) {
	elapsed := m.elapsedMS()
	sps := 0.0
	if elapsed > 0 {
		total := float64(spp) * float64(m.sc.Samples.Width) * float64(m.sc.Samples.Height)
		sps = total / (float64(elapsed) / 1000.0)
	}
	if m.cfg.OnRenderCompleted != nil {
		m.cfg.OnRenderCompleted(elapsed, sps)
	}
}

// dispatchMilestone writes PNG/TIFF/PFM snapshots and the `.dump` as one
// errgroup: each writer opens and closes its own file, so the group's
// Wait() is the whole scope's release point and every file is guaranteed
// closed on every exit path.
func (m *Manager) dispatchMilestone(spp uint32) {
	wantSnapshot := m.cfg.SnapshotControl != nil && m.cfg.SnapshotControl.ShouldSaveSnapshot(m.sc, spp)
	wantDump := m.cfg.DumpControl != nil && m.cfg.DumpControl.ShouldSaveDump(m.sc, spp)
	if !wantSnapshot && !wantDump {
		return
	}

	buf := m.sc.Snapshot()
	renderTimeMS := m.elapsedMS()

	g, _ := errgroup.WithContext(context.Background())
	if wantSnapshot {
		base := filepath.Join(m.snapshotDir(), fmt.Sprintf("%s-%d", m.cfg.SceneName, spp))
		g.Go(func() error {
			return imagewriter.WritePNG(base+".png", buf, imagewriter.PNGOptions{
				Operator: m.cfg.Tonemap, Gamma: m.cfg.Gamma, Scene: m.sc, Camera: m.sc.Camera,
			})
		})
		g.Go(func() error { return imagewriter.WriteTIFF32(base+".tiff", buf) })
		g.Go(func() error { return imagewriter.WritePFM(base+".pfm", buf) })
	}
	if wantDump {
		g.Go(func() error { return m.saveDump(buf, renderTimeMS) })
	}
	if err := g.Wait(); err != nil {
		log.Printf("render: milestone dispatch at spp=%d: %v", spp, err)
	}
}

// saveDump writes <name>.dump, first preserving the previous dump as
// <name>.dump.backup so a failed write never loses the last good dump.
func (m *Manager) saveDump(buf *framebuffer.SampleBuffer, renderTimeMS int64) error {
	path := filepath.Join(m.cfg.OutputDir, m.cfg.SceneName+".dump")
	backup := path + ".backup"
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, backup); err != nil {
			log.Printf("render: could not preserve dump backup: %v", err)
		}
	}
	d := dump.FromSampleBuffer(buf, renderTimeMS)
	if err := dump.Save(path, d); err != nil {
		return fmt.Errorf("render: save dump: %w", err)
	}
	return nil
}

func (m *Manager) snapshotDir() string {
	dir := filepath.Join(m.cfg.OutputDir, "snapshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return m.cfg.OutputDir
	}
	return dir
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// publishPreview tonemaps the current sample-buffer means into the preview
// framebuffer's back buffer, publishes it with a single atomic pointer
// swap, and returns a downscaled thumbnail for the frame callback.
func (m *Manager) publishPreview() *image.NRGBA {
	prev := m.sc.Preview
	back := prev.BackBuffer()
	for y := 0; y < prev.Height; y++ {
		for x := 0; x < prev.Width; x++ {
			c, _ := m.sc.Samples.Mean(x, y)
			c = tonemap.Apply(m.cfg.Tonemap, c, m.cfg.Gamma)
			back[y*prev.Width+x] = framebuffer.PackARGB(c.R, c.G, c.B, 1)
		}
	}
	prev.Publish()
	full := argbToImage(prev.Front(), prev.Width, prev.Height)
	return imagewriter.Thumbnail(full, m.cfg.ThumbSize)
}

func argbToImage(argb []uint32, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, px := range argb {
		a := byte(px >> 24)
		r := byte(px >> 16)
		g := byte(px >> 8)
		b := byte(px)
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = r, g, b, a
	}
	return img
}

func defaultThreads() int { return runtime.NumCPU() }
