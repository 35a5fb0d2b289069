package testbed

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/framebin/engine"
	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer"
	"github.com/spaghettifunk/framebin/engine/renderer/frame"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	rc *renderer.RenderContext

	jobsPerFrame atomic.Int32

	recorded      atomic.Uint64
	failedJobs    atomic.Uint64
	lastPresented atomic.Uint32
	outOfOrder    atomic.Uint64
}

// Stats is what the testbed observed over a run.
type Stats struct {
	CommandBuffers uint64
	FailedJobs     uint64
	LastPresented  uint32
	OutOfOrder     uint64
}

func NewTestGame(cfg *config.Config) *TestGame {
	state := &gameState{}
	state.jobsPerFrame.Store(int32(cfg.Driver.JobsPerFrame))

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: engine.NewApplicationConfig(cfg),
			State:             state,
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnRender = tg.Render
	tg.FnPresent = tg.Present
	tg.FnOnConfigChange = tg.OnConfigChange
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(rc *renderer.RenderContext) error {
	core.LogInfo("initializing testbed with %d jobs per frame", g.state().jobsPerFrame.Load())
	g.state().rc = rc
	return nil
}

// Render splits the frame into jobs that each record one command buffer.
func (g *TestGame) Render(frameNumber uint64, deltaTime time.Duration) error {
	s := g.state()
	jobs := int(s.jobsPerFrame.Load())
	for i := 0; i < jobs; i++ {
		if err := s.rc.Frames.AddJobToFrame(g.recordJob); err != nil {
			return fmt.Errorf("frame %d job %d: %w", frameNumber, i, err)
		}
	}
	return nil
}

func (g *TestGame) recordJob(res *frame.PerFrameResource) error {
	s := g.state()
	cb, err := res.AllocateCommandBuffer()
	if err != nil {
		s.failedJobs.Add(1)
		return err
	}
	if err := cb.Begin(); err != nil {
		s.failedJobs.Add(1)
		return err
	}
	// draw calls would be recorded here
	if err := cb.End(); err != nil {
		s.failedJobs.Add(1)
		return err
	}
	s.recorded.Add(1)
	// Headless: no swapchain acquire signals the bin's semaphores.
	return s.rc.Frames.CacheSubmission(s.rc.Device.GraphicsQueue(), []*frame.CommandBuffer{cb}, nil, nil, nil, false)
}

func (g *TestGame) Present(frameIndex uint32) {
	s := g.state()
	if prev := s.lastPresented.Swap(frameIndex); prev >= frameIndex {
		s.outOfOrder.Add(1)
	}
}

func (g *TestGame) OnConfigChange(cfg *config.Config) error {
	if cfg.Driver.JobsPerFrame < 0 {
		return fmt.Errorf("jobs per frame must not be negative, got %d", cfg.Driver.JobsPerFrame)
	}
	g.state().jobsPerFrame.Store(int32(cfg.Driver.JobsPerFrame))
	core.LogDebug("testbed now dispatches %d jobs per frame", cfg.Driver.JobsPerFrame)
	return nil
}

func (g *TestGame) Shutdown() error {
	st := g.Stats()
	core.LogInfo("testbed recorded %d command buffers, last presented frame %d", st.CommandBuffers, st.LastPresented)
	if st.OutOfOrder > 0 {
		return fmt.Errorf("%d frames presented out of order", st.OutOfOrder)
	}
	return nil
}

func (g *TestGame) Stats() Stats {
	s := g.state()
	return Stats{
		CommandBuffers: s.recorded.Load(),
		FailedJobs:     s.failedJobs.Load(),
		LastPresented:  s.lastPresented.Load(),
		OutOfOrder:     s.outOfOrder.Load(),
	}
}
