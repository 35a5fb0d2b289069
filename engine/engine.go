package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

var ErrInvalidStage = errors.New("operation not allowed in the current engine stage")

type Engine struct {
	mu           sync.Mutex
	currentStage Stage

	gameInstance *Game
	cfg          *config.Config
	device       metadata.Device
	render       *renderer.RenderContext
	clock        *core.Clock

	framesRendered atomic.Uint64
	lastPresented  atomic.Uint32
}

// New takes ownership of device, it is destroyed by Shutdown.
func New(g *Game, cfg *config.Config, device metadata.Device) (*Engine, error) {
	if g == nil || g.FnRender == nil {
		return nil, fmt.Errorf("game must provide a render function")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = NewApplicationConfig(cfg)
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		cfg:          cfg,
		device:       device,
		clock:        core.NewClock(),
	}, nil
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage
}

func (e *Engine) setStage(from, to Stage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentStage != from {
		return fmt.Errorf("move to stage %d from %d: %w", to, e.currentStage, ErrInvalidStage)
	}
	e.currentStage = to
	return nil
}

func (e *Engine) Initialize() error {
	if err := e.setStage(EngineStageUninitialized, EngineStageInitializing); err != nil {
		return err
	}
	core.SetLogLevel(e.gameInstance.ApplicationConfig.LogLevel)

	rc, err := renderer.NewRenderContext(e.device, e.cfg)
	if err != nil {
		return err
	}
	e.render = rc

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(rc); err != nil {
			return err
		}
	}
	return e.setStage(EngineStageInitializing, EngineStageInitialized)
}

// Run renders frames until ctx is cancelled or the configured frame count is
// reached. Frame indices start at 1.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.setStage(EngineStageInitialized, EngineStageRunning); err != nil {
		return err
	}
	maxFrames := e.gameInstance.ApplicationConfig.MaxFrames

	e.clock.Start()
	lastTime := e.clock.Elapsed()

	for frame := uint64(1); maxFrames == 0 || frame <= maxFrames; frame++ {
		select {
		case <-ctx.Done():
			core.LogInfo("render loop cancelled after %d frames", e.framesRendered.Load())
			return nil
		default:
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - lastTime
		lastTime = currentTime

		// Recycles the oldest bin, blocking until the GPU is done with it.
		if err := e.render.Frames.AdvanceBin(); err != nil {
			core.LogError("frame %d: %s", frame, err)
			return err
		}
		e.render.Frames.SetFrameIndex(uint32(frame))

		if err := e.gameInstance.FnRender(frame, delta); err != nil {
			core.LogError("Game render failed, shutting down.")
			// close the bin so frames already dispatched still present
			e.render.Frames.EndJobSubmission(e.present)
			return err
		}
		e.render.Frames.EndJobSubmission(e.present)
		e.framesRendered.Add(1)
	}
	return nil
}

func (e *Engine) present(frameIndex uint32) {
	e.lastPresented.Store(frameIndex)
	if e.gameInstance.FnPresent != nil {
		e.gameInstance.FnPresent(frameIndex)
	}
}

// OnConfigChange applies a reloaded configuration. Only the log level and
// game level settings take effect, the frame ring keeps its shape.
func (e *Engine) OnConfigChange(cfg *config.Config) {
	core.SetLogLevel(cfg.LogLevel())
	core.LogInfo("configuration reloaded, log level %s", cfg.LogLevel())
	if e.gameInstance.FnOnConfigChange != nil {
		if err := e.gameInstance.FnOnConfigChange(cfg); err != nil {
			core.LogError("game rejected configuration: %s", err)
		}
	}
}

func (e *Engine) RenderContext() *renderer.RenderContext {
	return e.render
}

func (e *Engine) FramesRendered() uint64 {
	return e.framesRendered.Load()
}

func (e *Engine) LastPresented() uint32 {
	return e.lastPresented.Load()
}

func (e *Engine) Metrics() core.MetricsSnapshot {
	if e.render == nil {
		return core.MetricsSnapshot{}
	}
	return e.render.Frames.Metrics().Snapshot()
}

func (e *Engine) Shutdown() error {
	e.mu.Lock()
	switch e.currentStage {
	case EngineStageShuttingDown, EngineStageShutdown:
		e.mu.Unlock()
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.mu.Unlock()

	var errs []error
	if e.render != nil {
		if err := e.render.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	} else {
		e.device.Destroy()
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	e.clock.Update()
	e.clock.Stop()

	e.mu.Lock()
	e.currentStage = EngineStageShutdown
	e.mu.Unlock()

	core.LogInfo("engine stopped after %d frames (%s)", e.framesRendered.Load(), e.clock.Elapsed().Round(time.Millisecond))
	return errors.Join(errs...)
}
