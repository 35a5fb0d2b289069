package engine

import (
	"time"

	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/renderer"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnRender          Render
	FnPresent         Present
	FnOnConfigChange  OnConfigChange
	FnShutdown        Shutdown
}

type Initialize func(rc *renderer.RenderContext) error

// Render dispatches the jobs of one frame. The frame's bin is already open.
type Render func(frame uint64, deltaTime time.Duration) error

// Present runs while the frame manager holds its lock. It must not call into
// the render context.
type Present func(frameIndex uint32)

type OnConfigChange func(cfg *config.Config) error
type Shutdown func() error
