package renderer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/frame"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
	"github.com/spaghettifunk/framebin/engine/systems"
)

// RenderContext owns the device and everything built on it. Collaborators
// receive it explicitly instead of reaching for process wide handles.
type RenderContext struct {
	Device metadata.Device
	Frames *frame.Manager
	Jobs   *systems.JobSystem

	shutdownOnce sync.Once
	shutdownErr  error
}

func FrameOptions(cfg *config.Config) frame.Options {
	return frame.Options{
		BinCount:     cfg.Frame.Bins,
		FenceTimeout: time.Duration(cfg.Frame.FenceTimeout),
		DescriptorPoolSizes: []metadata.DescriptorPoolSize{
			{Type: metadata.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Count: cfg.Frame.UniformBuffers},
			{Type: metadata.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, Count: cfg.Frame.ImageSamplers},
		},
		MaxDescriptorSets: cfg.Frame.DescriptorSets,
	}
}

// NewRenderContext takes ownership of device. On failure the device is left
// to the caller.
func NewRenderContext(device metadata.Device, cfg *config.Config) (*RenderContext, error) {
	frames, err := frame.NewManager(device, FrameOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("create frame manager: %w", err)
	}

	jobs, err := systems.NewJobSystem(cfg.Workers.Count, cfg.Workers.QueueSize, frames)
	if err != nil {
		frames.Destroy()
		return nil, fmt.Errorf("create job system: %w", err)
	}
	frames.BindWorkers(jobs)

	core.LogInfo("render context ready: %d frame bins, %d workers", frames.BinCount(), cfg.Workers.Count)
	return &RenderContext{
		Device: device,
		Frames: frames,
		Jobs:   jobs,
	}, nil
}

// Shutdown drains every bin, waits for the GPU and releases all objects in
// reverse creation order. Calling it more than once returns the first result.
func (rc *RenderContext) Shutdown() error {
	rc.shutdownOnce.Do(func() {
		var errs []error
		for bin := uint32(0); bin < rc.Frames.BinCount(); bin++ {
			rc.Jobs.WaitForDrain(bin)
		}
		if err := rc.Device.WaitIdle(); err != nil {
			errs = append(errs, fmt.Errorf("wait for device: %w", err))
		}
		if err := rc.Jobs.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stop job system: %w", err))
		}
		rc.Frames.Destroy()
		rc.Device.Destroy()

		rc.shutdownErr = errors.Join(errs...)
		if rc.shutdownErr != nil {
			core.LogError("render context shutdown: %s", rc.shutdownErr)
		}
	})
	return rc.shutdownErr
}
