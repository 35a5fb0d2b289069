package renderer

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
	"github.com/spaghettifunk/framebin/engine/renderer/null"
	"github.com/spaghettifunk/framebin/engine/renderer/vulkan"
)

type RendererType uint8

const (
	Null RendererType = iota
	Vulkan
)

func (t RendererType) String() string {
	switch t {
	case Null:
		return config.BackendNull
	case Vulkan:
		return config.BackendVulkan
	default:
		return fmt.Sprintf("RendererType(%d)", uint8(t))
	}
}

func ParseRendererType(name string) (RendererType, error) {
	switch name {
	case config.BackendNull:
		return Null, nil
	case config.BackendVulkan:
		return Vulkan, nil
	}
	return 0, fmt.Errorf("unknown renderer backend %q", name)
}

// OpenDevice creates the device selected by cfg.Driver.Backend.
func OpenDevice(cfg *config.Config) (metadata.Device, error) {
	t, err := ParseRendererType(cfg.Driver.Backend)
	if err != nil {
		return nil, err
	}
	switch t {
	case Vulkan:
		ctx, err := vulkan.NewVulkanContext(cfg.Driver.AppName)
		if err != nil {
			return nil, fmt.Errorf("open vulkan device: %w", err)
		}
		return ctx.Device, nil
	default:
		return null.NewDevice(null.DeviceOptions{
			Latency: time.Duration(cfg.Driver.GPULatency),
			// enough room for every bin to have a full batch in flight
			QueueDepth: int(cfg.Frame.Bins) * max(cfg.Driver.JobsPerFrame, 1),
		}), nil
	}
}
