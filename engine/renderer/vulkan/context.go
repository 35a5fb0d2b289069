package vulkan

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/framebin/engine/core"
)

var (
	loaderOnce sync.Once
	loaderErr  error
)

type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	Device *VulkanDevice
	Locks  *VulkanLockPool
}

func loadVulkan() error {
	loaderOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			loaderErr = fmt.Errorf("failed to load the vulkan library: %w", err)
			return
		}
		if err := vk.Init(); err != nil {
			loaderErr = fmt.Errorf("failed to initialize vk: %w", err)
		}
	})
	return loaderErr
}

// NewVulkanContext creates an instance without any surface and picks the
// first device exposing a graphics queue.
func NewVulkanContext(appName string) (*VulkanContext, error) {
	if err := loadVulkan(); err != nil {
		return nil, err
	}

	context := &VulkanContext{
		// TODO: custom allocator.
		Allocator: nil,
		Locks:     NewVulkanLockPool(),
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Framebin"),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	if res := vk.CreateInstance(&createInfo, context.Allocator, &context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	if err := vk.InitInstance(context.Instance); err != nil {
		core.LogError(err.Error())
		vk.DestroyInstance(context.Instance, context.Allocator)
		return nil, err
	}
	core.LogInfo("Vulkan Instance created.")

	if err := DeviceCreate(context); err != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		return nil, err
	}
	return context, nil
}

func (vc *VulkanContext) destroyInstance() {
	if vc.Instance != nil {
		core.LogInfo("Destroying Vulkan instance...")
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
}
