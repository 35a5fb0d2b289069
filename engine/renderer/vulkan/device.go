package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

var ErrNoSuitableDevice = errors.New("no physical device exposes a graphics queue")

// VulkanDevice is the logical device. It hands out synchronization
// primitives and pools that the frame manager drives through the metadata
// interfaces.
type VulkanDevice struct {
	context *VulkanContext

	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex uint32

	Properties vk.PhysicalDeviceProperties

	graphicsQueue *VulkanQueue
}

func DeviceCreate(context *VulkanContext) error {
	device := &VulkanDevice{context: context}
	if err := device.selectPhysicalDevice(); err != nil {
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Creating logical device...")

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),
		PQueueCreateInfos:    queueCreateInfos,
	}

	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &device.LogicalDevice); res != vk.Success {
		err := fmt.Errorf("failed to create logical device: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, device.GraphicsQueueIndex, 0, &queue)
	context.Locks.SetQueueFamily(device.GraphicsQueueIndex)
	device.graphicsQueue = &VulkanQueue{device: device, Handle: queue, FamilyIndex: device.GraphicsQueueIndex}
	core.LogInfo("Queues obtained.")

	context.Device = device
	return nil
}

func (d *VulkanDevice) selectPhysicalDevice() error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(d.context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}
	if physicalDeviceCount == 0 {
		return ErrNoSuitableDevice
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(d.context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}

	for _, physical := range physicalDevices {
		var queueFamilyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, nil)
		queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, queueFamilies)

		for i, family := range queueFamilies {
			family.Deref()
			if family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
				continue
			}
			var properties vk.PhysicalDeviceProperties
			vk.GetPhysicalDeviceProperties(physical, &properties)
			properties.Deref()

			d.PhysicalDevice = physical
			d.GraphicsQueueIndex = uint32(i)
			d.Properties = properties

			name := properties.DeviceName[:FindFirstZeroInByteArray(properties.DeviceName[:])]
			core.LogInfo("Selected device: '%s' (%s).", string(name), deviceTypeString(properties.DeviceType))
			core.LogInfo(
				"Vulkan API version: %d.%d.%d",
				vk.Version(properties.ApiVersion).Major(),
				vk.Version(properties.ApiVersion).Minor(),
				vk.Version(properties.ApiVersion).Patch(),
			)
			return nil
		}
	}
	return ErrNoSuitableDevice
}

func deviceTypeString(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "unknown"
	}
}

func (d *VulkanDevice) CreateFence(signaled bool) (metadata.Fence, error) {
	return NewFence(d, signaled)
}

func (d *VulkanDevice) CreateSemaphore() (metadata.Semaphore, error) {
	return NewSemaphore(d)
}

func (d *VulkanDevice) CreateCommandPool() (metadata.CommandPool, error) {
	return NewCommandPool(d)
}

func (d *VulkanDevice) CreateDescriptorPool(sizes []metadata.DescriptorPoolSize, maxSets uint32) (metadata.DescriptorPool, error) {
	return NewDescriptorPool(d, sizes, maxSets)
}

func (d *VulkanDevice) GraphicsQueue() metadata.Queue {
	return d.graphicsQueue
}

// WaitIdle holds every queue lock since vkDeviceWaitIdle synchronizes with
// all queues of the device.
func (d *VulkanDevice) WaitIdle() error {
	return d.context.Locks.SafeQueueCall(d.GraphicsQueueIndex, func() error {
		if res := vk.DeviceWaitIdle(d.LogicalDevice); res != vk.Success {
			return resultError("device wait idle", res)
		}
		return nil
	})
}

func (d *VulkanDevice) Destroy() {
	_ = d.context.Locks.SafeCall(DeviceManagement, func() error {
		if d.LogicalDevice != nil {
			core.LogInfo("Destroying logical device...")
			vk.DestroyDevice(d.LogicalDevice, d.context.Allocator)
			d.LogicalDevice = nil
		}
		d.PhysicalDevice = nil
		d.graphicsQueue = nil
		d.context.destroyInstance()
		return nil
	})
}
