package vulkan

import (
	vk "github.com/goki/vulkan"
)

type VulkanSemaphore struct {
	device *VulkanDevice
	Handle vk.Semaphore
}

func NewSemaphore(device *VulkanDevice) (*VulkanSemaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if res := vk.CreateSemaphore(device.LogicalDevice, &createInfo, device.context.Allocator, &handle); res != vk.Success {
		return nil, resultError("create semaphore", res)
	}
	return &VulkanSemaphore{device: device, Handle: handle}, nil
}

func (s *VulkanSemaphore) Destroy() {
	if s.Handle != nil {
		vk.DestroySemaphore(s.device.LogicalDevice, s.Handle, s.device.context.Allocator)
		s.Handle = nil
	}
}
