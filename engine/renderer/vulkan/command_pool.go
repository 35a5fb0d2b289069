package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

// VulkanCommandPool must only be used by one goroutine at a time, which the
// job system guarantees by keeping one pool per worker and bin.
type VulkanCommandPool struct {
	device  *VulkanDevice
	Handle  vk.CommandPool
	buffers []*VulkanCommandBuffer
}

func NewCommandPool(device *VulkanDevice) (*VulkanCommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	var handle vk.CommandPool
	if res := vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, device.context.Allocator, &handle); res != vk.Success {
		return nil, resultError("create command pool", res)
	}
	return &VulkanCommandPool{device: device, Handle: handle}, nil
}

func (p *VulkanCommandPool) Allocate() (metadata.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.Handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(p.device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		return nil, resultError("allocate command buffer", res)
	}
	cb := &VulkanCommandBuffer{Handle: handles[0], State: COMMAND_BUFFER_STATE_READY}
	p.buffers = append(p.buffers, cb)
	return cb, nil
}

func (p *VulkanCommandPool) Reset() error {
	if res := vk.ResetCommandPool(p.device.LogicalDevice, p.Handle, 0); res != vk.Success {
		return resultError("reset command pool", res)
	}
	for _, cb := range p.buffers {
		cb.Reset()
	}
	return nil
}

// Destroy frees every buffer allocated from the pool.
func (p *VulkanCommandPool) Destroy() {
	if p.Handle != nil {
		vk.DestroyCommandPool(p.device.LogicalDevice, p.Handle, p.device.context.Allocator)
		p.Handle = nil
	}
	for _, cb := range p.buffers {
		cb.Handle = nil
		cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	p.buffers = nil
}
