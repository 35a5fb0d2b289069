package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

type VulkanDescriptorPool struct {
	device *VulkanDevice
	Handle vk.DescriptorPool
}

func NewDescriptorPool(device *VulkanDevice, sizes []metadata.DescriptorPoolSize, maxSets uint32) (*VulkanDescriptorPool, error) {
	poolSizes := make([]vk.DescriptorPoolSize, len(sizes))
	for i, size := range sizes {
		poolSizes[i] = vk.DescriptorPoolSize{
			Type:            vk.DescriptorType(size.Type),
			DescriptorCount: size.Count,
		}
	}
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var handle vk.DescriptorPool
	if res := vk.CreateDescriptorPool(device.LogicalDevice, &createInfo, device.context.Allocator, &handle); res != vk.Success {
		return nil, resultError("create descriptor pool", res)
	}
	return &VulkanDescriptorPool{device: device, Handle: handle}, nil
}

// Reset returns every set allocated from the pool.
func (p *VulkanDescriptorPool) Reset() error {
	if res := vk.ResetDescriptorPool(p.device.LogicalDevice, p.Handle, 0); res != vk.Success {
		return resultError("reset descriptor pool", res)
	}
	return nil
}

func (p *VulkanDescriptorPool) Destroy() {
	if p.Handle != nil {
		vk.DestroyDescriptorPool(p.device.LogicalDevice, p.Handle, p.device.context.Allocator)
		p.Handle = nil
	}
}
