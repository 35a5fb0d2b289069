package vulkan

import (
	"fmt"
	"math"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/framebin/engine/core"
)

type VulkanFence struct {
	device *VulkanDevice
	Handle vk.Fence
}

func NewFence(device *VulkanDevice, createSignaled bool) (*VulkanFence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if res := vk.CreateFence(device.LogicalDevice, &fenceCreateInfo, device.context.Allocator, &pFence); res != vk.Success {
		err := fmt.Errorf("failed to create fence: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	return &VulkanFence{device: device, Handle: pFence}, nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != nil {
		vk.DestroyFence(vf.device.LogicalDevice, vf.Handle, vf.device.context.Allocator)
		vf.Handle = nil
	}
}

// Signaled queries the device, the state may change right after the call.
func (vf *VulkanFence) Signaled() bool {
	return vk.GetFenceStatus(vf.device.LogicalDevice, vf.Handle) == vk.Success
}

// Wait blocks until the fence signals. A zero timeout waits forever.
func (vf *VulkanFence) Wait(timeout time.Duration) error {
	timeoutNs := uint64(math.MaxUint64)
	if timeout > 0 {
		timeoutNs = uint64(timeout.Nanoseconds())
	}

	result := vk.WaitForFences(vf.device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
		return core.ErrFenceTimeout
	case vk.ErrorDeviceLost:
		core.LogError("vk_fence_wait - VK_ERROR_DEVICE_LOST.")
		return core.ErrDeviceLost
	default:
		return resultError("wait for fence", result)
	}
}

func (vf *VulkanFence) Reset() error {
	if res := vk.ResetFences(vf.device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return resultError("reset fence", res)
	}
	return nil
}
