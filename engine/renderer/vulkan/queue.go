package vulkan

import (
	"errors"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

var ErrForeignHandle = errors.New("handle was not created by the vulkan device")

type VulkanQueue struct {
	device      *VulkanDevice
	Handle      vk.Queue
	FamilyIndex uint32
}

// Submit records one VkSubmitInfo. Access to the queue is serialized through
// the lock pool since vkQueueSubmit requires external synchronization.
func (q *VulkanQueue) Submit(
	cmdBuffers []metadata.CommandBuffer,
	waitSemaphores []metadata.Semaphore,
	waitStages []metadata.PipelineStageFlags,
	signalSemaphores []metadata.Semaphore,
	fence metadata.Fence,
	waitIdle bool,
) error {
	buffers := make([]*VulkanCommandBuffer, len(cmdBuffers))
	handles := make([]vk.CommandBuffer, len(cmdBuffers))
	for i, cb := range cmdBuffers {
		vcb, ok := cb.(*VulkanCommandBuffer)
		if !ok {
			return ErrForeignHandle
		}
		buffers[i] = vcb
		handles[i] = vcb.Handle
	}
	waits, err := semaphoreHandles(waitSemaphores)
	if err != nil {
		return err
	}
	signals, err := semaphoreHandles(signalSemaphores)
	if err != nil {
		return err
	}
	stages := make([]vk.PipelineStageFlags, len(waitStages))
	for i, s := range waitStages {
		stages[i] = vk.PipelineStageFlags(s)
	}

	var fenceHandle vk.Fence
	if fence != nil {
		vf, ok := fence.(*VulkanFence)
		if !ok {
			return ErrForeignHandle
		}
		fenceHandle = vf.Handle
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      waits,
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(handles)),
		PCommandBuffers:      handles,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
	}

	return q.device.context.Locks.SafeQueueCall(q.FamilyIndex, func() error {
		if res := vk.QueueSubmit(q.Handle, 1, []vk.SubmitInfo{submitInfo}, fenceHandle); res != vk.Success {
			return resultError("queue submit", res)
		}
		for _, cb := range buffers {
			cb.UpdateSubmitted()
		}
		if waitIdle {
			if res := vk.QueueWaitIdle(q.Handle); res != vk.Success {
				return resultError("queue wait idle", res)
			}
		}
		return nil
	})
}

func (q *VulkanQueue) WaitIdle() error {
	return q.device.context.Locks.SafeQueueCall(q.FamilyIndex, func() error {
		if res := vk.QueueWaitIdle(q.Handle); res != vk.Success {
			return resultError("queue wait idle", res)
		}
		return nil
	})
}

func semaphoreHandles(sems []metadata.Semaphore) ([]vk.Semaphore, error) {
	handles := make([]vk.Semaphore, len(sems))
	for i, s := range sems {
		vs, ok := s.(*VulkanSemaphore)
		if !ok {
			return nil, ErrForeignHandle
		}
		handles[i] = vs.Handle
	}
	return handles, nil
}
