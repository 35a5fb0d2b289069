package metadata

import "time"

// PipelineStageFlags mirrors VkPipelineStageFlagBits so backends can convert
// with a plain cast.
type PipelineStageFlags uint32

const (
	PIPELINE_STAGE_TOP_OF_PIPE             PipelineStageFlags = 0x00000001
	PIPELINE_STAGE_DRAW_INDIRECT           PipelineStageFlags = 0x00000002
	PIPELINE_STAGE_VERTEX_INPUT            PipelineStageFlags = 0x00000004
	PIPELINE_STAGE_VERTEX_SHADER           PipelineStageFlags = 0x00000008
	PIPELINE_STAGE_FRAGMENT_SHADER         PipelineStageFlags = 0x00000080
	PIPELINE_STAGE_EARLY_FRAGMENT_TESTS    PipelineStageFlags = 0x00000100
	PIPELINE_STAGE_LATE_FRAGMENT_TESTS     PipelineStageFlags = 0x00000200
	PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT PipelineStageFlags = 0x00000400
	PIPELINE_STAGE_COMPUTE_SHADER          PipelineStageFlags = 0x00000800
	PIPELINE_STAGE_TRANSFER                PipelineStageFlags = 0x00001000
	PIPELINE_STAGE_BOTTOM_OF_PIPE          PipelineStageFlags = 0x00002000
	PIPELINE_STAGE_ALL_COMMANDS            PipelineStageFlags = 0x00010000
)

type DescriptorType uint32

const (
	DESCRIPTOR_TYPE_SAMPLER                DescriptorType = 0
	DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER DescriptorType = 1
	DESCRIPTOR_TYPE_SAMPLED_IMAGE          DescriptorType = 2
	DESCRIPTOR_TYPE_STORAGE_IMAGE          DescriptorType = 3
	DESCRIPTOR_TYPE_UNIFORM_BUFFER         DescriptorType = 6
	DESCRIPTOR_TYPE_STORAGE_BUFFER         DescriptorType = 7
)

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

// Fence is a GPU to CPU completion signal.
type Fence interface {
	// Reset moves the fence back to the unsignaled state.
	Reset() error
	// Wait blocks until the fence is signaled. A non-positive timeout waits
	// without bound.
	Wait(timeout time.Duration) error
	Signaled() bool
	Destroy()
}

// Semaphore orders work between queue operations. The frame manager never
// inspects one, it only hands them to a Queue.
type Semaphore interface {
	Destroy()
}

type CommandBuffer interface {
	Begin() error
	End() error
	Reset()
}

type CommandPool interface {
	Allocate() (CommandBuffer, error)
	// Reset recycles every command buffer allocated from the pool.
	Reset() error
	Destroy()
}

type DescriptorPool interface {
	Reset() error
	Destroy()
}

type Queue interface {
	// Submit hands command buffers to the GPU. fence may be nil; when set it is
	// signaled once all of this submission's work has completed.
	Submit(
		cmdBuffers []CommandBuffer,
		waitSemaphores []Semaphore,
		waitStages []PipelineStageFlags,
		signalSemaphores []Semaphore,
		fence Fence,
		waitIdle bool,
	) error
	WaitIdle() error
}

// Device creates the synchronization objects and pools the frame manager
// owns.
type Device interface {
	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	CreateCommandPool() (CommandPool, error)
	CreateDescriptorPool(sizes []DescriptorPoolSize, maxSets uint32) (DescriptorPool, error)
	GraphicsQueue() Queue
	WaitIdle() error
	Destroy()
}
