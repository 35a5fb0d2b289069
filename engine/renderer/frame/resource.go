package frame

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

// PerFrameResource is a disposable bundle of pools tied to one frame bin.
// It is owned by a single recording goroutine at a time and is never freed
// on its own: the frame manager resets every resource of a bin once the
// bin's fence has signaled.
type PerFrameResource struct {
	ID  uuid.UUID
	bin uint32

	commandPool    metadata.CommandPool
	descriptorPool metadata.DescriptorPool

	// command buffers handed out since the last reset, reused afterwards
	buffers []*CommandBuffer
	used    int
}

// CommandBuffer is a backend command buffer tagged with the bin of the
// resource it was allocated from.
type CommandBuffer struct {
	metadata.CommandBuffer
	bin   uint32
	owner uuid.UUID
}

func (c *CommandBuffer) Bin() uint32 {
	return c.bin
}

// Owner is the ID of the PerFrameResource the buffer came from.
func (c *CommandBuffer) Owner() uuid.UUID {
	return c.owner
}

func newPerFrameResource(device metadata.Device, bin uint32, sizes []metadata.DescriptorPoolSize, maxSets uint32) (*PerFrameResource, error) {
	cp, err := device.CreateCommandPool()
	if err != nil {
		core.LogError("failed to create command pool for frame bin %d: %s", bin, err)
		return nil, fmt.Errorf("create command pool: %w", err)
	}
	dp, err := device.CreateDescriptorPool(sizes, maxSets)
	if err != nil {
		cp.Destroy()
		core.LogError("failed to create descriptor pool for frame bin %d: %s", bin, err)
		return nil, fmt.Errorf("create descriptor pool: %w", err)
	}
	return &PerFrameResource{
		ID:             uuid.New(),
		bin:            bin,
		commandPool:    cp,
		descriptorPool: dp,
	}, nil
}

func (r *PerFrameResource) Bin() uint32 {
	return r.bin
}

func (r *PerFrameResource) DescriptorPool() metadata.DescriptorPool {
	return r.descriptorPool
}

// AllocateCommandBuffer returns a command buffer ready for recording. Buffers
// recycled by the last Reset are handed out before new ones are allocated.
func (r *PerFrameResource) AllocateCommandBuffer() (*CommandBuffer, error) {
	if r.used < len(r.buffers) {
		cb := r.buffers[r.used]
		r.used++
		return cb, nil
	}
	raw, err := r.commandPool.Allocate()
	if err != nil {
		return nil, fmt.Errorf("allocate command buffer: %w", err)
	}
	cb := &CommandBuffer{CommandBuffer: raw, bin: r.bin, owner: r.ID}
	r.buffers = append(r.buffers, cb)
	r.used++
	return cb, nil
}

// Reset recycles both pools. Only call once the GPU is done with the bin.
func (r *PerFrameResource) Reset() error {
	if err := r.commandPool.Reset(); err != nil {
		return fmt.Errorf("reset command pool %s: %w", r.ID, err)
	}
	for _, cb := range r.buffers {
		cb.Reset()
	}
	r.used = 0
	if err := r.descriptorPool.Reset(); err != nil {
		return fmt.Errorf("reset descriptor pool %s: %w", r.ID, err)
	}
	return nil
}

func (r *PerFrameResource) Destroy() {
	r.buffers = nil
	r.used = 0
	if r.descriptorPool != nil {
		r.descriptorPool.Destroy()
		r.descriptorPool = nil
	}
	if r.commandPool != nil {
		r.commandPool.Destroy()
		r.commandPool = nil
	}
}
