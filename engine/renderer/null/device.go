// Package null is a software GPU. It honours the ordering contract of a real
// graphics queue without touching any hardware, which makes it the backend
// of choice for tests and headless runs.
package null

import (
	"sync"
	"time"

	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

type DeviceOptions struct {
	// Latency is how long a batch takes to execute.
	Latency time.Duration
	// QueueDepth bounds the number of in-flight batches. Submit blocks once it is reached.
	QueueDepth int
}

type Device struct {
	mu        sync.Mutex
	queue     *Queue
	destroyed bool

	fences     int
	semaphores uint64
	cmdPools   int
	descPools  int
}

func NewDevice(opts DeviceOptions) *Device {
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 16
	}
	core.LogDebug("null device created (latency %s, queue depth %d)", opts.Latency, opts.QueueDepth)
	return &Device{queue: newQueue(opts.QueueDepth, opts.Latency)}
}

func (d *Device) CreateFence(signaled bool) (metadata.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, core.ErrDeviceLost
	}
	d.fences++
	return newFence(signaled), nil
}

func (d *Device) CreateSemaphore() (metadata.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, core.ErrDeviceLost
	}
	d.semaphores++
	return &Semaphore{id: d.semaphores}, nil
}

func (d *Device) CreateCommandPool() (metadata.CommandPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, core.ErrDeviceLost
	}
	d.cmdPools++
	return &CommandPool{}, nil
}

func (d *Device) CreateDescriptorPool(sizes []metadata.DescriptorPoolSize, maxSets uint32) (metadata.DescriptorPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, core.ErrDeviceLost
	}
	d.descPools++
	return &DescriptorPool{maxSets: maxSets}, nil
}

func (d *Device) GraphicsQueue() metadata.Queue {
	return d.queue
}

func (d *Device) Queue() *Queue {
	return d.queue
}

func (d *Device) WaitIdle() error {
	return d.queue.WaitIdle()
}

func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	d.mu.Unlock()

	d.queue.close()
	core.LogDebug("null device destroyed after %d fences, %d semaphores, %d command pools", d.fences, d.semaphores, d.cmdPools)
}
