package vulkan

import (
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

func newTestDevice(t *testing.T) *VulkanDevice {
	t.Helper()
	ctx, err := NewVulkanContext("framebin-test")
	if err != nil {
		t.Skipf("vulkan unavailable: %v", err)
	}
	t.Cleanup(ctx.Device.Destroy)
	return ctx.Device
}

func TestFenceLifecycle(t *testing.T) {
	d := newTestDevice(t)

	f, err := d.CreateFence(true)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Destroy()

	if !f.Signaled() {
		t.Fatal("fence created signaled is not signaled")
	}
	if err := f.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := f.Wait(time.Millisecond); !errors.Is(err, core.ErrFenceTimeout) {
		t.Fatalf("expected timeout on reset fence, got %v", err)
	}
}

func TestSubmitSignalsFence(t *testing.T) {
	d := newTestDevice(t)

	pool, err := d.CreateCommandPool()
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	cb, err := pool.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := cb.End(); err != nil {
		t.Fatal(err)
	}

	f, _ := d.CreateFence(false)
	defer f.Destroy()
	if err := d.GraphicsQueue().Submit([]metadata.CommandBuffer{cb}, nil, nil, nil, f, false); err != nil {
		t.Fatal(err)
	}
	if err := f.Wait(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := pool.Reset(); err != nil {
		t.Fatal(err)
	}
	if got := cb.(*VulkanCommandBuffer).State; got != COMMAND_BUFFER_STATE_READY {
		t.Fatalf("state after pool reset = %d", got)
	}
}

func TestDescriptorPoolReset(t *testing.T) {
	d := newTestDevice(t)

	pool, err := d.CreateDescriptorPool([]metadata.DescriptorPoolSize{
		{Type: metadata.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Count: 2},
		{Type: metadata.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, Count: 2},
	}, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()
	if err := pool.Reset(); err != nil {
		t.Fatal(err)
	}
}
