package null

import (
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

func recorded(t *testing.T, pool metadata.CommandPool) metadata.CommandBuffer {
	t.Helper()
	cb, err := pool.Allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := cb.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := cb.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	return cb
}

func TestFenceCreatedSignaled(t *testing.T) {
	d := NewDevice(DeviceOptions{})
	defer d.Destroy()

	f, err := d.CreateFence(true)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Signaled() {
		t.Fatal("expected signaled fence")
	}
	if err := f.Wait(time.Millisecond); err != nil {
		t.Fatalf("wait on signaled fence: %v", err)
	}
	if err := f.Reset(); err != nil {
		t.Fatal(err)
	}
	if f.Signaled() {
		t.Fatal("fence still signaled after reset")
	}
}

func TestFenceWaitTimesOut(t *testing.T) {
	d := NewDevice(DeviceOptions{})
	defer d.Destroy()

	f, _ := d.CreateFence(false)
	if err := f.Wait(5 * time.Millisecond); !errors.Is(err, core.ErrFenceTimeout) {
		t.Fatalf("expected ErrFenceTimeout, got %v", err)
	}
}

func TestSubmitSignalsFenceAfterLatency(t *testing.T) {
	d := NewDevice(DeviceOptions{Latency: 2 * time.Millisecond})
	defer d.Destroy()

	pool, _ := d.CreateCommandPool()
	f, _ := d.CreateFence(false)
	cb := recorded(t, pool)

	if err := d.GraphicsQueue().Submit([]metadata.CommandBuffer{cb}, nil, nil, nil, f, false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.Wait(time.Second); err != nil {
		t.Fatalf("fence never signaled: %v", err)
	}
	if got := cb.(*CommandBuffer).State(); got != COMMAND_BUFFER_STATE_SUBMITTED {
		t.Fatalf("state = %d, want submitted", got)
	}
}

func TestSubmitRejectsUnfinishedRecording(t *testing.T) {
	d := NewDevice(DeviceOptions{})
	defer d.Destroy()

	pool, _ := d.CreateCommandPool()
	cb, _ := pool.Allocate()
	if err := cb.Begin(); err != nil {
		t.Fatal(err)
	}
	err := d.GraphicsQueue().Submit([]metadata.CommandBuffer{cb}, nil, nil, nil, nil, false)
	if !errors.Is(err, ErrNotExecutable) {
		t.Fatalf("expected ErrNotExecutable, got %v", err)
	}
}

func TestSubmitRejectsMismatchedWaitStages(t *testing.T) {
	d := NewDevice(DeviceOptions{})
	defer d.Destroy()

	sem, _ := d.CreateSemaphore()
	err := d.GraphicsQueue().Submit(nil, []metadata.Semaphore{sem}, nil, nil, nil, false)
	if err == nil {
		t.Fatal("expected error for missing wait stage")
	}
}

func TestBatchesExecuteInOrder(t *testing.T) {
	d := NewDevice(DeviceOptions{Latency: time.Millisecond, QueueDepth: 2})
	defer d.Destroy()

	q := d.GraphicsQueue()
	fences := make([]metadata.Fence, 5)
	for i := range fences {
		fences[i], _ = d.CreateFence(false)
		if err := q.Submit(nil, nil, nil, nil, fences[i], false); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := fences[len(fences)-1].Wait(time.Second); err != nil {
		t.Fatal(err)
	}
	// a later fence signaling implies every earlier batch already ran
	for i, f := range fences {
		if !f.Signaled() {
			t.Fatalf("fence %d not signaled", i)
		}
	}
}

func TestWaitIdleDrainsQueue(t *testing.T) {
	d := NewDevice(DeviceOptions{Latency: time.Millisecond})
	defer d.Destroy()

	for i := 0; i < 3; i++ {
		if err := d.GraphicsQueue().Submit(nil, nil, nil, nil, nil, false); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	submitted, executed := d.Queue().Counts()
	if submitted != 3 || executed != 3 {
		t.Fatalf("counts = %d/%d, want 3/3", submitted, executed)
	}
}

func TestCommandPoolResetReturnsBuffersToReady(t *testing.T) {
	d := NewDevice(DeviceOptions{})
	defer d.Destroy()

	pool, _ := d.CreateCommandPool()
	cb := recorded(t, pool)
	if err := pool.Reset(); err != nil {
		t.Fatal(err)
	}
	if got := cb.(*CommandBuffer).State(); got != COMMAND_BUFFER_STATE_READY {
		t.Fatalf("state = %d, want ready", got)
	}
}

func TestDestroyedDeviceRefusesWork(t *testing.T) {
	d := NewDevice(DeviceOptions{})
	d.Destroy()
	d.Destroy()

	if _, err := d.CreateFence(true); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost, got %v", err)
	}
	if err := d.GraphicsQueue().Submit(nil, nil, nil, nil, nil, false); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost from submit, got %v", err)
	}
}
