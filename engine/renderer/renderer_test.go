package renderer

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/frame"
	"github.com/spaghettifunk/framebin/engine/renderer/null"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workers.Count = 4
	cfg.Workers.QueueSize = 8
	cfg.Frame.FenceTimeout = config.Duration(5 * time.Second)
	cfg.Driver.GPULatency = config.Duration(200 * time.Microsecond)
	return cfg
}

func newTestContext(t *testing.T, cfg *config.Config) *RenderContext {
	t.Helper()
	device, err := OpenDevice(cfg)
	if err != nil {
		t.Fatalf("open device: %v", err)
	}
	rc, err := NewRenderContext(device, cfg)
	if err != nil {
		device.Destroy()
		t.Fatalf("new render context: %v", err)
	}
	return rc
}

func recordFrameJob(rc *RenderContext, recorded *atomic.Int64) frame.JobFunc {
	return func(res *frame.PerFrameResource) error {
		cb, err := res.AllocateCommandBuffer()
		if err != nil {
			return err
		}
		if err := cb.Begin(); err != nil {
			return err
		}
		if err := cb.End(); err != nil {
			return err
		}
		recorded.Add(1)
		return rc.Frames.CacheSubmission(rc.Device.GraphicsQueue(), []*frame.CommandBuffer{cb}, nil, nil, nil, false)
	}
}

func TestFramesPresentInOrderUnderLoad(t *testing.T) {
	cfg := testConfig()
	rc := newTestContext(t, cfg)

	const frames = 60
	const jobsPerFrame = 5

	var mu sync.Mutex
	var presented []uint32
	present := func(frameIndex uint32) {
		mu.Lock()
		presented = append(presented, frameIndex)
		mu.Unlock()
	}

	var recorded atomic.Int64
	for f := uint32(1); f <= frames; f++ {
		if err := rc.Frames.AdvanceBin(); err != nil {
			t.Fatalf("frame %d: advance: %v", f, err)
		}
		rc.Frames.SetFrameIndex(f)
		for j := 0; j < jobsPerFrame; j++ {
			if err := rc.Frames.AddJobToFrame(recordFrameJob(rc, &recorded)); err != nil {
				t.Fatalf("frame %d: add job: %v", f, err)
			}
		}
		rc.Frames.EndJobSubmission(present)
	}

	if err := rc.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := recorded.Load(); got != frames*jobsPerFrame {
		t.Fatalf("recorded %d command buffers, want %d", got, frames*jobsPerFrame)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(presented) != frames {
		t.Fatalf("presented %d frames, want %d", len(presented), frames)
	}
	for i, idx := range presented {
		if idx != uint32(i+1) {
			t.Fatalf("presentation order broken at %d: %v", i, presented)
		}
	}

	snap := rc.Frames.Metrics().Snapshot()
	if snap.FramesPresented != frames {
		t.Errorf("metrics report %d frames presented", snap.FramesPresented)
	}
	if snap.Submissions != frames*jobsPerFrame {
		t.Errorf("metrics report %d submissions, want %d", snap.Submissions, frames*jobsPerFrame)
	}
	if snap.SubmitBatches != frames {
		t.Errorf("metrics report %d batches, want one per frame", snap.SubmitBatches)
	}
}

func TestAllJobsSubmittedInOneBatchPerFrame(t *testing.T) {
	cfg := testConfig()
	device := null.NewDevice(null.DeviceOptions{QueueDepth: 4})
	rc, err := NewRenderContext(device, cfg)
	if err != nil {
		t.Fatal(err)
	}

	var recorded atomic.Int64
	for f := uint32(1); f <= 3; f++ {
		if err := rc.Frames.AdvanceBin(); err != nil {
			t.Fatal(err)
		}
		rc.Frames.SetFrameIndex(f)
		for j := 0; j < 2; j++ {
			if err := rc.Frames.AddJobToFrame(recordFrameJob(rc, &recorded)); err != nil {
				t.Fatal(err)
			}
		}
		rc.Frames.EndJobSubmission(func(uint32) {})
	}
	for bin := uint32(0); bin < rc.Frames.BinCount(); bin++ {
		rc.Jobs.WaitForDrain(bin)
	}
	if err := device.WaitIdle(); err != nil {
		t.Fatal(err)
	}

	// one queue submission per cached command buffer
	submitted, executed := device.Queue().Counts()
	if submitted != 6 || executed != 6 {
		t.Fatalf("queue counts = %d/%d, want 6/6", submitted, executed)
	}
	if err := rc.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestFailingJobStillPresents(t *testing.T) {
	cfg := testConfig()
	rc := newTestContext(t, cfg)

	boom := errors.New("boom")
	var presented atomic.Int32
	if err := rc.Frames.AdvanceBin(); err != nil {
		t.Fatal(err)
	}
	rc.Frames.SetFrameIndex(1)
	var recorded atomic.Int64
	if err := rc.Frames.AddJobToFrame(recordFrameJob(rc, &recorded)); err != nil {
		t.Fatal(err)
	}
	if err := rc.Frames.AddJobToFrame(func(*frame.PerFrameResource) error { return boom }); err != nil {
		t.Fatal(err)
	}
	rc.Frames.EndJobSubmission(func(uint32) { presented.Add(1) })

	if err := rc.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if presented.Load() != 1 {
		t.Fatalf("frame was not presented after a failing job")
	}
	if stats := rc.Jobs.Stats(rc.Frames.CurrentBin()); stats.Failed != 1 {
		t.Fatalf("failed jobs = %d, want 1", stats.Failed)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	rc := newTestContext(t, testConfig())
	if err := rc.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := rc.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := rc.Frames.AddJobToFrame(func(*frame.PerFrameResource) error { return nil }); err == nil {
		t.Fatal("expected error adding a job after shutdown")
	}
}

func TestNewRenderContextRejectsBadWorkerCount(t *testing.T) {
	cfg := testConfig()
	cfg.Workers.Count = 0
	device := null.NewDevice(null.DeviceOptions{})
	defer device.Destroy()

	if _, err := NewRenderContext(device, cfg); !errors.Is(err, core.ErrNoWorkers) {
		t.Fatalf("expected ErrNoWorkers, got %v", err)
	}
}

func TestParseRendererType(t *testing.T) {
	if rt, err := ParseRendererType("vulkan"); err != nil || rt != Vulkan {
		t.Fatalf("vulkan: %v %v", rt, err)
	}
	if rt, err := ParseRendererType("null"); err != nil || rt != Null {
		t.Fatalf("null: %v %v", rt, err)
	}
	if _, err := ParseRendererType("metal"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
