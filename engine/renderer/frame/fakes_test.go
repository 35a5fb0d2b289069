package frame

import (
	"errors"
	"sync"
	"time"

	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

// events is a shared, ordered log of what the fakes saw.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

func (e *events) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeFence struct {
	mu       sync.Mutex
	signaled chan struct{}
	resets   int
	waits    int
	// called when a Wait starts
	onWait func()
}

func newFakeFence(signaled bool) *fakeFence {
	f := &fakeFence{signaled: make(chan struct{})}
	if signaled {
		close(f.signaled)
	}
	return f
}

func (f *fakeFence) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	select {
	case <-f.signaled:
		f.signaled = make(chan struct{})
	default:
	}
	return nil
}

func (f *fakeFence) Signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.signaled:
	default:
		close(f.signaled)
	}
}

func (f *fakeFence) Signaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.signaled:
		return true
	default:
		return false
	}
}

func (f *fakeFence) Wait(timeout time.Duration) error {
	f.mu.Lock()
	f.waits++
	onWait := f.onWait
	ch := f.signaled
	f.mu.Unlock()

	if onWait != nil {
		onWait()
	}
	if timeout <= 0 {
		<-ch
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-time.After(timeout):
		return core.ErrFenceTimeout
	}
}

func (f *fakeFence) Destroy() {}

type fakeSemaphore struct{ name string }

func (s *fakeSemaphore) Destroy() {}

type fakeCommandBuffer struct {
	resets int
}

func (c *fakeCommandBuffer) Begin() error { return nil }
func (c *fakeCommandBuffer) End() error   { return nil }
func (c *fakeCommandBuffer) Reset()       { c.resets++ }

type fakeCommandPool struct {
	allocated int
	resets    int
	destroyed bool
	resetErr  error
}

func (p *fakeCommandPool) Allocate() (metadata.CommandBuffer, error) {
	p.allocated++
	return &fakeCommandBuffer{}, nil
}

func (p *fakeCommandPool) Reset() error {
	p.resets++
	return p.resetErr
}

func (p *fakeCommandPool) Destroy() { p.destroyed = true }

type fakeDescriptorPool struct {
	resets int
}

func (p *fakeDescriptorPool) Reset() error {
	p.resets++
	return nil
}

func (p *fakeDescriptorPool) Destroy() {}

type submitCall struct {
	cmdBuffers []metadata.CommandBuffer
	waitSems   []metadata.Semaphore
	signalSems []metadata.Semaphore
	fence      metadata.Fence
	waitIdle   bool
}

type fakeQueue struct {
	mu     sync.Mutex
	ev     *events
	calls  []submitCall
	failOn int // 1-based call number that fails, 0 never
	// signal fences handed to Submit immediately
	autoSignal bool
}

var errSubmit = errors.New("submit failed")

func (q *fakeQueue) Submit(cmdBuffers []metadata.CommandBuffer, waitSemaphores []metadata.Semaphore, waitStages []metadata.PipelineStageFlags, signalSemaphores []metadata.Semaphore, fence metadata.Fence, waitIdle bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, submitCall{cmdBuffers, waitSemaphores, signalSemaphores, fence, waitIdle})
	if q.ev != nil {
		q.ev.add("submit")
	}
	if q.failOn == len(q.calls) {
		return errSubmit
	}
	if fence != nil && q.autoSignal {
		fence.(*fakeFence).Signal()
	}
	return nil
}

func (q *fakeQueue) WaitIdle() error { return nil }

func (q *fakeQueue) submits() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

type fakeDevice struct {
	queue     *fakeQueue
	fences    []*fakeFence
	cmdPools  []*fakeCommandPool
	descPools []*fakeDescriptorPool
	waitIdles int
	failPools bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{queue: &fakeQueue{ev: &events{}, autoSignal: true}}
}

func (d *fakeDevice) CreateFence(signaled bool) (metadata.Fence, error) {
	f := newFakeFence(signaled)
	d.fences = append(d.fences, f)
	return f, nil
}

func (d *fakeDevice) CreateSemaphore() (metadata.Semaphore, error) {
	return &fakeSemaphore{}, nil
}

func (d *fakeDevice) CreateCommandPool() (metadata.CommandPool, error) {
	if d.failPools {
		return nil, errors.New("out of device memory")
	}
	p := &fakeCommandPool{}
	d.cmdPools = append(d.cmdPools, p)
	return p, nil
}

func (d *fakeDevice) CreateDescriptorPool(sizes []metadata.DescriptorPoolSize, maxSets uint32) (metadata.DescriptorPool, error) {
	p := &fakeDescriptorPool{}
	d.descPools = append(d.descPools, p)
	return p, nil
}

func (d *fakeDevice) GraphicsQueue() metadata.Queue { return d.queue }

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	return nil
}

func (d *fakeDevice) Destroy() {}

type queuedJob struct {
	fn  JobFunc
	bin uint32
}

// manualPool holds jobs until the test runs them.
type manualPool struct {
	mu     sync.Mutex
	jobs   []queuedJob
	drains []uint32
	err    error
}

func (p *manualPool) AddJob(fn JobFunc, bin uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, queuedJob{fn, bin})
	return nil
}

func (p *manualPool) WaitForDrain(bin uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drains = append(p.drains, bin)
}

func (p *manualPool) take(i int) queuedJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobs[i]
}
