package frame

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/framebin/engine/containers"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

type Options struct {
	// Number of frame bins in the ring. Must be at least 2.
	BinCount uint32
	// Upper bound for a single fence wait. Zero waits without bound.
	FenceTimeout time.Duration
	// Pool sizes for the descriptor pool of every PerFrameResource.
	DescriptorPoolSizes []metadata.DescriptorPoolSize
	MaxDescriptorSets   uint32
}

func DefaultOptions() Options {
	return Options{
		BinCount:     3,
		FenceTimeout: 0,
		DescriptorPoolSizes: []metadata.DescriptorPoolSize{
			{Type: metadata.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Count: 2},
			{Type: metadata.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, Count: 2},
		},
		MaxDescriptorSets: 10,
	}
}

// Manager maps an ever increasing frame counter onto a fixed ring of frame
// bins and keeps a bin from being reused before the GPU is done with it.
// Submissions are cached per bin and flushed once every job of the bin has
// finished, and frames are presented strictly in the order they were opened.
type Manager struct {
	mu sync.Mutex

	device  metadata.Device
	opts    Options
	workers WorkerPool
	metrics *core.FrameMetrics

	bins              []*frameBin
	binCount          uint32
	currentBin        uint32
	currentPresentBin uint32
	lastPresent       time.Time
}

func NewManager(device metadata.Device, opts Options) (*Manager, error) {
	if opts.BinCount < 2 {
		return nil, core.ErrInvalidBinCount
	}
	m := &Manager{
		device:   device,
		opts:     opts,
		metrics:  core.NewFrameMetrics(),
		bins:     make([]*frameBin, 0, opts.BinCount),
		binCount: opts.BinCount,
	}

	for i := uint32(0); i < opts.BinCount; i++ {
		b, err := m.createBin(i)
		if err != nil {
			m.Destroy()
			return nil, err
		}
		m.bins = append(m.bins, b)
	}
	m.bins[0].openedAt = time.Now()

	core.LogDebug("frame manager created with %d bins", opts.BinCount)
	return m, nil
}

func (m *Manager) createBin(index uint32) (*frameBin, error) {
	b := &frameBin{index: index}
	var err error
	// Signaled so the first wait on a bin that never ran returns at once.
	if b.fence, err = m.device.CreateFence(true); err != nil {
		return nil, fmt.Errorf("create fence for frame bin %d: %w", index, err)
	}
	if b.acquireDone, err = m.device.CreateSemaphore(); err != nil {
		b.fence.Destroy()
		return nil, fmt.Errorf("create acquire semaphore for frame bin %d: %w", index, err)
	}
	if b.renderDone, err = m.device.CreateSemaphore(); err != nil {
		b.acquireDone.Destroy()
		b.fence.Destroy()
		return nil, fmt.Errorf("create render semaphore for frame bin %d: %w", index, err)
	}
	return b, nil
}

// BindWorkers sets the pool AddJobToFrame dispatches to and AdvanceBin drains.
func (m *Manager) BindWorkers(pool WorkerPool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = pool
}

func (m *Manager) BinCount() uint32 {
	return m.binCount
}

func (m *Manager) Metrics() *core.FrameMetrics {
	return m.metrics
}

func (m *Manager) CurrentBin() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentBin
}

// PresentBin is the oldest bin that has not been presented yet.
func (m *Manager) PresentBin() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentPresentBin
}

func (m *Manager) CurrentFrameIndex() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bins[m.currentBin].frameIndex
}

func (m *Manager) FrameIndex(bin uint32) uint32 {
	core.Assert(bin < m.binCount, "frame bin %d out of range [0, %d)", bin, m.binCount)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bins[bin].frameIndex
}

// SetFrameIndex records which application frame the current bin holds.
func (m *Manager) SetFrameIndex(index uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bins[m.currentBin].frameIndex = index
}

func (m *Manager) Fence(bin uint32) metadata.Fence {
	core.Assert(bin < m.binCount, "frame bin %d out of range [0, %d)", bin, m.binCount)
	return m.bins[bin].fence
}

func (m *Manager) AcquireDoneSemaphore(bin uint32) metadata.Semaphore {
	core.Assert(bin < m.binCount, "frame bin %d out of range [0, %d)", bin, m.binCount)
	return m.bins[bin].acquireDone
}

func (m *Manager) RenderDoneSemaphore(bin uint32) metadata.Semaphore {
	core.Assert(bin < m.binCount, "frame bin %d out of range [0, %d)", bin, m.binCount)
	return m.bins[bin].renderDone
}

// AllocateResource creates a PerFrameResource for bin and adds it to the
// bin's table. An out of range bin returns ErrBinOutOfRange and changes
// nothing.
func (m *Manager) AllocateResource(bin uint32) (*PerFrameResource, error) {
	if bin >= m.binCount {
		return nil, fmt.Errorf("allocate resource for bin %d: %w", bin, core.ErrBinOutOfRange)
	}
	if m.isDestroyed() {
		return nil, fmt.Errorf("allocate resource for bin %d: %w", bin, core.ErrManagerDestroyed)
	}
	res, err := newPerFrameResource(m.device, bin, m.opts.DescriptorPoolSizes, m.opts.MaxDescriptorSets)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bins == nil {
		res.Destroy()
		return nil, fmt.Errorf("allocate resource for bin %d: %w", bin, core.ErrManagerDestroyed)
	}
	m.bins[bin].resources = append(m.bins[bin].resources, res)
	return res, nil
}

// AdvanceBin moves to the next bin. It is called once at the start of every
// frame, before any work is dispatched. On return the bin after the new
// current one has no outstanding jobs, its GPU work has completed and its
// resources have been reset.
func (m *Manager) AdvanceBin() error {
	m.mu.Lock()
	if m.bins == nil {
		m.mu.Unlock()
		return core.ErrManagerDestroyed
	}
	left := m.currentBin
	m.currentBin = containers.WrapIndex(m.currentBin, m.binCount)
	m.bins[m.currentBin].openedAt = time.Now()
	if left == m.currentPresentBin && m.bins[left].idle() {
		// nothing was dispatched to the bin just left, so it has nothing to present
		m.currentPresentBin = m.currentBin
	}
	oldest := containers.WrapIndex(m.currentBin, m.binCount)
	workers := m.workers
	// Workers take the lock from JobDone, so it must not be held while
	// waiting on them.
	m.mu.Unlock()

	if workers != nil {
		workers.WaitForDrain(oldest)
	}
	return m.WaitForGPUWork(oldest)
}

// WaitForGPUWork blocks until the last flushed batch of bin has completed on
// the GPU, then drops its committed submissions and resets its resources.
func (m *Manager) WaitForGPUWork(bin uint32) error {
	if bin >= m.binCount {
		return fmt.Errorf("wait for bin %d: %w", bin, core.ErrBinOutOfRange)
	}
	m.mu.Lock()
	if m.bins == nil {
		m.mu.Unlock()
		return fmt.Errorf("wait for bin %d: %w", bin, core.ErrManagerDestroyed)
	}
	b := m.bins[bin]
	pending := b.fencePending
	submitErr := b.submitErr
	m.mu.Unlock()

	if pending {
		start := time.Now()
		if err := b.fence.Wait(m.opts.FenceTimeout); err != nil {
			core.LogError("fence wait for frame bin %d failed: %s", bin, err)
			return fmt.Errorf("wait for bin %d: %w", bin, err)
		}
		m.metrics.FenceWaited(time.Since(start))
	} else if submitErr != nil {
		// Part of the batch may have reached the GPU without the fence.
		if err := m.device.WaitIdle(); err != nil {
			return fmt.Errorf("wait for bin %d: %w", bin, err)
		}
	}

	m.mu.Lock()
	b.fencePending = false
	b.submitErr = nil
	b.committed = nil
	resources := append([]*PerFrameResource(nil), b.resources...)
	m.mu.Unlock()

	var errs []error
	if submitErr != nil {
		errs = append(errs, fmt.Errorf("frame bin %d submission failed: %w", bin, submitErr))
	}
	for _, r := range resources {
		if err := r.Reset(); err != nil {
			core.LogError("failed to reset resource %s of frame bin %d: %s", r.ID, bin, err)
			errs = append(errs, fmt.Errorf("recycle bin %d: %w", bin, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) isDestroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bins == nil
}

// AddJobToFrame dispatches fn to the worker pool tagged with the current bin.
func (m *Manager) AddJobToFrame(fn JobFunc) error {
	m.mu.Lock()
	if m.workers == nil {
		m.mu.Unlock()
		return core.ErrNoWorkerPool
	}
	bin := m.currentBin
	m.bins[bin].status.numJobs++
	workers := m.workers
	m.mu.Unlock()

	// Enqueueing may block on a full queue while workers need the lock.
	if err := workers.AddJob(fn, bin); err != nil {
		m.mu.Lock()
		m.bins[bin].status.numJobs--
		m.flushCachedSubmission(bin)
		m.mu.Unlock()
		return fmt.Errorf("add job to frame bin %d: %w", bin, err)
	}
	return nil
}

// JobDone is called by the worker pool once per finished job.
func (m *Manager) JobDone(bin uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	core.Assert(bin < m.binCount, "JobDone: frame bin %d out of range [0, %d)", bin, m.binCount)
	b := m.bins[bin]
	core.Assert(b.status.numJobs > 0, "JobDone: frame bin %d has no outstanding jobs", bin)
	b.status.numJobs--
	m.flushCachedSubmission(bin)
}

// Destroy releases every GPU object owned by the manager. The device must be
// idle.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = nil
	for _, b := range m.bins {
		for _, r := range b.resources {
			r.Destroy()
		}
		b.resources = nil
		b.pending = nil
		b.committed = nil
		b.renderDone.Destroy()
		b.acquireDone.Destroy()
		b.fence.Destroy()
	}
	m.bins = nil
}
