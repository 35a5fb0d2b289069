package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/frame"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

// FrameHost is the side of the frame manager the job system reports to.
type FrameHost interface {
	BinCount() uint32
	AllocateResource(bin uint32) (*frame.PerFrameResource, error)
	JobDone(bin uint32)
}

type jobTask struct {
	fn  frame.JobFunc
	bin uint32
}

// JobSystem runs frame jobs on a fixed set of goroutines. Every job is tagged
// with a frame bin; each worker records into its own PerFrameResource for
// that bin, so a command pool is never shared between goroutines.
type JobSystem struct {
	numWorkers int
	host       FrameHost
	jobQueue   chan jobTask
	wg         sync.WaitGroup

	// held for reading while sending so Shutdown never closes under a sender
	sendMu sync.RWMutex
	closed bool

	mu    sync.Mutex
	cond  *sync.Cond
	stats []metadata.JobStats
}

func NewJobSystem(numWorkers int, queueSize int, host FrameHost) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, core.ErrNoWorkers
	}
	if queueSize < 0 {
		return nil, core.ErrNegativeQueueSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		host:       host,
		jobQueue:   make(chan jobTask, queueSize),
		stats:      make([]metadata.JobStats, host.BinCount()),
	}
	js.cond = sync.NewCond(&js.mu)

	js.start()
	core.LogDebug("job system started with %d workers", numWorkers)

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go js.work(i)
	}
}

func (js *JobSystem) work(worker int) {
	defer js.wg.Done()
	// one resource per bin, touched only by this goroutine
	resources := make([]*frame.PerFrameResource, len(js.stats))

	for job := range js.jobQueue {
		err := js.run(job, resources)
		if err != nil {
			core.LogError("worker %d: job for frame bin %d failed: %s", worker, job.bin, err)
		}

		js.host.JobDone(job.bin)
		js.finish(job.bin, err)
	}
}

func (js *JobSystem) run(job jobTask, resources []*frame.PerFrameResource) error {
	res := resources[job.bin]
	if res == nil {
		var err error
		if res, err = js.host.AllocateResource(job.bin); err != nil {
			return fmt.Errorf("allocate per-frame resource: %w", err)
		}
		resources[job.bin] = res
	}
	return job.fn(res)
}

func (js *JobSystem) finish(bin uint32, err error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	s := &js.stats[bin]
	s.Outstanding--
	s.Completed++
	if err != nil {
		s.Failed++
	}
	if s.Outstanding == 0 {
		js.cond.Broadcast()
	}
}

// AddJob queues fn for bin. It blocks while the queue is full.
func (js *JobSystem) AddJob(fn frame.JobFunc, bin uint32) error {
	if int(bin) >= len(js.stats) {
		return fmt.Errorf("add job for bin %d: %w", bin, core.ErrBinOutOfRange)
	}

	js.sendMu.RLock()
	defer js.sendMu.RUnlock()
	if js.closed {
		return core.ErrPoolClosed
	}

	js.mu.Lock()
	js.stats[bin].Outstanding++
	js.mu.Unlock()

	js.jobQueue <- jobTask{fn: fn, bin: bin}
	return nil
}

// WaitForDrain blocks until every job queued for bin has run and reported
// back to the host.
func (js *JobSystem) WaitForDrain(bin uint32) {
	if int(bin) >= len(js.stats) {
		return
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	for js.stats[bin].Outstanding > 0 {
		js.cond.Wait()
	}
}

func (js *JobSystem) Stats(bin uint32) metadata.JobStats {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.stats[bin]
}

/**
 * @brief Shuts the job system down. Queued jobs still run.
 */
func (js *JobSystem) Shutdown() error {
	js.sendMu.Lock()
	if js.closed {
		js.sendMu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.sendMu.Unlock()

	js.wg.Wait()
	return nil
}
