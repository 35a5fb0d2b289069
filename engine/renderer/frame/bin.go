package frame

import (
	"time"

	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

// PresentFunc is invoked with the application frame index of a bin once the
// bin is next in presentation order.
type PresentFunc func(frameIndex uint32)

// JobFunc records work for a frame bin into the calling worker's own
// PerFrameResource.
type JobFunc func(res *PerFrameResource) error

// WorkerPool runs jobs tagged with a frame bin. Implementations must call
// Manager.JobDone exactly once per job added.
type WorkerPool interface {
	AddJob(fn JobFunc, bin uint32) error
	// WaitForDrain blocks until no job tagged with bin is outstanding,
	// including its JobDone callback.
	WaitForDrain(bin uint32)
}

// SubmissionInfo is one deferred queue submission. It is not modified after
// being cached.
type SubmissionInfo struct {
	Queue            metadata.Queue
	CommandBuffers   []*CommandBuffer
	WaitSemaphores   []metadata.Semaphore
	WaitStages       []metadata.PipelineStageFlags
	SignalSemaphores []metadata.Semaphore
	WaitIdle         bool
}

func (s *SubmissionInfo) rawCommandBuffers() []metadata.CommandBuffer {
	raw := make([]metadata.CommandBuffer, len(s.CommandBuffers))
	for i, cb := range s.CommandBuffers {
		raw[i] = cb.CommandBuffer
	}
	return raw
}

type jobStatus struct {
	numJobs         uint32
	submissionEnded bool
	waitForPresent  bool
	callback        PresentFunc
}

func (s *jobStatus) reset() {
	s.numJobs = 0
	s.submissionEnded = false
	s.waitForPresent = false
	s.callback = nil
}

type frameBin struct {
	index uint32

	fence        metadata.Fence
	acquireDone  metadata.Semaphore
	renderDone   metadata.Semaphore
	fencePending bool

	frameIndex uint32
	status     jobStatus

	pending   []SubmissionInfo
	committed []SubmissionInfo
	resources []*PerFrameResource

	// first submit failure of the last flush, reported on recycle
	submitErr error
	openedAt  time.Time
}

func (b *frameBin) idle() bool {
	return b.status.numJobs == 0 && !b.status.submissionEnded && !b.status.waitForPresent && len(b.pending) == 0
}
