package frame

import (
	"fmt"

	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

// CacheSubmission defers a queue submission until every job of the bin the
// command buffers were allocated from has finished. All command buffers must
// come from the same bin.
func (m *Manager) CacheSubmission(
	queue metadata.Queue,
	cmdBuffers []*CommandBuffer,
	waitSemaphores []metadata.Semaphore,
	waitStages []metadata.PipelineStageFlags,
	signalSemaphores []metadata.Semaphore,
	waitIdle bool,
) error {
	bin, err := m.resolveBin(cmdBuffers)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bins == nil {
		return core.ErrManagerDestroyed
	}
	m.cacheSubmissionLocked(bin, queue, cmdBuffers, waitSemaphores, waitStages, signalSemaphores, waitIdle)
	return nil
}

// CacheFrameSubmission is CacheSubmission waiting on the bin's acquire-done
// semaphore and signaling its render-done semaphore. Binary semaphores allow
// one wait per signal, so use it for at most one submission per frame and only
// when something signals acquire-done, such as a swapchain image acquire.
// Worker jobs recording in parallel use CacheSubmission without semaphores.
func (m *Manager) CacheFrameSubmission(
	queue metadata.Queue,
	cmdBuffers []*CommandBuffer,
	waitStages []metadata.PipelineStageFlags,
	waitIdle bool,
) error {
	bin, err := m.resolveBin(cmdBuffers)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bins == nil {
		return core.ErrManagerDestroyed
	}
	b := m.bins[bin]
	m.cacheSubmissionLocked(bin, queue, cmdBuffers,
		[]metadata.Semaphore{b.acquireDone}, waitStages,
		[]metadata.Semaphore{b.renderDone}, waitIdle)
	return nil
}

func (m *Manager) resolveBin(cmdBuffers []*CommandBuffer) (uint32, error) {
	if len(cmdBuffers) == 0 {
		return 0, core.ErrEmptySubmission
	}
	bin := cmdBuffers[0].Bin()
	if bin >= m.binCount {
		return 0, fmt.Errorf("cache submission for bin %d: %w", bin, core.ErrBinOutOfRange)
	}
	for i, cb := range cmdBuffers[1:] {
		if cb.Bin() != bin {
			core.LogError("command buffer %d belongs to frame bin %d, batch belongs to %d", i+1, cb.Bin(), bin)
			return 0, fmt.Errorf("cache submission for bin %d: %w", bin, core.ErrMixedBinSubmission)
		}
	}
	return bin, nil
}

func (m *Manager) cacheSubmissionLocked(
	bin uint32,
	queue metadata.Queue,
	cmdBuffers []*CommandBuffer,
	waitSemaphores []metadata.Semaphore,
	waitStages []metadata.PipelineStageFlags,
	signalSemaphores []metadata.Semaphore,
	waitIdle bool,
) {
	info := SubmissionInfo{
		Queue:            queue,
		CommandBuffers:   append([]*CommandBuffer(nil), cmdBuffers...),
		WaitSemaphores:   append([]metadata.Semaphore(nil), waitSemaphores...),
		WaitStages:       append([]metadata.PipelineStageFlags(nil), waitStages...),
		SignalSemaphores: append([]metadata.Semaphore(nil), signalSemaphores...),
		WaitIdle:         waitIdle,
	}
	m.bins[bin].pending = append(m.bins[bin].pending, info)
}

// EndJobSubmission declares that no more jobs will be added to the current
// bin and stores the callback that presents it. present runs with the
// manager's lock held and must not call back into the Manager.
func (m *Manager) EndJobSubmission(present PresentFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bins[m.currentBin]
	b.status.callback = present
	b.status.submissionEnded = true
	m.flushCachedSubmission(m.currentBin)
}

// flushCachedSubmission submits the pending batch of bin once its submission
// phase has ended and all of its jobs have finished, then hands the bin to the
// presentation walk. A bin with nothing cached is presented without touching
// the queue. Calling it again does nothing. Caller holds m.mu.
func (m *Manager) flushCachedSubmission(bin uint32) {
	b := m.bins[bin]
	if !b.status.submissionEnded || b.status.numJobs != 0 || b.status.waitForPresent {
		return
	}

	// An empty bin still presents, otherwise every later bin would wait on it.
	if len(b.pending) > 0 {
		if err := m.submitPending(b); err != nil {
			core.LogError("failed to flush frame bin %d: %s", bin, err)
			b.submitErr = err
		} else {
			b.fencePending = true
		}
		m.metrics.BatchSubmitted(len(b.pending))

		// Keep the batch referenced until the bin's fence has signaled.
		b.committed = append(b.committed, b.pending...)
		b.pending = nil
	}

	b.status.waitForPresent = true
	m.presentInOrder(bin)
}

// submitPending stops at the first failing submission. Only the last
// submission carries the fence, so it signals when the whole batch is done.
func (m *Manager) submitPending(b *frameBin) error {
	if err := b.fence.Reset(); err != nil {
		return fmt.Errorf("reset fence: %w", err)
	}
	last := len(b.pending) - 1
	for i := range b.pending {
		info := &b.pending[i]
		var fence metadata.Fence
		if i == last {
			fence = b.fence
		}
		if err := info.Queue.Submit(info.rawCommandBuffers(), info.WaitSemaphores, info.WaitStages, info.SignalSemaphores, fence, info.WaitIdle); err != nil {
			return fmt.Errorf("submission %d of %d: %w", i+1, len(b.pending), err)
		}
	}
	return nil
}
