package null

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/framebin/engine/containers"
	"github.com/spaghettifunk/framebin/engine/core"
	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

var ErrForeignHandle = errors.New("handle was not created by the null device")

type batch struct {
	buffers []*CommandBuffer
	fence   *Fence
}

// Queue executes submitted batches in order on a single goroutine. Every
// batch takes the configured latency to "run" before its fence signals.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *containers.RingQueue[*batch]
	busy    bool
	closed  bool
	latency time.Duration

	submitted uint64
	executed  uint64

	done chan struct{}
}

func newQueue(depth int, latency time.Duration) *Queue {
	q := &Queue{
		pending: containers.NewRingQueue[*batch](depth),
		latency: latency,
		done:    make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *Queue) Submit(
	cmdBuffers []metadata.CommandBuffer,
	waitSemaphores []metadata.Semaphore,
	waitStages []metadata.PipelineStageFlags,
	signalSemaphores []metadata.Semaphore,
	fence metadata.Fence,
	waitIdle bool,
) error {
	if len(waitSemaphores) != len(waitStages) {
		return fmt.Errorf("null queue: %d wait semaphores but %d wait stages", len(waitSemaphores), len(waitStages))
	}
	if !ownsSemaphores(waitSemaphores) || !ownsSemaphores(signalSemaphores) {
		return ErrForeignHandle
	}

	b := &batch{buffers: make([]*CommandBuffer, 0, len(cmdBuffers))}
	if fence != nil {
		nf, ok := fence.(*Fence)
		if !ok {
			return ErrForeignHandle
		}
		b.fence = nf
	}
	for _, cb := range cmdBuffers {
		nc, ok := cb.(*CommandBuffer)
		if !ok {
			return ErrForeignHandle
		}
		b.buffers = append(b.buffers, nc)
	}
	for _, nc := range b.buffers {
		if err := nc.markSubmitted(); err != nil {
			return err
		}
	}

	q.mu.Lock()
	for !q.closed && q.pending.IsFull() {
		q.cond.Wait()
	}
	if q.closed {
		q.mu.Unlock()
		return core.ErrDeviceLost
	}
	// Enqueue cannot fail here, the loop above waited for room.
	_ = q.pending.Enqueue(b)
	q.submitted++
	q.cond.Broadcast()
	q.mu.Unlock()

	if waitIdle {
		return q.WaitIdle()
	}
	return nil
}

func (q *Queue) WaitIdle() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.closed && (q.busy || !q.pending.IsEmpty()) {
		q.cond.Wait()
	}
	return nil
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for !q.closed && q.pending.IsEmpty() {
			q.cond.Wait()
		}
		if q.closed && q.pending.IsEmpty() {
			q.mu.Unlock()
			return
		}
		b, _ := q.pending.Dequeue()
		q.busy = true
		q.cond.Broadcast()
		q.mu.Unlock()

		if q.latency > 0 {
			time.Sleep(q.latency)
		}
		if b.fence != nil {
			b.fence.signal()
		}

		q.mu.Lock()
		q.busy = false
		q.executed++
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

// Counts reports how many batches were accepted and how many finished.
func (q *Queue) Counts() (submitted, executed uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.submitted, q.executed
}

func (q *Queue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}

func ownsSemaphores(sems []metadata.Semaphore) bool {
	for _, s := range sems {
		if _, ok := s.(*Semaphore); !ok {
			return false
		}
	}
	return true
}
