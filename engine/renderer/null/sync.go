package null

import (
	"sync"
	"time"

	"github.com/spaghettifunk/framebin/engine/core"
)

type Fence struct {
	mu       sync.Mutex
	signaled chan struct{}
}

func newFence(signaled bool) *Fence {
	f := &Fence{signaled: make(chan struct{})}
	if signaled {
		close(f.signaled)
	}
	return f
}

func (f *Fence) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.signaled:
		f.signaled = make(chan struct{})
	default:
	}
	return nil
}

func (f *Fence) signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.signaled:
	default:
		close(f.signaled)
	}
}

func (f *Fence) Signaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.signaled:
		return true
	default:
		return false
	}
}

func (f *Fence) Wait(timeout time.Duration) error {
	f.mu.Lock()
	ch := f.signaled
	f.mu.Unlock()

	if timeout <= 0 {
		<-ch
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return nil
	case <-t.C:
		return core.ErrFenceTimeout
	}
}

func (f *Fence) Destroy() {}

// Semaphore carries no state: the null queue executes in submission order,
// which already satisfies every wait.
type Semaphore struct {
	id uint64
}

func (s *Semaphore) Destroy() {}
