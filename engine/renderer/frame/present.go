package frame

import (
	"time"

	"github.com/spaghettifunk/framebin/engine/containers"
)

// presentInOrder presents every ready bin starting at the current present
// bin and stops at the first one that is not ready. Bins that become ready
// out of turn wait until the walk reaches them. Caller holds m.mu.
func (m *Manager) presentInOrder(bin uint32) {
	if bin != m.currentPresentBin {
		return
	}
	for i := m.currentPresentBin; ; i = containers.WrapIndex(i, m.binCount) {
		b := m.bins[i]
		if !b.status.waitForPresent {
			m.currentPresentBin = i
			return
		}
		if b.status.callback != nil {
			b.status.callback(b.frameIndex)
		}
		b.status.reset()
		m.recordPresent(b)
	}
}

func (m *Manager) recordPresent(b *frameBin) {
	now := time.Now()
	var sincePrev time.Duration
	if !m.lastPresent.IsZero() {
		sincePrev = now.Sub(m.lastPresent)
	}
	m.lastPresent = now
	m.metrics.FramePresented(now.Sub(b.openedAt), sincePrev)
}
