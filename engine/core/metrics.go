package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// FrameMetrics accumulates frame pacing numbers for one frame manager.
// All methods are safe for concurrent use.
type FrameMetrics struct {
	mu sync.Mutex

	frameAVGCounter uint8
	latencies       [AVG_COUNT]time.Duration
	latencyAVG      time.Duration

	windowFrames int32
	windowTime   time.Duration
	fps          float64

	presented     uint64
	batches       uint64
	submissions   uint64
	fenceWaits    uint64
	fenceWaitTime time.Duration
}

type MetricsSnapshot struct {
	FramesPresented   uint64
	SubmitBatches     uint64
	Submissions       uint64
	FenceWaits        uint64
	FenceWaitTime     time.Duration
	AvgPresentLatency time.Duration
	FPS               float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

// FramePresented records one presented frame. latency is the time between the
// frame's bin being opened and its present callback firing; sincePrev is the
// time since the previous presentation.
func (m *FrameMetrics) FramePresented(latency, sincePrev time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latencies[m.frameAVGCounter] = latency
	if m.frameAVGCounter == AVG_COUNT-1 {
		var sum time.Duration
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += m.latencies[i]
		}
		m.latencyAVG = sum / time.Duration(AVG_COUNT)
	}
	m.frameAVGCounter++
	m.frameAVGCounter %= AVG_COUNT

	m.windowTime += sincePrev
	m.windowFrames++
	if m.windowTime > time.Second {
		m.fps = float64(m.windowFrames) / m.windowTime.Seconds()
		m.windowTime = 0
		m.windowFrames = 0
	}

	m.presented++
}

func (m *FrameMetrics) BatchSubmitted(submissions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	m.submissions += uint64(submissions)
}

func (m *FrameMetrics) FenceWaited(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fenceWaits++
	m.fenceWaitTime += d
}

func (m *FrameMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		FramesPresented:   m.presented,
		SubmitBatches:     m.batches,
		Submissions:       m.submissions,
		FenceWaits:        m.fenceWaits,
		FenceWaitTime:     m.fenceWaitTime,
		AvgPresentLatency: m.latencyAVG,
		FPS:               m.fps,
	}
}
