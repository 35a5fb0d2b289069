package null

import (
	"errors"
	"sync"

	"github.com/spaghettifunk/framebin/engine/renderer/metadata"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
)

var (
	ErrNotRecording  = errors.New("command buffer is not recording")
	ErrNotExecutable = errors.New("command buffer has not finished recording")
)

type CommandBuffer struct {
	mu    sync.Mutex
	state CommandBufferState
}

func (c *CommandBuffer) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (c *CommandBuffer) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != COMMAND_BUFFER_STATE_RECORDING {
		return ErrNotRecording
	}
	c.state = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (c *CommandBuffer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = COMMAND_BUFFER_STATE_READY
}

func (c *CommandBuffer) State() CommandBufferState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *CommandBuffer) markSubmitted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != COMMAND_BUFFER_STATE_RECORDING_ENDED {
		return ErrNotExecutable
	}
	c.state = COMMAND_BUFFER_STATE_SUBMITTED
	return nil
}

type CommandPool struct {
	buffers []*CommandBuffer
	resets  int
}

func (p *CommandPool) Allocate() (metadata.CommandBuffer, error) {
	cb := &CommandBuffer{}
	p.buffers = append(p.buffers, cb)
	return cb, nil
}

func (p *CommandPool) Reset() error {
	for _, cb := range p.buffers {
		cb.Reset()
	}
	p.resets++
	return nil
}

func (p *CommandPool) Destroy() {
	p.buffers = nil
}

type DescriptorPool struct {
	maxSets uint32
	resets  int
}

func (p *DescriptorPool) Reset() error {
	p.resets++
	return nil
}

func (p *DescriptorPool) Destroy() {}
