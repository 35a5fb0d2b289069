package core

import (
	"errors"
)

var (
	ErrBinOutOfRange      = errors.New("frame bin index out of range")
	ErrInvalidBinCount    = errors.New("frame bin count must be at least 2")
	ErrEmptySubmission    = errors.New("submission has no command buffers")
	ErrMixedBinSubmission = errors.New("command buffers in one submission belong to different frame bins")
	ErrFenceTimeout       = errors.New("fence wait timed out")
	ErrDeviceLost         = errors.New("device lost")
	ErrPoolClosed         = errors.New("job system is shut down")
	ErrNoWorkers          = errors.New("attempting to create job system with less than 1 worker")
	ErrNegativeQueueSize  = errors.New("attempting to create job system with a negative queue size")
	ErrNoWorkerPool       = errors.New("frame manager has no worker pool bound")
	ErrManagerDestroyed   = errors.New("frame manager is destroyed")
)
