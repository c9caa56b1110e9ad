package domain

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound   = errors.New("job_not_found")
	ErrJobTimeout    = errors.New("job_timeout")
	ErrInvalidSource = errors.New("invalid_source")
	ErrInvalidJob    = errors.New("invalid_job")
	ErrQueueClosed   = errors.New("queue_closed")
)

// Pipeline stages reported by EngineError and metrics.
const (
	StageFetch    = "fetch"
	StageGenerate = "generate"
	StageUpscale  = "upscale"
)

// EngineError wraps a failure of an external engine at a pipeline stage.
type EngineError struct {
	Stage string
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error at %s: %v", e.Stage, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// StorageError wraps a failed storage operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
