package models

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete failures are *PipelineError values whose Kind is one
// of these sentinels, so callers can test them with errors.Is.
var (
	// ErrFatalInput marks a missing image directory or audio file at startup.
	ErrFatalInput = errors.New("required input missing")
	// ErrConfig marks an invalid configuration value or clip parameter.
	ErrConfig = errors.New("invalid configuration")
	// ErrDecode marks an image that could not be decoded or resized.
	ErrDecode = errors.New("image decode failed")
	// ErrAudioLoad marks an audio track that could not be loaded.
	ErrAudioLoad = errors.New("audio load failed")
	// ErrEncode marks an encoder invocation that failed or produced no output.
	ErrEncode = errors.New("encode failed")
	// ErrVerification marks a post-encode duration readback that failed or diverged.
	ErrVerification = errors.New("verification failed")
	// ErrEmptyBatch marks a batch in which no image could be processed.
	ErrEmptyBatch = errors.New("no images in batch could be processed")
)

// PipelineError carries the context needed to diagnose a failed unit of work.
type PipelineError struct {
	Kind  error  // One of the Err* sentinels above
	Path  string // File involved, if any
	Batch int    // 1-based batch index, 0 when not batch scoped
	Err   error  // Underlying cause, may be nil
}

// NewPipelineError wraps err with a kind and the file it concerns.
func NewPipelineError(kind error, path string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Path: path, Err: err}
}

// WithBatch returns the error tagged with a batch index.
func (e *PipelineError) WithBatch(index int) *PipelineError {
	e.Batch = index
	return e
}

func (e *PipelineError) Error() string {
	msg := e.Kind.Error()
	if e.Batch > 0 {
		msg = fmt.Sprintf("batch %d: %s", e.Batch, msg)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
