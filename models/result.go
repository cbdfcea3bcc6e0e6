package models

import (
	"fmt"
	"strings"
	"time"
)

// ImageResult represents the outcome of assembling a single image.
//
// It enforces logical consistency: successful results carry no error,
// failed results must carry one. Use NewImageResultSuccess or
// NewImageResultFailure to create validated instances.
type ImageResult struct {
	Path     string  `json:"path"`
	Success  bool    `json:"success"`
	Duration float64 `json:"duration"`
	Error    error   `json:"-"`
	ErrorMsg string  `json:"error,omitempty"`
}

// NewImageResultSuccess creates a successful ImageResult for a clip of the
// given duration.
func NewImageResultSuccess(path string, duration float64) (*ImageResult, error) {
	ir := &ImageResult{
		Path:     path,
		Success:  true,
		Duration: duration,
	}
	if err := ir.Validate(); err != nil {
		return nil, fmt.Errorf("invalid image result: %w", err)
	}
	return ir, nil
}

// NewImageResultFailure creates a failed ImageResult. The error must not be nil.
func NewImageResultFailure(path string, cause error) (*ImageResult, error) {
	if cause == nil {
		return nil, fmt.Errorf("invalid image result: error cannot be nil for failed result")
	}
	return &ImageResult{
		Path:     path,
		Success:  false,
		Error:    cause,
		ErrorMsg: cause.Error(),
	}, nil
}

// Validate checks if the ImageResult has consistent state.
func (ir *ImageResult) Validate() error {
	if strings.TrimSpace(ir.Path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if ir.Success && ir.Error != nil {
		return fmt.Errorf("inconsistent state: Success is true but Error is not nil")
	}
	if !ir.Success && ir.Error == nil {
		return fmt.Errorf("failed result must have an error")
	}
	if ir.Success && ir.Duration <= 0 {
		return fmt.Errorf("duration must be positive for successful result")
	}
	return nil
}

// BatchStatus describes what happened to a batch.
type BatchStatus string

const (
	BatchStatusEncoded BatchStatus = "encoded" // Output file written
	BatchStatusSkipped BatchStatus = "skipped" // No image could be processed
	BatchStatusFailed  BatchStatus = "failed"  // Audio load or encode failed
	BatchStatusPlanned BatchStatus = "planned" // Dry run, nothing written
)

// BatchResult represents the outcome of processing one batch.
type BatchResult struct {
	Index            int            `json:"index"`
	Status           BatchStatus    `json:"status"`
	OutputPath       string         `json:"output_path,omitempty"`
	SegmentDuration  float64        `json:"segment_duration"`
	AudioDuration    float64        `json:"audio_duration"`
	VerifiedDuration float64        `json:"verified_duration,omitempty"`
	SizeBytes        int64          `json:"size_bytes,omitempty"`
	Elapsed          time.Duration  `json:"elapsed"`
	Images           []*ImageResult `json:"images"`
	Warnings         []string       `json:"warnings,omitempty"`
	Command          string         `json:"command,omitempty"` // ffmpeg command line, dry run only
	Error            error          `json:"-"`
	ErrorMsg         string         `json:"error,omitempty"`
}

// SetError records err on the result and marks it with status.
func (br *BatchResult) SetError(status BatchStatus, err error) {
	br.Status = status
	br.Error = err
	if err != nil {
		br.ErrorMsg = err.Error()
	}
}

// Succeeded returns the number of images that made it into the segment.
func (br *BatchResult) Succeeded() int {
	n := 0
	for _, ir := range br.Images {
		if ir.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of images that were skipped.
func (br *BatchResult) Failed() int {
	return len(br.Images) - br.Succeeded()
}

// Validate checks if the BatchResult has consistent state.
//
// Returns an error if:
//   - Status is encoded but OutputPath is empty
//   - Status is failed but Error is nil
//   - Status is not a known value
func (br *BatchResult) Validate() error {
	switch br.Status {
	case BatchStatusEncoded, BatchStatusPlanned:
		if strings.TrimSpace(br.OutputPath) == "" {
			return fmt.Errorf("output_path cannot be empty for %s batch", br.Status)
		}
	case BatchStatusFailed:
		if br.Error == nil {
			return fmt.Errorf("failed batch must have an error")
		}
	case BatchStatusSkipped:
	default:
		return fmt.Errorf("unknown batch status %q", br.Status)
	}
	return nil
}
