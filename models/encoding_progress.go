package models

import (
	"fmt"
	"time"
)

// EncodingProgress represents real-time encoding metrics reported by ffmpeg
// while a segment is being written.
type EncodingProgress struct {
	// Current position in the output
	Frame       int64   // Frames written so far
	FPS         float64 // Frames per second being processed
	CurrentTime string  // Current output timestamp (HH:MM:SS.micro)

	// Performance metrics
	Bitrate string  // Current bitrate (e.g., "8012.3kbits/s")
	Speed   float64 // Encoding speed multiplier (e.g., 2.34 means 2.34x realtime)

	// Size information
	Size string // Current output file size (e.g., "1024kB")

	// Progress calculation
	TotalDuration float64 // Segment duration in seconds
	TotalFrames   int64   // Frames the segment will contain
	Progress      float64 // Percentage complete (0-100)

	// Metadata
	State     ProgressState // Current state of encoding
	StartTime time.Time     // When encoding started
	UpdatedAt time.Time     // Last update timestamp
}

// ProgressState represents the current state of an encoding task
type ProgressState string

const (
	ProgressStateQueued    ProgressState = "queued"
	ProgressStateEncoding  ProgressState = "encoding"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
)

// ProgressCallback is a function that receives progress updates during encoding
type ProgressCallback func(progress *EncodingProgress)

// NewEncodingProgress creates a new progress tracker for a segment of the
// given duration and frame count.
func NewEncodingProgress(totalDuration float64, totalFrames int64) *EncodingProgress {
	now := time.Now()
	return &EncodingProgress{
		TotalDuration: totalDuration,
		TotalFrames:   totalFrames,
		State:         ProgressStateQueued,
		StartTime:     now,
		UpdatedAt:     now,
	}
}

// CalculateProgress updates the progress percentage based on current time
func (ep *EncodingProgress) CalculateProgress(currentSeconds float64) {
	if ep.TotalDuration > 0 {
		ep.Progress = (currentSeconds / ep.TotalDuration) * 100
		if ep.Progress > 100 {
			ep.Progress = 100
		}
	}
	ep.UpdatedAt = time.Now()
}

// EstimatedTimeRemaining calculates ETA based on current progress
func (ep *EncodingProgress) EstimatedTimeRemaining() time.Duration {
	if ep.Progress <= 0 {
		return 0
	}

	elapsed := ep.UpdatedAt.Sub(ep.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / (ep.Progress / 100))
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a human-readable summary of the progress
func (ep *EncodingProgress) FormatSummary() string {
	return fmt.Sprintf(
		"frame=%d/%d progress=%.1f%% speed=%.2fx bitrate=%s eta=%s",
		ep.Frame,
		ep.TotalFrames,
		ep.Progress,
		ep.Speed,
		ep.Bitrate,
		formatDuration(ep.EstimatedTimeRemaining()),
	)
}

// formatDuration converts a duration to a human-readable string
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
