// Package clip models timed sources of frames: still images, the zoom
// transform and end-to-end concatenation.
package clip

import (
	"fmt"
	"math"

	"slideshow/frame"
	"slideshow/models"
)

// Clip is a finite source of frames. FrameAt is a pure function of t; the
// returned frame is owned by the clip and is only valid until the next call.
type Clip interface {
	Duration() float64
	Size() frame.Size
	FrameAt(t float64) (*frame.Frame, error)
	Close() error
}

// FrameCount returns how many frames a clip of the given duration occupies
// at fps. Frame i is sampled at t = i/fps.
func FrameCount(duration, fps float64) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Round(duration * fps))
}

// ImageClip holds a single still frame for a fixed duration.
type ImageClip struct {
	frame    *frame.Frame
	duration float64
	closed   bool
}

// NewImageClip wraps f as a clip of the given duration.
func NewImageClip(f *frame.Frame, duration float64) (*ImageClip, error) {
	if f == nil {
		return nil, models.NewPipelineError(models.ErrConfig, "", fmt.Errorf("image clip needs a frame"))
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, models.NewPipelineError(models.ErrConfig, "", fmt.Errorf("clip duration must be positive, got %v", duration))
	}
	return &ImageClip{frame: f, duration: duration}, nil
}

func (c *ImageClip) Duration() float64 { return c.duration }

func (c *ImageClip) Size() frame.Size { return c.frame.Size() }

// FrameAt returns the still frame for any t.
func (c *ImageClip) FrameAt(float64) (*frame.Frame, error) {
	if c.closed {
		return nil, fmt.Errorf("frame requested from closed clip")
	}
	return c.frame, nil
}

// Close releases the frame buffer.
func (c *ImageClip) Close() error {
	c.closed = true
	c.frame = &frame.Frame{Width: c.frame.Width, Height: c.frame.Height}
	return nil
}
