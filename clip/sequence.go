package clip

import (
	"errors"
	"fmt"
	"sort"

	"slideshow/frame"
	"slideshow/models"
)

// Sequence plays its children end to end. It owns the children and closes
// them when closed.
type Sequence struct {
	clips []Clip
	ends  []float64
	size  frame.Size
}

// Concatenate joins clips in order. All clips must share one frame size.
func Concatenate(clips ...Clip) (*Sequence, error) {
	if len(clips) == 0 {
		return nil, models.NewPipelineError(models.ErrConfig, "", fmt.Errorf("cannot concatenate zero clips"))
	}

	size := clips[0].Size()
	ends := make([]float64, len(clips))
	total := 0.0
	for i, c := range clips {
		if c.Size() != size {
			return nil, models.NewPipelineError(models.ErrConfig, "",
				fmt.Errorf("clip %d is %s, expected %s", i, c.Size(), size))
		}
		total += c.Duration()
		ends[i] = total
	}

	return &Sequence{clips: clips, ends: ends, size: size}, nil
}

// Duration is the sum of the child durations.
func (s *Sequence) Duration() float64 { return s.ends[len(s.ends)-1] }

func (s *Sequence) Size() frame.Size { return s.size }

// Len returns the number of child clips.
func (s *Sequence) Len() int { return len(s.clips) }

// Locate maps a sequence time onto a child index and the child-local time.
// A time on a boundary belongs to the later clip; the end of the sequence
// belongs to the last one.
func (s *Sequence) Locate(t float64) (int, float64) {
	if t < 0 {
		t = 0
	}
	i := sort.Search(len(s.ends), func(i int) bool { return s.ends[i] > t })
	if i == len(s.ends) {
		i = len(s.ends) - 1
	}
	start := 0.0
	if i > 0 {
		start = s.ends[i-1]
	}
	local := t - start
	if d := s.clips[i].Duration(); local > d {
		local = d
	}
	return i, local
}

// FrameAt returns the frame of the child playing at t.
func (s *Sequence) FrameAt(t float64) (*frame.Frame, error) {
	i, local := s.Locate(t)
	return s.clips[i].FrameAt(local)
}

// Close closes every child and reports all failures.
func (s *Sequence) Close() error {
	var errs []error
	for i, c := range s.clips {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clip %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
