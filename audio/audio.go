// Package audio loads the background track and attaches a trimmed view of it
// to a video segment.
package audio

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"slideshow/clip"
	"slideshow/ffprobe"
	"slideshow/models"
)

// ProbeFunc reads media metadata. ffprobe.Probe satisfies it.
type ProbeFunc func(ctx context.Context, path string) (*ffprobe.ProbeResult, error)

// Track is a loaded audio file. Only metadata is held in memory; samples are
// read by the encoder.
type Track struct {
	Path       string  `json:"path"`
	Duration   float64 `json:"duration"`
	Codec      string  `json:"codec"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`

	closed bool
}

// Loader opens audio tracks through a prober.
type Loader struct {
	probe ProbeFunc
}

// NewLoader creates a Loader. A nil probe uses ffprobe.
func NewLoader(probe ProbeFunc) *Loader {
	if probe == nil {
		probe = ffprobe.Probe
	}
	return &Loader{probe: probe}
}

// Load opens the audio file at path with ffprobe.
func Load(ctx context.Context, path string) (*Track, error) {
	return NewLoader(nil).Load(ctx, path)
}

// Load probes path and returns its first audio stream as a Track.
//
// A missing file, a probe failure, a file with no audio stream or one with
// no usable duration is reported as models.ErrAudioLoad.
func (l *Loader) Load(ctx context.Context, path string) (*Track, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, models.NewPipelineError(models.ErrAudioLoad, path, err)
	}

	pr, err := l.probe(ctx, path)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrAudioLoad, path, err)
	}

	track, err := FromProbe(path, pr)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrAudioLoad, path, err)
	}
	return track, nil
}

// FromProbe builds a Track from probe output.
func FromProbe(path string, pr *ffprobe.ProbeResult) (*Track, error) {
	streams := pr.GetAudioStreams()
	if len(streams) == 0 {
		return nil, fmt.Errorf("no audio stream")
	}
	s := streams[0]

	duration, err := pr.GetDuration()
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("audio has no duration")
	}

	rate, _ := strconv.Atoi(s.SampleRate)
	return &Track{
		Path:       path,
		Duration:   duration,
		Codec:      s.CodecName,
		SampleRate: rate,
		Channels:   s.Channels,
	}, nil
}

// Trimmed is the leading part of a track used for one segment.
type Trimmed struct {
	Track    *Track
	Duration float64
}

// Trim returns a view of [0, min(track duration, d)]. A track shorter than d
// is used in full.
func (t *Track) Trim(d float64) (*Trimmed, error) {
	if t.closed {
		return nil, models.NewPipelineError(models.ErrAudioLoad, t.Path, fmt.Errorf("track is closed"))
	}
	if d < 0 {
		return nil, models.NewPipelineError(models.ErrAudioLoad, t.Path, fmt.Errorf("negative trim length %v", d))
	}
	return &Trimmed{Track: t, Duration: min(t.Duration, d)}, nil
}

// Close releases the track.
func (t *Track) Close() error {
	t.closed = true
	return nil
}

// Attached is a video segment paired with its audio.
type Attached struct {
	Segment clip.Clip
	Audio   *Trimmed
}

// Attach trims track to the segment duration and pairs the two.
func Attach(segment clip.Clip, track *Track) (*Attached, error) {
	a := &Attached{Segment: segment}
	if err := a.SetAudio(track); err != nil {
		return nil, err
	}
	return a, nil
}

// SetAudio replaces the segment's audio with track, trimmed to fit.
func (a *Attached) SetAudio(track *Track) error {
	trimmed, err := track.Trim(a.Segment.Duration())
	if err != nil {
		return err
	}
	a.Audio = trimmed
	return nil
}

// Duration is the segment duration. Audio never extends it.
func (a *Attached) Duration() float64 {
	return a.Segment.Duration()
}

// SilentTail is the length of trailing video with no audio.
func (a *Attached) SilentTail() float64 {
	if a.Audio == nil {
		return a.Segment.Duration()
	}
	return max(0, a.Segment.Duration()-a.Audio.Duration)
}
