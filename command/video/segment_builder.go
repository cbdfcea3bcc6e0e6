// Package video builds the ffmpeg invocation that encodes one slideshow
// segment from raw frames and a background audio track.
package video

import (
	"fmt"
	"strconv"
	"strings"

	"slideshow/command"
	"slideshow/internal/timeutil"
)

// StdinInput is the ffmpeg input URL for frames written to stdin.
const StdinInput = "pipe:0"

// SegmentBuilder builds ffmpeg arguments for encoding raw RGB24 frames read
// from stdin, muxed with a trimmed audio input, into an MP4 file.
type SegmentBuilder struct {
	outputPath string

	// Raw video input
	width     int
	height    int
	frameRate float64

	// Audio input
	audioPath     string
	audioDuration float64

	// Video encoder
	codec       string
	bitrate     string
	preset      string
	pixelFormat string
	profile     string
	level       string
	threads     int

	// Audio encoder
	audioCodec   string
	audioBitrate string

	faststart bool
	progress  bool
	extraArgs []string
}

// NewSegmentBuilder creates a builder with the default H.264/AAC settings.
func NewSegmentBuilder(outputPath string) *SegmentBuilder {
	return &SegmentBuilder{
		outputPath:   outputPath,
		width:        1920,
		height:       1080,
		frameRate:    30,
		codec:        "libx264",
		bitrate:      "8000k",
		preset:       "medium",
		pixelFormat:  "yuv420p",
		profile:      "high",
		level:        "4.0",
		threads:      4,
		audioCodec:   "aac",
		audioBitrate: "192k",
		faststart:    true,
		progress:     true,
		extraArgs:    []string{},
	}
}

// SetFrameSize sets the size of the raw frames on stdin.
func (s *SegmentBuilder) SetFrameSize(width, height int) *SegmentBuilder {
	s.width = width
	s.height = height
	return s
}

// SetFrameRate sets the input and output frame rate.
func (s *SegmentBuilder) SetFrameRate(fps float64) *SegmentBuilder {
	s.frameRate = fps
	return s
}

// SetAudio sets the audio file and how many seconds of it to use.
func (s *SegmentBuilder) SetAudio(path string, duration float64) *SegmentBuilder {
	s.audioPath = path
	s.audioDuration = duration
	return s
}

// SetCodec sets the video encoder (e.g. libx264, h264_nvenc).
func (s *SegmentBuilder) SetCodec(codec string) *SegmentBuilder {
	s.codec = codec
	return s
}

// SetBitrate sets the target video bitrate (e.g. "8000k").
func (s *SegmentBuilder) SetBitrate(bitrate string) *SegmentBuilder {
	s.bitrate = bitrate
	return s
}

// SetPreset sets the encoder speed preset.
func (s *SegmentBuilder) SetPreset(preset string) *SegmentBuilder {
	s.preset = preset
	return s
}

// SetPixelFormat sets the output pixel format.
func (s *SegmentBuilder) SetPixelFormat(pixfmt string) *SegmentBuilder {
	s.pixelFormat = pixfmt
	return s
}

// SetProfile sets the H.264 profile and level.
func (s *SegmentBuilder) SetProfile(profile, level string) *SegmentBuilder {
	s.profile = profile
	s.level = level
	return s
}

// SetThreads sets the encoder thread count. Zero lets ffmpeg decide.
func (s *SegmentBuilder) SetThreads(threads int) *SegmentBuilder {
	s.threads = threads
	return s
}

// SetAudioCodec sets the audio encoder and bitrate.
func (s *SegmentBuilder) SetAudioCodec(codec, bitrate string) *SegmentBuilder {
	s.audioCodec = codec
	s.audioBitrate = bitrate
	return s
}

// SetFaststart controls moving the moov atom to the front of the file.
func (s *SegmentBuilder) SetFaststart(enabled bool) *SegmentBuilder {
	s.faststart = enabled
	return s
}

// SetProgress controls machine-readable progress on stderr.
func (s *SegmentBuilder) SetProgress(enabled bool) *SegmentBuilder {
	s.progress = enabled
	return s
}

// AddExtraArgs appends arguments before the output path.
func (s *SegmentBuilder) AddExtraArgs(args ...string) *SegmentBuilder {
	s.extraArgs = append(s.extraArgs, args...)
	return s
}

// FrameBytes is the size of one raw frame on stdin.
func (s *SegmentBuilder) FrameBytes() int {
	return s.width * s.height * 3
}

// Validate checks the parameters needed to build a usable command.
func (s *SegmentBuilder) Validate() error {
	var errs []string
	if strings.TrimSpace(s.outputPath) == "" {
		errs = append(errs, "output path cannot be empty")
	}
	if s.width <= 0 || s.height <= 0 {
		errs = append(errs, fmt.Sprintf("frame size must be positive, got %dx%d", s.width, s.height))
	}
	if s.frameRate <= 0 {
		errs = append(errs, fmt.Sprintf("frame rate must be positive, got %v", s.frameRate))
	}
	if s.codec == "" {
		errs = append(errs, "video codec cannot be empty")
	}
	if s.audioPath != "" && s.audioDuration <= 0 {
		errs = append(errs, fmt.Sprintf("audio duration must be positive, got %v", s.audioDuration))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid segment command: %s", strings.Join(errs, "; "))
	}
	return nil
}

// BuildArgs constructs the ffmpeg argument list.
func (s *SegmentBuilder) BuildArgs() []string {
	args := []string{"-hide_banner"}

	// Raw frames on stdin
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", s.width, s.height),
		"-r", formatRate(s.frameRate),
		"-i", StdinInput,
	)

	// Audio limited to the segment length
	if s.audioPath != "" {
		args = append(args,
			"-t", timeutil.FormatSeconds(s.audioDuration),
			"-i", s.audioPath,
		)
	}

	args = append(args, "-map", "0:v:0")
	if s.audioPath != "" {
		args = append(args, "-map", "1:a:0")
	}

	args = append(args, "-c:v", s.codec)
	if s.bitrate != "" {
		args = append(args, "-b:v", s.bitrate)
	}
	if s.preset != "" {
		args = append(args, "-preset", s.preset)
	}
	if s.pixelFormat != "" {
		args = append(args, "-pix_fmt", s.pixelFormat)
	}
	if s.profile != "" {
		args = append(args, "-profile:v", s.profile)
	}
	if s.level != "" {
		args = append(args, "-level", s.level)
	}
	if s.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(s.threads))
	}

	if s.audioPath != "" {
		args = append(args, "-c:a", s.audioCodec)
		if s.audioBitrate != "" {
			args = append(args, "-b:a", s.audioBitrate)
		}
	} else {
		args = append(args, "-an")
	}

	if s.faststart {
		args = append(args, "-movflags", "+faststart")
	}
	if s.progress {
		args = append(args, "-progress", "pipe:2", "-nostats")
	}

	args = append(args, s.extraArgs...)
	args = append(args, "-y", s.outputPath)

	return args
}

// DryRun returns the command that would be executed without running it
func (s *SegmentBuilder) DryRun() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	return command.FormatCommandLine("ffmpeg", s.BuildArgs()), nil
}

// GetTaskType returns the task type identifier
func (s *SegmentBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeSegment
}

// GetInputPath returns the audio file, the only input read from disk
func (s *SegmentBuilder) GetInputPath() string {
	return s.audioPath
}

// GetOutputPath returns the output file path
func (s *SegmentBuilder) GetOutputPath() string {
	return s.outputPath
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
