// Package ffprobe provides utilities for extracting metadata from media files
// using the ffprobe command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	CodecLongName string `json:"codec_long_name"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	Duration      string `json:"duration,omitempty"`
	AvgFrameRate  string `json:"avg_frame_rate,omitempty"`
	NbFrames      string `json:"nb_frames,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename       string `json:"filename"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// GetDuration returns the duration of the media file in seconds.
//
// The container duration is preferred. Some muxers only report it per
// stream, in which case the longest stream duration is used.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration != "" {
		duration, err := strconv.ParseFloat(pr.Format.Duration, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
		}
		return duration, nil
	}

	best := -1.0
	for _, s := range pr.Streams {
		d, err := s.GetDuration()
		if err == nil && d > best {
			best = d
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("duration not available in format metadata")
	}
	return best, nil
}

// GetDuration returns the stream duration in seconds.
func (s *Stream) GetDuration() (float64, error) {
	if s.Duration == "" || s.Duration == "N/A" {
		return 0, fmt.Errorf("duration not available for stream %d", s.Index)
	}
	d, err := strconv.ParseFloat(s.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", s.Duration, err)
	}
	return d, nil
}

// VideoDuration returns the duration of the first video stream, falling back
// to GetDuration when no video stream reports one.
func (pr *ProbeResult) VideoDuration() (float64, error) {
	if streams := pr.GetVideoStreams(); len(streams) > 0 {
		if d, err := streams[0].GetDuration(); err == nil {
			return d, nil
		}
	}
	return pr.GetDuration()
}

// GetVideoStreams returns all video streams from the media file.
func (pr *ProbeResult) GetVideoStreams() []Stream {
	var videoStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "video" {
			videoStreams = append(videoStreams, stream)
		}
	}
	return videoStreams
}

// GetAudioStreams returns all audio streams from the media file.
func (pr *ProbeResult) GetAudioStreams() []Stream {
	var audioStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "audio" {
			audioStreams = append(audioStreams, stream)
		}
	}
	return audioStreams
}

// ParseOutput decodes the JSON document printed by ffprobe.
func ParseOutput(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

// Probe analyzes a media file and extracts its metadata using ffprobe.
//
// The process is killed if ctx is cancelled.
//
// Example:
//
//	result, err := ffprobe.Probe(ctx, "output_videos/output_video_1.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	duration, _ := result.GetDuration()
//	fmt.Printf("Duration: %.2f seconds\n", duration)
func Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	// -v quiet: suppress verbose output
	// -print_format json: output in JSON format
	// -show_streams / -show_format: stream and container information
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		sourcePath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return ParseOutput(output)
}

// Available reports whether the ffprobe binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}
