// Package config holds the slideshow configuration and its layered loading:
// defaults, then a YAML or TOML file, then command-line flags.
package config

import (
	"slideshow/frame"
)

// Config holds all slideshow configuration options.
//
// A Config is built once at startup and treated as read-only afterwards.
type Config struct {
	// Inputs and outputs
	ImageDir  string `yaml:"image_dir" toml:"image_dir"`
	AudioPath string `yaml:"audio_path" toml:"audio_path"`
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// Segment layout
	BatchSize     int     `yaml:"batch_size" toml:"batch_size"`         // images per output file
	ImageDuration float64 `yaml:"image_duration" toml:"image_duration"` // seconds per image
	ZoomFactor    float64 `yaml:"zoom_factor" toml:"zoom_factor"`       // magnification at the end of each image
	ZoomFilter    string  `yaml:"zoom_filter" toml:"zoom_filter"`       // "bilinear", "catmullrom", "nearest"
	Width         int     `yaml:"width" toml:"width"`
	Height        int     `yaml:"height" toml:"height"`
	FPS           float64 `yaml:"fps" toml:"fps"`

	// Encoder settings
	Video        VideoConfig `yaml:"video" toml:"video"`
	Audio        AudioConfig `yaml:"audio" toml:"audio"`
	FFmpegBinary string      `yaml:"ffmpeg_binary" toml:"ffmpeg_binary"`

	// Reporting
	ReportPath  string `yaml:"report_path" toml:"report_path"`   // JSON run report, empty = none
	MetricsPath string `yaml:"metrics_path" toml:"metrics_path"` // Prometheus textfile, empty = none

	// Logging
	LogLevel  string `yaml:"log_level" toml:"log_level"`   // "debug", "info", "warn", "error"
	LogFormat string `yaml:"log_format" toml:"log_format"` // "console" or "json"
	LogFile   string `yaml:"log_file" toml:"log_file"`     // additional log file, empty = none

	// Behavioral flags
	Progress bool `yaml:"progress" toml:"progress"` // Show a progress bar on terminals
	Verbose  bool `yaml:"verbose" toml:"verbose"`   // Shorthand for log_level debug
	DryRun   bool `yaml:"dry_run" toml:"dry_run"`   // Show the plan without encoding
}

// VideoConfig holds video encoding settings
type VideoConfig struct {
	Codec       string `yaml:"codec" toml:"codec"`               // e.g., "libx264", "h264_nvenc"
	Bitrate     string `yaml:"bitrate" toml:"bitrate"`           // e.g., "8000k"
	Preset      string `yaml:"preset" toml:"preset"`             // e.g., "ultrafast", "medium", "slow"
	PixelFormat string `yaml:"pixel_format" toml:"pixel_format"` // e.g., "yuv420p"
	Profile     string `yaml:"profile" toml:"profile"`           // e.g., "high"
	Level       string `yaml:"level" toml:"level"`               // e.g., "4.0"
	Threads     int    `yaml:"threads" toml:"threads"`           // 0 = let ffmpeg decide
}

// AudioConfig holds audio encoding settings
type AudioConfig struct {
	Codec   string `yaml:"codec" toml:"codec"`     // e.g., "aac", "libopus"
	Bitrate string `yaml:"bitrate" toml:"bitrate"` // e.g., "192k"
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ImageDir:  "input_images",
		AudioPath: "background_music.m4a",
		OutputDir: "output_videos",

		BatchSize:     10,
		ImageDuration: 2.0,
		ZoomFactor:    1.1,
		ZoomFilter:    "bilinear",
		Width:         1920,
		Height:        1080,
		FPS:           30,

		Video: VideoConfig{
			Codec:       "libx264",
			Bitrate:     "8000k",
			Preset:      "medium",
			PixelFormat: "yuv420p",
			Profile:     "high",
			Level:       "4.0",
			Threads:     4,
		},
		Audio: AudioConfig{
			Codec:   "aac",
			Bitrate: "192k",
		},
		FFmpegBinary: "ffmpeg",

		LogLevel:  "info",
		LogFormat: "console",

		Progress: true,
		Verbose:  false,
		DryRun:   false,
	}
}

// Copy returns a shallow copy of the config. Config holds no pointers or
// slices, so the copy shares nothing with c.
func (c *Config) Copy() *Config {
	cp := *c
	return &cp
}

// FrameSize returns the output frame size.
func (c *Config) FrameSize() frame.Size {
	return frame.Size{Width: c.Width, Height: c.Height}
}

// EffectiveLogLevel returns the log level, raised to debug when Verbose is set.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

// LogFormatValues returns valid log format values
func LogFormatValues() []string {
	return []string{"console", "json"}
}

// LogLevelValues returns valid log level values
func LogLevelValues() []string {
	return []string{"debug", "info", "warn", "error"}
}
