package config

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and MergeFromFlags.
const (
	FlagImageDir      = "images"
	FlagAudioPath     = "audio"
	FlagOutputDir     = "output"
	FlagBatchSize     = "batch-size"
	FlagImageDuration = "image-duration"
	FlagZoomFactor    = "zoom-factor"
	FlagZoomFilter    = "zoom-filter"
	FlagWidth         = "width"
	FlagHeight        = "height"
	FlagFPS           = "fps"
	FlagVideoCodec    = "video-codec"
	FlagVideoBitrate  = "video-bitrate"
	FlagVideoPreset   = "video-preset"
	FlagPixelFormat   = "pixel-format"
	FlagVideoProfile  = "video-profile"
	FlagVideoLevel    = "video-level"
	FlagThreads       = "threads"
	FlagAudioCodec    = "audio-codec"
	FlagAudioBitrate  = "audio-bitrate"
	FlagFFmpeg        = "ffmpeg"
	FlagReport        = "report"
	FlagMetrics       = "metrics"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
	FlagLogFile       = "log-file"
	FlagNoProgress    = "no-progress"
	FlagVerbose       = "verbose"
	FlagDryRun        = "dry-run"
)

// RegisterFlags defines one flag per configuration field on fs. Defaults
// shown in help come from DefaultConfig; only flags the user sets are
// applied by MergeFromFlags.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	// Inputs and outputs
	fs.StringP(FlagImageDir, "i", d.ImageDir, "Directory containing source images")
	fs.StringP(FlagAudioPath, "a", d.AudioPath, "Background audio file")
	fs.StringP(FlagOutputDir, "o", d.OutputDir, "Directory for output videos")

	// Segment layout
	fs.IntP(FlagBatchSize, "b", d.BatchSize, "Images per output video")
	fs.Float64(FlagImageDuration, d.ImageDuration, "Seconds each image is shown")
	fs.Float64(FlagZoomFactor, d.ZoomFactor, "Magnification reached at the end of each image")
	fs.String(FlagZoomFilter, d.ZoomFilter, "Zoom resampling filter: nearest, bilinear, catmullrom")
	fs.Int(FlagWidth, d.Width, "Output width in pixels")
	fs.Int(FlagHeight, d.Height, "Output height in pixels")
	fs.Float64(FlagFPS, d.FPS, "Output frame rate")

	// Encoder settings
	fs.String(FlagVideoCodec, d.Video.Codec, "Video codec")
	fs.String(FlagVideoBitrate, d.Video.Bitrate, "Video bitrate, e.g. 8000k")
	fs.String(FlagVideoPreset, d.Video.Preset, "Encoder preset: ultrafast, fast, medium, slow, veryslow")
	fs.String(FlagPixelFormat, d.Video.PixelFormat, "Output pixel format")
	fs.String(FlagVideoProfile, d.Video.Profile, "H.264 profile")
	fs.String(FlagVideoLevel, d.Video.Level, "H.264 level")
	fs.Int(FlagThreads, d.Video.Threads, "Encoder threads (0 = auto)")
	fs.String(FlagAudioCodec, d.Audio.Codec, "Audio codec")
	fs.String(FlagAudioBitrate, d.Audio.Bitrate, "Audio bitrate, e.g. 192k")
	fs.String(FlagFFmpeg, d.FFmpegBinary, "Path to the ffmpeg executable")

	// Reporting and logging
	fs.String(FlagReport, d.ReportPath, "Write a JSON run report to this path")
	fs.String(FlagMetrics, d.MetricsPath, "Write Prometheus textfile metrics to this path")
	fs.String(FlagLogLevel, d.LogLevel, "Log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "Log format: console, json")
	fs.String(FlagLogFile, d.LogFile, "Also append logs to this file")

	// Behavioral flags
	fs.Bool(FlagNoProgress, false, "Disable the progress bar")
	fs.BoolP(FlagVerbose, "v", false, "Enable verbose logging")
	fs.BoolP(FlagDryRun, "n", false, "Show configuration and batch plan without encoding")
}

// MergeFromFlags overrides config values with the flags the user set
// explicitly on fs.
func (c *Config) MergeFromFlags(fs *pflag.FlagSet) error {
	m := flagMerger{fs: fs}

	m.str(FlagImageDir, &c.ImageDir)
	m.str(FlagAudioPath, &c.AudioPath)
	m.str(FlagOutputDir, &c.OutputDir)

	m.int(FlagBatchSize, &c.BatchSize)
	m.float(FlagImageDuration, &c.ImageDuration)
	m.float(FlagZoomFactor, &c.ZoomFactor)
	m.str(FlagZoomFilter, &c.ZoomFilter)
	m.int(FlagWidth, &c.Width)
	m.int(FlagHeight, &c.Height)
	m.float(FlagFPS, &c.FPS)

	m.str(FlagVideoCodec, &c.Video.Codec)
	m.str(FlagVideoBitrate, &c.Video.Bitrate)
	m.str(FlagVideoPreset, &c.Video.Preset)
	m.str(FlagPixelFormat, &c.Video.PixelFormat)
	m.str(FlagVideoProfile, &c.Video.Profile)
	m.str(FlagVideoLevel, &c.Video.Level)
	m.int(FlagThreads, &c.Video.Threads)
	m.str(FlagAudioCodec, &c.Audio.Codec)
	m.str(FlagAudioBitrate, &c.Audio.Bitrate)
	m.str(FlagFFmpeg, &c.FFmpegBinary)

	m.str(FlagReport, &c.ReportPath)
	m.str(FlagMetrics, &c.MetricsPath)
	m.str(FlagLogLevel, &c.LogLevel)
	m.str(FlagLogFormat, &c.LogFormat)
	m.str(FlagLogFile, &c.LogFile)

	var noProgress bool
	if m.bool(FlagNoProgress, &noProgress) && noProgress {
		c.Progress = false
	}
	m.bool(FlagVerbose, &c.Verbose)
	m.bool(FlagDryRun, &c.DryRun)

	return m.err
}

// flagMerger copies changed flag values, keeping the first lookup error.
type flagMerger struct {
	fs  *pflag.FlagSet
	err error
}

func (m *flagMerger) changed(name string) bool {
	return m.err == nil && m.fs.Lookup(name) != nil && m.fs.Changed(name)
}

func (m *flagMerger) fail(name string, err error) {
	if err != nil && m.err == nil {
		m.err = fmt.Errorf("flag --%s: %w", name, err)
	}
}

func (m *flagMerger) str(name string, dst *string) {
	if m.changed(name) {
		v, err := m.fs.GetString(name)
		m.fail(name, err)
		*dst = v
	}
}

func (m *flagMerger) int(name string, dst *int) {
	if m.changed(name) {
		v, err := m.fs.GetInt(name)
		m.fail(name, err)
		*dst = v
	}
}

func (m *flagMerger) float(name string, dst *float64) {
	if m.changed(name) {
		v, err := m.fs.GetFloat64(name)
		m.fail(name, err)
		*dst = v
	}
}

func (m *flagMerger) bool(name string, dst *bool) bool {
	if !m.changed(name) {
		return false
	}
	v, err := m.fs.GetBool(name)
	m.fail(name, err)
	*dst = v
	return true
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Images:         %s\n", c.ImageDir)
	fmt.Fprintf(w, "Audio:          %s\n", c.AudioPath)
	fmt.Fprintf(w, "Output:         %s\n", c.OutputDir)
	fmt.Fprintf(w, "Batch Size:     %d images\n", c.BatchSize)
	fmt.Fprintf(w, "Image Duration: %g seconds\n", c.ImageDuration)
	fmt.Fprintf(w, "Zoom:           %gx (%s)\n", c.ZoomFactor, c.ZoomFilter)
	fmt.Fprintf(w, "Frame:          %dx%d @ %g fps\n", c.Width, c.Height, c.FPS)

	fmt.Fprintln(w, "\nVideo Settings:")
	fmt.Fprintf(w, "  Codec:        %s\n", c.Video.Codec)
	fmt.Fprintf(w, "  Bitrate:      %s\n", c.Video.Bitrate)
	fmt.Fprintf(w, "  Preset:       %s\n", c.Video.Preset)
	fmt.Fprintf(w, "  Pixel Format: %s\n", c.Video.PixelFormat)
	if c.Video.Profile != "" {
		fmt.Fprintf(w, "  Profile:      %s (level %s)\n", c.Video.Profile, c.Video.Level)
	}
	fmt.Fprintf(w, "  Threads:      %d\n", c.Video.Threads)

	fmt.Fprintln(w, "\nAudio Settings:")
	fmt.Fprintf(w, "  Codec:        %s\n", c.Audio.Codec)
	fmt.Fprintf(w, "  Bitrate:      %s\n", c.Audio.Bitrate)

	fmt.Fprintln(w, "\nReporting:")
	if c.ReportPath != "" {
		fmt.Fprintf(w, "  Report:       %s\n", c.ReportPath)
	}
	if c.MetricsPath != "" {
		fmt.Fprintf(w, "  Metrics:      %s\n", c.MetricsPath)
	}
	fmt.Fprintf(w, "  Log Level:    %s\n", c.EffectiveLogLevel())
	fmt.Fprintf(w, "  Log Format:   %s\n", c.LogFormat)
	fmt.Fprintf(w, "  Progress:     %v\n", c.Progress)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}
