package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"slideshow/audio"
	"slideshow/clip"
	"slideshow/command"
	"slideshow/command/video"
	"slideshow/config"
	"slideshow/ffmpeg"
	"slideshow/frame"
	"slideshow/internal/logging"
	"slideshow/internal/progress"
	"slideshow/models"
)

// Encoder writes a segment and its audio to outputPath.
type Encoder interface {
	Encode(ctx context.Context, seg *audio.Attached, outputPath string) error
}

// FFmpegEncoder encodes by piping rendered frames into ffmpeg.
type FFmpegEncoder struct {
	cfg      *config.Config
	runner   *ffmpeg.Runner
	progress *progress.Display
	logger   *slog.Logger
}

// NewFFmpegEncoder creates an encoder using the encoder settings in cfg.
// display may be nil.
func NewFFmpegEncoder(cfg *config.Config, display *progress.Display, logger *slog.Logger) *FFmpegEncoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	if display == nil {
		display = progress.New(io.Discard, false, logger)
	}
	return &FFmpegEncoder{
		cfg:      cfg,
		runner:   ffmpeg.NewRunner().SetBinary(cfg.FFmpegBinary),
		progress: display,
		logger:   logger,
	}
}

// Builder returns the ffmpeg command for seg.
func (e *FFmpegEncoder) Builder(seg *audio.Attached, outputPath string) *video.SegmentBuilder {
	b := newSegmentBuilder(e.cfg, seg.Segment.Size(), outputPath)
	if seg.Audio != nil && seg.Audio.Duration > 0 {
		b.SetAudio(seg.Audio.Track.Path, seg.Audio.Duration)
	}
	return b
}

// newSegmentBuilder applies the encoder settings from cfg; the caller adds
// the audio input.
func newSegmentBuilder(cfg *config.Config, size frame.Size, outputPath string) *video.SegmentBuilder {
	return video.NewSegmentBuilder(outputPath).
		SetFrameSize(size.Width, size.Height).
		SetFrameRate(cfg.FPS).
		SetCodec(cfg.Video.Codec).
		SetBitrate(cfg.Video.Bitrate).
		SetPreset(cfg.Video.Preset).
		SetPixelFormat(cfg.Video.PixelFormat).
		SetProfile(cfg.Video.Profile, cfg.Video.Level).
		SetThreads(cfg.Video.Threads).
		SetAudioCodec(cfg.Audio.Codec, cfg.Audio.Bitrate)
}

// Encode renders seg frame by frame into ffmpeg's stdin.
func (e *FFmpegEncoder) Encode(ctx context.Context, seg *audio.Attached, outputPath string) error {
	b := e.Builder(seg, outputPath)
	if err := b.Validate(); err != nil {
		return models.NewPipelineError(models.ErrConfig, outputPath, err)
	}
	args := b.BuildArgs()
	e.logger.Debug("ffmpeg command", slog.String("command", command.FormatCommandLine(e.runner.Binary(), args)))

	total := int64(clip.FrameCount(seg.Duration(), e.cfg.FPS))
	p := models.NewEncodingProgress(seg.Duration(), total)
	tracker := e.progress.Start(filepath.Base(outputPath), total)
	e.runner.SetProgressCallback(tracker.Update)

	err := e.runner.Run(ctx, args, p, func(w io.Writer) error {
		_, err := WriteFrames(ctx, w, seg.Segment, e.cfg.FPS)
		return err
	})
	tracker.Finish(err)
	if err == nil {
		e.logger.Debug("encode finished", slog.String("status", p.FormatSummary()))
	}
	return err
}
