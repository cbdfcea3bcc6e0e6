package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"slideshow/audio"
	"slideshow/ffprobe"
	"slideshow/internal/logging"
	"slideshow/models"
)

// DurationProber reads the duration of a media file.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// ProbeDurationFunc adapts a function to DurationProber.
type ProbeDurationFunc func(ctx context.Context, path string) (float64, error)

func (f ProbeDurationFunc) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return f(ctx, path)
}

// FFprobeDuration reads the encoded video stream duration with ffprobe.
func FFprobeDuration(ctx context.Context, path string) (float64, error) {
	pr, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return pr.VideoDuration()
}

// ExportResult describes a written segment.
type ExportResult struct {
	OutputPath       string
	SizeBytes        int64
	VerifiedDuration float64  // 0 when the read-back failed
	Warnings         []string // verification problems, never fatal
}

// Exporter encodes attached segments and verifies the files they produce.
type Exporter struct {
	encoder Encoder
	prober  DurationProber
	fps     float64
	logger  *slog.Logger
}

// NewExporter creates an Exporter. Durations diverging by more than one
// frame interval at fps are reported as warnings.
func NewExporter(encoder Encoder, prober DurationProber, fps float64, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{encoder: encoder, prober: prober, fps: fps, logger: logger}
}

// Export encodes seg to outputPath, then reads the duration back.
//
// seg's clip and audio track are closed before Export returns, whatever
// the outcome. A failed encode removes any partial output and is reported
// as models.ErrEncode. Verification problems end up in the result's
// Warnings.
func (e *Exporter) Export(ctx context.Context, seg *audio.Attached, outputPath string) (*ExportResult, error) {
	defer func() {
		var closeErr error
		if seg.Audio != nil {
			closeErr = seg.Audio.Track.Close()
		}
		closeErr = errors.Join(closeErr, seg.Segment.Close())
		if closeErr != nil {
			e.logger.Warn("failed to release segment", logging.Error(closeErr))
		}
	}()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, models.NewPipelineError(models.ErrEncode, outputPath, fmt.Errorf("failed to create output directory: %w", err))
	}

	e.logger.Info("writing video",
		slog.String("output", outputPath),
		slog.Float64("duration", seg.Duration()),
	)
	if tail := seg.SilentTail(); tail > 0 {
		e.logger.Info("audio shorter than video, ending in silence", slog.Float64("silent_seconds", tail))
	}

	if err := e.encoder.Encode(ctx, seg, outputPath); err != nil {
		removePartial(outputPath, e.logger)
		return nil, models.NewPipelineError(models.ErrEncode, outputPath, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		removePartial(outputPath, e.logger)
		return nil, models.NewPipelineError(models.ErrEncode, outputPath, errors.New("encoder produced no output"))
	}

	res := &ExportResult{OutputPath: outputPath, SizeBytes: info.Size()}
	e.verify(ctx, res, seg.Duration())
	return res, nil
}

func (e *Exporter) verify(ctx context.Context, res *ExportResult, expected float64) {
	if e.prober == nil {
		return
	}

	e.logger.Info("verifying duration", slog.String("output", res.OutputPath))
	actual, err := e.prober.ProbeDuration(ctx, res.OutputPath)
	if err != nil {
		werr := models.NewPipelineError(models.ErrVerification, res.OutputPath, err)
		e.logger.Warn("could not verify output", logging.Error(werr))
		res.Warnings = append(res.Warnings, werr.Error())
		return
	}

	res.VerifiedDuration = actual
	e.logger.Info("output duration", slog.Float64("seconds", actual))

	if tolerance := 1 / e.fps; math.Abs(actual-expected) > tolerance {
		werr := models.NewPipelineError(models.ErrVerification, res.OutputPath,
			fmt.Errorf("duration %.3fs differs from expected %.3fs", actual, expected))
		e.logger.Warn("duration mismatch", logging.Error(werr))
		res.Warnings = append(res.Warnings, werr.Error())
	}
}

func removePartial(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove partial output", slog.String("output", path), logging.Error(err))
	}
}
