package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"slideshow/audio"
	"slideshow/batcher"
	"slideshow/command"
	"slideshow/config"
	"slideshow/internal/logging"
	"slideshow/internal/metrics"
	"slideshow/models"
	"slideshow/scanner"
)

// LockFileName is created in the output directory while a run holds it.
const LockFileName = ".slideshow.lock"

// AudioLoader opens the background track. *audio.Loader satisfies it.
type AudioLoader interface {
	Load(ctx context.Context, path string) (*audio.Track, error)
}

// Runner drives a whole run: scan, batch, then assemble, attach audio,
// encode and verify each batch in turn.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	assembler *Assembler
	loader    AudioLoader
	encoder   Encoder
	prober    DurationProber
	metrics   *metrics.Recorder
	now       func() time.Time
}

// NewRunner creates a Runner that encodes with ffmpeg and verifies with
// ffprobe.
func NewRunner(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	assembler, err := NewAssembler(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:       cfg,
		logger:    logger,
		assembler: assembler,
		loader:    audio.NewLoader(nil),
		encoder:   NewFFmpegEncoder(cfg, nil, logger),
		prober:    ProbeDurationFunc(FFprobeDuration),
		metrics:   metrics.New(),
		now:       time.Now,
	}, nil
}

// SetEncoder replaces the encoder.
func (r *Runner) SetEncoder(enc Encoder) *Runner {
	r.encoder = enc
	return r
}

// SetAudioLoader replaces the audio loader.
func (r *Runner) SetAudioLoader(loader AudioLoader) *Runner {
	r.loader = loader
	return r
}

// SetProber replaces the duration prober used for verification. A nil
// prober disables verification.
func (r *Runner) SetProber(prober DurationProber) *Runner {
	r.prober = prober
	return r
}

// SetNormalizer replaces the image decoder.
func (r *Runner) SetNormalizer(fn NormalizeFunc) *Runner {
	r.assembler.SetNormalizer(fn)
	return r
}

// Metrics returns the run's metrics recorder.
func (r *Runner) Metrics() *metrics.Recorder {
	return r.metrics
}

// Plan scans the image directory and partitions the images into batches.
// No images yields no batches and no error.
func Plan(cfg *config.Config) ([]*models.Batch, error) {
	images, err := scanner.ScanImages(cfg.ImageDir)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrFatalInput, cfg.ImageDir, err)
	}
	if len(images) == 0 {
		return nil, nil
	}

	batches, err := batcher.NewBatcher(images).SetBatchSize(cfg.BatchSize).CreateBatches()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrConfig, "", err)
	}
	if err := batcher.ValidateBatches(batches, cfg.BatchSize); err != nil {
		return nil, fmt.Errorf("batch plan is inconsistent: %w", err)
	}
	return batches, nil
}

// Run processes every batch and returns the run report.
//
// Only missing inputs, an unusable output directory or an invalid plan
// stop the run with an error; per-image and per-batch failures are
// recorded in the report. When ctx is cancelled the current encode is
// stopped, no further batches are started and the returned error wraps
// ctx.Err().
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	if err := r.cfg.CheckInputs(); err != nil {
		return nil, err
	}

	report := &models.RunReport{
		RunID:     uuid.NewString(),
		ImageDir:  r.cfg.ImageDir,
		OutputDir: r.cfg.OutputDir,
		DryRun:    r.cfg.DryRun,
		StartedAt: r.now(),
	}
	logger := r.logger.With(slog.String("run_id", report.RunID))

	batches, err := Plan(r.cfg)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		logger.Warn("no images found", slog.String("dir", r.cfg.ImageDir))
		report.Warnings = append(report.Warnings, fmt.Sprintf("no images found in %s", r.cfg.ImageDir))
	}

	if !r.cfg.DryRun && len(batches) > 0 {
		unlock, err := r.lockOutputDir()
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(); err != nil {
				logger.Warn("failed to release output lock", logging.Error(err))
			}
		}()
	}

	for _, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		var res *models.BatchResult
		if r.cfg.DryRun {
			res = r.planBatch(batch, logger)
		} else {
			res = r.processBatch(ctx, batch, logger)
			r.metrics.ObserveBatch(res)
		}
		report.Add(res)
	}

	report.FinishedAt = r.now()
	report.Finalize()
	r.metrics.ObserveRun(report.StartedAt, report.FinishedAt)
	r.writeOutputs(report, logger)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run interrupted: %w", err)
	}
	return report, nil
}

// lockOutputDir creates the output directory and takes an exclusive lock
// on it so concurrent runs cannot write the same files.
func (r *Runner) lockOutputDir() (func() error, error) {
	dir := r.cfg.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, models.NewPipelineError(models.ErrFatalInput, dir, fmt.Errorf("failed to create output directory: %w", err))
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrFatalInput, lock.Path(), fmt.Errorf("acquire lock: %w", err))
	}
	if !ok {
		return nil, models.NewPipelineError(models.ErrFatalInput, dir, errors.New("another slideshow run is using this output directory"))
	}
	return lock.Unlock, nil
}

// planBatch describes the encode of batch without touching any file. The
// audio length is not probed, so the command trims it to the planned
// segment duration.
func (r *Runner) planBatch(batch *models.Batch, logger *slog.Logger) *models.BatchResult {
	duration := float64(len(batch.Images)) * r.cfg.ImageDuration
	var cmd command.Command = newSegmentBuilder(r.cfg, r.cfg.FrameSize(), batch.OutputPath(r.cfg.OutputDir)).
		SetAudio(r.cfg.AudioPath, duration)

	res := &models.BatchResult{
		Index:           batch.Index,
		Status:          models.BatchStatusPlanned,
		OutputPath:      cmd.GetOutputPath(),
		SegmentDuration: duration,
	}
	logger.Info("planned batch",
		slog.Int("batch", batch.Index),
		slog.Int("images", len(batch.Images)),
		slog.String("task", string(cmd.GetTaskType())),
		slog.String("audio", cmd.GetInputPath()),
		slog.String("output", res.OutputPath),
	)

	line, err := cmd.DryRun()
	if err != nil {
		logger.Warn("invalid encoder settings", logging.Error(err))
		res.Warnings = append(res.Warnings, err.Error())
		return res
	}
	res.Command = line
	logger.Debug("ffmpeg command", slog.String("command", line))
	return res
}

func (r *Runner) processBatch(ctx context.Context, batch *models.Batch, logger *slog.Logger) *models.BatchResult {
	start := r.now()
	res := &models.BatchResult{Index: batch.Index}
	logger = logger.With(slog.String("component", fmt.Sprintf("batch %d", batch.Index)))
	defer func() { res.Elapsed = r.now().Sub(start) }()

	seq, images, err := r.assembler.withLogger(logger).AssembleBatch(batch)
	res.Images = images
	if err != nil {
		if errors.Is(err, models.ErrEmptyBatch) {
			logger.Warn("no image could be processed, skipping batch", slog.Int("images", len(batch.Images)))
			res.Status = models.BatchStatusSkipped
			return res
		}
		logger.Error("failed to assemble batch", logging.Error(err))
		res.SetError(models.BatchStatusFailed, err)
		return res
	}
	res.SegmentDuration = seq.Duration()

	track, err := r.loader.Load(ctx, r.cfg.AudioPath)
	if err != nil {
		err = tagBatch(err, batch.Index)
		logger.Error("failed to load audio", logging.Error(err))
		res.SetError(models.BatchStatusFailed, errors.Join(err, seq.Close()))
		return res
	}

	attached, err := audio.Attach(seq, track)
	if err != nil {
		err = tagBatch(err, batch.Index)
		logger.Error("failed to attach audio", logging.Error(err))
		res.SetError(models.BatchStatusFailed, errors.Join(err, seq.Close(), track.Close()))
		return res
	}
	res.AudioDuration = attached.Audio.Duration

	exporter := NewExporter(r.encoder, r.prober, r.cfg.FPS, logger)
	out := batch.OutputPath(r.cfg.OutputDir)
	exported, err := exporter.Export(ctx, attached, out)
	if err != nil {
		err = tagBatch(err, batch.Index)
		logger.Error("failed to encode batch", logging.Error(err))
		res.SetError(models.BatchStatusFailed, err)
		return res
	}

	res.Status = models.BatchStatusEncoded
	res.OutputPath = exported.OutputPath
	res.SizeBytes = exported.SizeBytes
	res.VerifiedDuration = exported.VerifiedDuration
	res.Warnings = exported.Warnings
	return res
}

func (r *Runner) writeOutputs(report *models.RunReport, logger *slog.Logger) {
	if path := r.cfg.ReportPath; path != "" {
		if err := report.WriteFile(path); err != nil {
			logger.Warn("failed to write report", slog.String("path", path), logging.Error(err))
		} else {
			logger.Debug("report written", slog.String("path", path))
		}
	}
	if path := r.cfg.MetricsPath; path != "" && !r.cfg.DryRun {
		if err := r.metrics.WriteTextfile(path); err != nil {
			logger.Warn("failed to write metrics", slog.String("path", path), logging.Error(err))
		} else {
			logger.Debug("metrics written", slog.String("path", path))
		}
	}
}
