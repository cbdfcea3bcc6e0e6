// Package pipeline turns batches of images into encoded video segments:
// it assembles zoomed clips, attaches the background track, encodes,
// verifies the result and reports on every batch.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/image/draw"

	"slideshow/clip"
	"slideshow/config"
	"slideshow/frame"
	"slideshow/internal/logging"
	"slideshow/models"
)

// NormalizeFunc decodes an image file into a frame of the given size.
// frame.Normalize satisfies it.
type NormalizeFunc func(path string, size frame.Size) (*frame.Frame, error)

// Assembler builds the clip sequence for a batch.
type Assembler struct {
	size      frame.Size
	duration  float64
	zoom      float64
	interp    draw.Interpolator
	normalize NormalizeFunc
	logger    *slog.Logger
}

// NewAssembler creates an Assembler from the segment layout in cfg.
func NewAssembler(cfg *config.Config, logger *slog.Logger) (*Assembler, error) {
	interp, err := clip.ParseFilter(cfg.ZoomFilter)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrConfig, "", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{
		size:      cfg.FrameSize(),
		duration:  cfg.ImageDuration,
		zoom:      cfg.ZoomFactor,
		interp:    interp,
		normalize: frame.Normalize,
		logger:    logger,
	}, nil
}

// SetNormalizer replaces the image decoder.
func (a *Assembler) SetNormalizer(fn NormalizeFunc) *Assembler {
	a.normalize = fn
	return a
}

// AssembleBatch normalizes each image in the batch, wraps it as a zooming
// clip and concatenates the clips in batch order.
//
// Images that fail are recorded in the returned results and skipped. When
// no image succeeds the error wraps models.ErrEmptyBatch and the sequence
// is nil. The caller owns the returned sequence and must Close it.
func (a *Assembler) AssembleBatch(batch *models.Batch) (*clip.Sequence, []*models.ImageResult, error) {
	results := make([]*models.ImageResult, 0, len(batch.Images))
	clips := make([]clip.Clip, 0, len(batch.Images))

	for _, img := range batch.Images {
		a.logger.Info("processing image", slog.String("path", img.Path))

		c, err := a.buildClip(img.Path)
		if err != nil {
			a.logger.Warn("skipping image",
				slog.String("path", img.Path),
				logging.Error(err),
			)
			ir, rerr := models.NewImageResultFailure(img.Path, tagBatch(err, batch.Index))
			if rerr != nil {
				return nil, nil, closeAll(clips, rerr)
			}
			results = append(results, ir)
			continue
		}

		ir, err := models.NewImageResultSuccess(img.Path, c.Duration())
		if err != nil {
			return nil, nil, closeAll(append(clips, c), err)
		}
		results = append(results, ir)
		clips = append(clips, c)
	}

	if len(clips) == 0 {
		return nil, results, models.NewPipelineError(models.ErrEmptyBatch, "", nil).WithBatch(batch.Index)
	}

	seq, err := clip.Concatenate(clips...)
	if err != nil {
		return nil, results, closeAll(clips, tagBatch(err, batch.Index))
	}
	return seq, results, nil
}

func (a *Assembler) buildClip(path string) (clip.Clip, error) {
	f, err := a.normalize(path, a.size)
	if err != nil {
		return nil, err
	}
	if got := f.Size(); got != a.size {
		return nil, models.NewPipelineError(models.ErrDecode, path,
			fmt.Errorf("normalized frame is %s, want %s", got, a.size))
	}

	still, err := clip.NewImageClip(f, a.duration)
	if err != nil {
		return nil, err
	}
	zoomed, err := clip.NewZoom(still, a.zoom)
	if err != nil {
		_ = still.Close()
		return nil, err
	}
	return zoomed.SetInterpolator(a.interp), nil
}

// closeAll releases clips after a failed assembly and returns err.
func closeAll(clips []clip.Clip, err error) error {
	for _, c := range clips {
		err = errors.Join(err, c.Close())
	}
	return err
}

// tagBatch records the batch index on pipeline errors.
func tagBatch(err error, index int) error {
	var pe *models.PipelineError
	if errors.As(err, &pe) && pe.Batch == 0 {
		pe.WithBatch(index)
	}
	return err
}

// withLogger returns a copy of a that logs to logger.
func (a *Assembler) withLogger(logger *slog.Logger) *Assembler {
	cp := *a
	cp.logger = logger
	return &cp
}
