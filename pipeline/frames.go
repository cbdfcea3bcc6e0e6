package pipeline

import (
	"context"
	"fmt"
	"io"

	"slideshow/clip"
	"slideshow/frame"
)

// WriteFrames renders c at fps and writes each frame to w as packed RGB24.
// Frame i is sampled at t = i/fps; FrameCount(c.Duration(), fps) frames
// are written. It returns the number of frames written.
func WriteFrames(ctx context.Context, w io.Writer, c clip.Clip, fps float64) (int, error) {
	n := clip.FrameCount(c.Duration(), fps)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		f, err := c.FrameAt(float64(i) / fps)
		if err != nil {
			return i, fmt.Errorf("frame %d: %w", i, err)
		}

		rowBytes := f.Width * frame.BytesPerPixel
		if f.Stride == rowBytes {
			if _, err := w.Write(f.Pix[:rowBytes*f.Height]); err != nil {
				return i, err
			}
			continue
		}
		for y := 0; y < f.Height; y++ {
			row := f.Pix[y*f.Stride : y*f.Stride+rowBytes]
			if _, err := w.Write(row); err != nil {
				return i, err
			}
		}
	}
	return n, nil
}
