package clip

import (
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"slideshow/frame"
	"slideshow/models"
)

// Zoom filter names accepted by ParseFilter.
const (
	FilterNearest    = "nearest"
	FilterBilinear   = "bilinear"
	FilterCatmullRom = "catmullrom"
)

// ParseFilter maps a filter name to an interpolator.
func ParseFilter(name string) (draw.Interpolator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FilterNearest:
		return draw.NearestNeighbor, nil
	case FilterBilinear, "":
		return draw.ApproxBiLinear, nil
	case FilterCatmullRom:
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown zoom filter %q (valid: %s, %s, %s)",
			name, FilterNearest, FilterBilinear, FilterCatmullRom)
	}
}

// ZoomScale is the magnification at time t of a clip of the given duration:
// 1.0 at t=0 rising linearly to factor at t=duration. t is clamped to
// [0, duration].
func ZoomScale(t, duration, factor float64) float64 {
	if duration <= 0 {
		return 1
	}
	t = math.Max(0, math.Min(t, duration))
	return 1 + (factor-1)*(t/duration)
}

// ZoomClip magnifies its inner clip about the frame centre, cropping back to
// the original size.
type ZoomClip struct {
	inner  Clip
	factor float64
	interp draw.Interpolator

	src *image.RGBA
	dst *image.RGBA
	out *frame.Frame
}

// NewZoom wraps c with a linear zoom ending at factor.
func NewZoom(c Clip, factor float64) (*ZoomClip, error) {
	if c == nil {
		return nil, models.NewPipelineError(models.ErrConfig, "", fmt.Errorf("zoom needs a clip"))
	}
	if d := c.Duration(); d <= 0 {
		return nil, models.NewPipelineError(models.ErrConfig, "", fmt.Errorf("cannot zoom a clip of duration %v", d))
	}
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, models.NewPipelineError(models.ErrConfig, "", fmt.Errorf("zoom factor must be positive, got %v", factor))
	}
	return &ZoomClip{inner: c, factor: factor, interp: draw.ApproxBiLinear}, nil
}

// SetInterpolator selects the resampling kernel.
func (z *ZoomClip) SetInterpolator(interp draw.Interpolator) *ZoomClip {
	if interp != nil {
		z.interp = interp
	}
	return z
}

func (z *ZoomClip) Duration() float64 { return z.inner.Duration() }

func (z *ZoomClip) Size() frame.Size { return z.inner.Size() }

// Factor returns the magnification reached at the end of the clip.
func (z *ZoomClip) Factor() float64 { return z.factor }

// ScaleAt returns the magnification applied at t.
func (z *ZoomClip) ScaleAt(t float64) float64 {
	return ZoomScale(t, z.inner.Duration(), z.factor)
}

// FrameAt renders the inner frame at t magnified by ScaleAt(t).
func (z *ZoomClip) FrameAt(t float64) (*frame.Frame, error) {
	f, err := z.inner.FrameAt(t)
	if err != nil {
		return nil, err
	}

	s := z.ScaleAt(t)
	if s == 1 {
		return f, nil
	}

	z.ensureBuffers(f.Size())
	toRGBA(f, z.src)

	if s < 1 {
		clear(z.dst.Pix)
	}

	// Source to destination: p' = s*(p - c) + c
	cx, cy := float64(f.Width)/2, float64(f.Height)/2
	m := f64.Aff3{
		s, 0, cx * (1 - s),
		0, s, cy * (1 - s),
	}
	z.interp.Transform(z.dst, m, z.src, z.src.Bounds(), draw.Src, nil)

	z.out.Fill(z.dst)
	return z.out, nil
}

// Close releases the render buffers and closes the inner clip.
func (z *ZoomClip) Close() error {
	z.src, z.dst, z.out = nil, nil, nil
	return z.inner.Close()
}

func (z *ZoomClip) ensureBuffers(size frame.Size) {
	if z.out != nil && z.out.Width == size.Width && z.out.Height == size.Height {
		return
	}
	r := image.Rect(0, 0, size.Width, size.Height)
	z.src = image.NewRGBA(r)
	z.dst = image.NewRGBA(r)
	z.out = frame.New(size)
}

// toRGBA copies an opaque RGB frame into dst.
func toRGBA(f *frame.Frame, dst *image.RGBA) {
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Stride:]
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < f.Width; x++ {
			row[x*4] = src[x*3]
			row[x*4+1] = src[x*3+1]
			row[x*4+2] = src[x*3+2]
			row[x*4+3] = 0xff
		}
	}
}
