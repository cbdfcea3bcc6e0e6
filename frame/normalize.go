package frame

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"slideshow/models"
)

// FitSize returns the largest size with the aspect ratio of w×h that fits
// inside size. Each dimension is rounded and kept within [1, size].
func FitSize(w, h int, size Size) (int, int) {
	scale := math.Min(float64(size.Width)/float64(w), float64(size.Height)/float64(h))
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	return clamp(sw, 1, size.Width), clamp(sh, 1, size.Height)
}

// ContentRect reports where a w×h source lands on the normalized canvas.
func ContentRect(w, h int, size Size) image.Rectangle {
	sw, sh := FitSize(w, h, size)
	x := (size.Width - sw) / 2
	y := (size.Height - sh) / 2
	return image.Rect(x, y, x+sw, y+sh)
}

// Normalize decodes the image at path and letterboxes it onto a black canvas
// of the given size, preserving aspect ratio.
//
// Any decode failure, including a zero-sized image, is reported as
// models.ErrDecode.
func Normalize(path string, size Size) (*Frame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrDecode, path, err)
	}
	f, err := NormalizeImage(img, size)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrDecode, path, err)
	}
	return f, nil
}

// NormalizeImage letterboxes an already decoded image.
func NormalizeImage(img image.Image, size Size) (*Frame, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has zero dimension %dx%d", b.Dx(), b.Dy())
	}

	rect := ContentRect(b.Dx(), b.Dy(), size)

	scaled := opaque(img)
	if rect.Dx() != b.Dx() || rect.Dy() != b.Dy() {
		scaled = imaging.Resize(scaled, rect.Dx(), rect.Dy(), imaging.Lanczos)
	}

	canvas := imaging.New(size.Width, size.Height, color.Black)
	canvas = imaging.Paste(canvas, scaled, rect.Min)

	return FromImage(canvas), nil
}

// opaque converts img to NRGBA with full alpha, keeping the stored colour of
// transparent pixels. Alpha must go before resampling, which weights by it.
func opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
