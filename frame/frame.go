// Package frame holds fixed-size packed RGB frames and the image normalizer
// that produces them.
package frame

import (
	"fmt"
	"image"
	"image/color"
)

// BytesPerPixel is the packed RGB24 pixel width.
const BytesPerPixel = 3

// Size is a target frame size in pixels.
type Size struct {
	Width  int `yaml:"width" toml:"width" json:"width"`
	Height int `yaml:"height" toml:"height" json:"height"`
}

// Validate checks that both dimensions are positive and even, as required
// by yuv420p chroma subsampling.
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.Width%2 != 0 || s.Height%2 != 0 {
		return fmt.Errorf("frame size must be even, got %dx%d", s.Width, s.Height)
	}
	return nil
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Frame is a packed 8-bit RGB image: three bytes per pixel, rows Stride
// bytes apart.
type Frame struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// New allocates a black frame.
func New(size Size) *Frame {
	stride := size.Width * BytesPerPixel
	return &Frame{
		Width:  size.Width,
		Height: size.Height,
		Stride: stride,
		Pix:    make([]byte, stride*size.Height),
	}
}

// Size returns the frame dimensions.
func (f *Frame) Size() Size {
	return Size{Width: f.Width, Height: f.Height}
}

// RGB returns the pixel at (x, y).
func (f *Frame) RGB(x, y int) (r, g, b uint8) {
	i := y*f.Stride + x*BytesPerPixel
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Image returns an opaque NRGBA copy of the frame.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	f.CopyTo(img)
	return img
}

// CopyTo writes the frame into dst, which must have the same dimensions.
// Alpha is set to opaque.
func (f *Frame) CopyTo(dst *image.NRGBA) {
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Stride : y*f.Stride+f.Width*BytesPerPixel]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			row[x*4] = src[x*3]
			row[x*4+1] = src[x*3+1]
			row[x*4+2] = src[x*3+2]
			row[x*4+3] = 0xff
		}
	}
}

// Fill sets every pixel of f from img, dropping alpha. img bounds must match
// the frame size.
func (f *Frame) Fill(img image.Image) {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.NRGBA:
		f.fillPix(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
	case *image.RGBA:
		f.fillPix(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
	default:
		for y := 0; y < f.Height; y++ {
			row := f.Pix[y*f.Stride:]
			for x := 0; x < f.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				row[x*3] = c.R
				row[x*3+1] = c.G
				row[x*3+2] = c.B
			}
		}
	}
}

func (f *Frame) fillPix(pix []byte, stride, offset int) {
	for y := 0; y < f.Height; y++ {
		src := pix[offset+y*stride:]
		dst := f.Pix[y*f.Stride:]
		for x := 0; x < f.Width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
}

// FromImage packs img into a new frame.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := New(Size{Width: b.Dx(), Height: b.Dy()})
	f.Fill(img)
	return f
}
