package pipeline

import (
	"bytes"
	"context"
	"testing"

	"slideshow/clip"
	"slideshow/frame"
)

func solidFrame(size frame.Size, r, g, b byte) *frame.Frame {
	f := frame.New(size)
	for i := 0; i < len(f.Pix); i += frame.BytesPerPixel {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
	}
	return f
}

func TestWriteFrames(t *testing.T) {
	size := frame.Size{Width: 4, Height: 2}
	first, _ := clip.NewImageClip(solidFrame(size, 255, 0, 0), 0.4)
	second, _ := clip.NewImageClip(solidFrame(size, 0, 0, 255), 0.6)
	seq, err := clip.Concatenate(first, second)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	n, err := WriteFrames(context.Background(), &buf, seq, 10)
	if err != nil {
		t.Fatalf("WriteFrames failed: %v", err)
	}
	if n != 10 {
		t.Fatalf("expected 10 frames, got %d", n)
	}

	frameLen := size.Width * size.Height * frame.BytesPerPixel
	if buf.Len() != n*frameLen {
		t.Fatalf("expected %d bytes, got %d", n*frameLen, buf.Len())
	}

	// Frames 0-3 fall in the first clip, frame 4 (t=0.4) starts the second.
	for i, wantRed := range []bool{true, true, true, true, false, false, false, false, false, false} {
		px := buf.Bytes()[i*frameLen:]
		if isRed := px[0] == 255 && px[2] == 0; isRed != wantRed {
			t.Errorf("frame %d: red=%v, want %v", i, isRed, wantRed)
		}
	}
}

func TestWriteFramesPaddedStride(t *testing.T) {
	f := &frame.Frame{Width: 2, Height: 2, Stride: 8, Pix: []byte{
		1, 2, 3, 4, 5, 6, 0xEE, 0xEE,
		7, 8, 9, 10, 11, 12, 0xEE, 0xEE,
	}}
	c, err := clip.NewImageClip(f, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := WriteFrames(context.Background(), &buf, c, 10); err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("expected padding to be skipped, got %v", buf.Bytes())
	}
}

func TestWriteFramesCancelled(t *testing.T) {
	c, _ := clip.NewImageClip(frame.New(frame.Size{Width: 2, Height: 2}), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := WriteFrames(ctx, &bytes.Buffer{}, c, 30)
	if err == nil || n != 0 {
		t.Fatalf("expected cancellation before the first frame, got n=%d err=%v", n, err)
	}
}

func TestWriteFramesClosedClip(t *testing.T) {
	c, _ := clip.NewImageClip(frame.New(frame.Size{Width: 2, Height: 2}), 1)
	_ = c.Close()

	if _, err := WriteFrames(context.Background(), &bytes.Buffer{}, c, 30); err == nil {
		t.Fatal("expected error from closed clip")
	}
}
