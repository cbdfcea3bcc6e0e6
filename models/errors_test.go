package models

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPipelineError_Is(t *testing.T) {
	err := NewPipelineError(ErrEncode, "/out/output_video_1.mp4", io.ErrUnexpectedEOF).WithBatch(1)

	if !errors.Is(err, ErrEncode) {
		t.Error("Expected errors.Is to match the kind")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Expected errors.Is to match the cause")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("Did not expect ErrDecode to match")
	}

	var pe *PipelineError
	if !errors.As(err, &pe) || pe.Batch != 1 {
		t.Errorf("Expected errors.As to recover batch index, got %+v", pe)
	}
}

func TestPipelineError_Message(t *testing.T) {
	err := NewPipelineError(ErrDecode, "/in/b.jpg", errors.New("invalid JPEG format")).WithBatch(2)
	msg := err.Error()

	for _, want := range []string{"batch 2", "image decode failed", "/in/b.jpg", "invalid JPEG format"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in %q", want, msg)
		}
	}

	bare := NewPipelineError(ErrEmptyBatch, "", nil)
	if bare.Error() != ErrEmptyBatch.Error() {
		t.Errorf("Expected bare kind message, got %q", bare.Error())
	}
	if !errors.Is(bare, ErrEmptyBatch) {
		t.Error("Expected errors.Is to match kind without cause")
	}
}
