package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"slideshow/models"
)

// FrameWriter writes raw frames to the encoder's stdin.
type FrameWriter func(w io.Writer) error

// Runner executes ffmpeg with frames streamed on stdin.
type Runner struct {
	binary           string
	progressCallback models.ProgressCallback
}

// NewRunner creates a Runner using the ffmpeg binary on PATH.
func NewRunner() *Runner {
	return &Runner{binary: "ffmpeg"}
}

// SetBinary sets the ffmpeg executable.
func (r *Runner) SetBinary(path string) *Runner {
	r.binary = path
	return r
}

// SetProgressCallback sets the function receiving progress updates.
func (r *Runner) SetProgressCallback(callback models.ProgressCallback) *Runner {
	r.progressCallback = callback
	return r
}

// Binary returns the ffmpeg executable in use.
func (r *Runner) Binary() string {
	return r.binary
}

// Run starts ffmpeg with args, feeds stdin through write and waits for the
// process to exit. Progress lines on stderr update progress.
//
// If ffmpeg exits early, the write error is superseded by the exit status
// and the last lines ffmpeg printed. If ctx is cancelled the process is
// killed and ctx.Err() is returned wrapped.
func (r *Runner) Run(ctx context.Context, args []string, progress *models.EncodingProgress, write FrameWriter) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	if progress == nil {
		progress = models.NewEncodingProgress(0, 0)
	}
	parser := NewProgressParser()
	parsed := make(chan error, 1)
	go func() {
		parsed <- parser.StreamProgress(stderr, progress, r.progressCallback)
	}()

	bw := bufio.NewWriterSize(stdin, 1<<20)
	writeErr := write(bw)
	if writeErr == nil {
		writeErr = bw.Flush()
	}
	closeErr := stdin.Close()

	// A stderr read error only loses progress; the exit status decides
	<-parsed
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		progress.State = models.ProgressStateFailed
		return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
	}

	if waitErr != nil {
		progress.State = models.ProgressStateFailed
		if tail := parser.Tail(); tail != "" {
			return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", waitErr, tail)
		}
		return fmt.Errorf("ffmpeg failed: %w", waitErr)
	}

	if err := errors.Join(writeErr, closeErr); err != nil {
		progress.State = models.ProgressStateFailed
		return fmt.Errorf("failed to write frames: %w", err)
	}
	progress.Frame = max(progress.Frame, progress.TotalFrames)
	progress.Progress = 100
	progress.State = models.ProgressStateCompleted
	return nil
}

// Available reports whether the ffmpeg binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
