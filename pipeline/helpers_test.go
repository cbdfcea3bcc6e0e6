package pipeline

import (
	"context"
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"slideshow/audio"
	"slideshow/config"
	"slideshow/frame"
)

// writeImage saves a solid w×h image; the format follows the extension.
func writeImage(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	path := filepath.Join(dir, name)
	img := imaging.New(w, h, c)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
	return path
}

func writeCorrupt(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("definitely not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testConfig returns a small, fast configuration rooted in a temp dir with
// an existing (placeholder) audio file.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.ImageDir = filepath.Join(root, "images")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.AudioPath = filepath.Join(root, "music.m4a")
	cfg.Width, cfg.Height = 64, 36
	cfg.FPS = 10
	cfg.Progress = false

	if err := os.Mkdir(cfg.ImageDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.AudioPath, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

// fakeEncoder renders every frame like the real encoder, then writes a
// placeholder file.
type fakeEncoder struct {
	mu      sync.Mutex
	fps     float64
	fail    error
	partial bool // write a file before failing

	calls      []string
	frames     []int
	audio      []*audio.Trimmed
	firstFrame []byte
}

func (e *fakeEncoder) Encode(ctx context.Context, seg *audio.Attached, outputPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, outputPath)
	e.audio = append(e.audio, seg.Audio)

	if e.fail != nil {
		if e.partial {
			_ = os.WriteFile(outputPath, []byte("partial"), 0644)
		}
		return e.fail
	}

	cw := &captureWriter{limit: frameBytes(seg.Segment.Size())}
	n, err := WriteFrames(ctx, cw, seg.Segment, e.fps)
	if err != nil {
		return err
	}
	e.frames = append(e.frames, n)
	if e.firstFrame == nil {
		e.firstFrame = cw.head
	}
	return os.WriteFile(outputPath, []byte("mp4 placeholder"), 0644)
}

func frameBytes(s frame.Size) int {
	return s.Width * s.Height * frame.BytesPerPixel
}

// captureWriter keeps the first limit bytes written and discards the rest.
type captureWriter struct {
	limit int
	head  []byte
	total int
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if room := w.limit - len(w.head); room > 0 {
		w.head = append(w.head, p[:min(room, len(p))]...)
	}
	w.total += len(p)
	return len(p), nil
}

var _ io.Writer = (*captureWriter)(nil)

type fakeLoader struct {
	duration float64
	err      error
	loaded   []*audio.Track
}

func (l *fakeLoader) Load(_ context.Context, path string) (*audio.Track, error) {
	if l.err != nil {
		return nil, l.err
	}
	tr := &audio.Track{Path: path, Duration: l.duration, Codec: "aac"}
	l.loaded = append(l.loaded, tr)
	return tr, nil
}

func fixedDuration(d float64, err error) DurationProber {
	return ProbeDurationFunc(func(context.Context, string) (float64, error) {
		return d, err
	})
}

var errBoom = errors.New("boom")

func rgbAt(buf []byte, width, x, y int) (uint8, uint8, uint8) {
	i := (y*width + x) * frame.BytesPerPixel
	return buf[i], buf[i+1], buf[i+2]
}

func mp4Files(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

