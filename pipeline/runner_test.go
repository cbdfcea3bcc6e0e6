package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"slideshow/models"
)


func TestRunExampleScenario(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, cfg.ImageDir, "a.png", 800, 600, color.NRGBA{R: 255, A: 255})
	writeCorrupt(t, cfg.ImageDir, "b.jpg")
	writeImage(t, cfg.ImageDir, "c.jpg", 1920, 1080, color.NRGBA{B: 255, A: 255})

	enc := &fakeEncoder{fps: cfg.FPS}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{duration: 180}).SetProber(fixedDuration(4.0, nil))

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(report.Batches))
	}
	br := report.Batches[0]
	if br.Status != models.BatchStatusEncoded {
		t.Fatalf("expected encoded batch, got %s (%s)", br.Status, br.ErrorMsg)
	}
	if want := filepath.Join(cfg.OutputDir, "output_video_1.mp4"); br.OutputPath != want {
		t.Errorf("expected output %s, got %s", want, br.OutputPath)
	}
	if br.SegmentDuration != 4.0 {
		t.Errorf("expected 4s segment, got %v", br.SegmentDuration)
	}
	if br.AudioDuration != 4.0 {
		t.Errorf("expected audio trimmed to 4s, got %v", br.AudioDuration)
	}
	if br.VerifiedDuration != 4.0 || len(br.Warnings) != 0 {
		t.Errorf("expected clean verification, got %v %v", br.VerifiedDuration, br.Warnings)
	}

	if len(br.Images) != 3 {
		t.Fatalf("expected 3 image results, got %d", len(br.Images))
	}
	for i, want := range []bool{true, false, true} {
		if br.Images[i].Success != want {
			t.Errorf("image %d (%s): success=%v, want %v", i, br.Images[i].Path, br.Images[i].Success, want)
		}
	}
	if !errors.Is(br.Images[1].Error, models.ErrDecode) {
		t.Errorf("expected decode error for b.jpg, got %v", br.Images[1].Error)
	}

	if got := enc.frames; len(got) != 1 || got[0] != 40 {
		t.Errorf("expected 40 frames written, got %v", got)
	}

	// a.png is 4:3, so at t=0 it is pillarboxed in the 16:9 frame.
	if r, g, b := rgbAt(enc.firstFrame, cfg.Width, 0, 18); r != 0 || g != 0 || b != 0 {
		t.Errorf("expected black padding at left edge, got %d,%d,%d", r, g, b)
	}
	if r, g, b := rgbAt(enc.firstFrame, cfg.Width, 32, 18); r < 250 || g > 5 || b > 5 {
		t.Errorf("expected red content at centre, got %d,%d,%d", r, g, b)
	}

	s := report.Summary
	if s.Images != 3 || s.ImagesOK != 2 || s.ImagesFailed != 1 || s.BatchesEncoded != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}
	if files := mp4Files(t, cfg.OutputDir); len(files) != 1 {
		t.Errorf("expected one output file, got %v", files)
	}
}

func TestRunMultipleBatches(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 2
	cfg.ImageDuration = 1
	for _, name := range []string{"01.png", "02.png", "03.png", "04.png", "05.png"} {
		writeImage(t, cfg.ImageDir, name, 32, 18, color.White)
	}

	enc := &fakeEncoder{fps: cfg.FPS}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{duration: 60}).SetProber(nil)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Batches) != 3 {
		t.Fatalf("expected ceil(5/2)=3 batches, got %d", len(report.Batches))
	}
	wantDurations := []float64{2, 2, 1}
	for i, br := range report.Batches {
		if br.Index != i+1 {
			t.Errorf("batch %d has index %d", i, br.Index)
		}
		if br.SegmentDuration != wantDurations[i] {
			t.Errorf("batch %d: expected %vs, got %v", br.Index, wantDurations[i], br.SegmentDuration)
		}
	}
	if len(enc.calls) != 3 || filepath.Base(enc.calls[2]) != "output_video_3.mp4" {
		t.Errorf("unexpected encode calls: %v", enc.calls)
	}
}

func TestRunShortAudio(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, cfg.ImageDir, "a.png", 64, 36, color.White)
	writeImage(t, cfg.ImageDir, "b.png", 64, 36, color.White)

	enc := &fakeEncoder{fps: cfg.FPS}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{duration: 3}).SetProber(nil)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	br := report.Batches[0]
	if br.SegmentDuration != 4 || br.AudioDuration != 3 {
		t.Errorf("expected 4s video with full 3s track, got %v / %v", br.SegmentDuration, br.AudioDuration)
	}
	if enc.audio[0].Duration != 3 {
		t.Errorf("encoder received %vs of audio, want 3", enc.audio[0].Duration)
	}
}

func TestRunAllCorruptBatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 2
	writeCorrupt(t, cfg.ImageDir, "a.jpg")
	writeCorrupt(t, cfg.ImageDir, "b.png")
	writeImage(t, cfg.ImageDir, "c.png", 64, 36, color.White)

	enc := &fakeEncoder{fps: cfg.FPS}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{duration: 60}).SetProber(nil)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := report.Batches[0].Status; got != models.BatchStatusSkipped {
		t.Errorf("expected first batch skipped, got %s", got)
	}
	if got := report.Batches[1].Status; got != models.BatchStatusEncoded {
		t.Errorf("expected second batch encoded, got %s", got)
	}
	if len(enc.calls) != 1 {
		t.Errorf("expected a single encode, got %v", enc.calls)
	}
	files := mp4Files(t, cfg.OutputDir)
	if len(files) != 1 || filepath.Base(files[0]) != "output_video_2.mp4" {
		t.Errorf("expected only output_video_2.mp4, got %v", files)
	}
	if s := report.Summary; s.BatchesSkipped != 1 || s.ImagesFailed != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestRunNoImages(t *testing.T) {
	cfg := testConfig(t)
	writeCorrupt(t, cfg.ImageDir, "notes.txt")

	enc := &fakeEncoder{fps: cfg.FPS}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{duration: 60})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Batches) != 0 || len(enc.calls) != 0 {
		t.Errorf("expected no work, got %d batches and %d encodes", len(report.Batches), len(enc.calls))
	}
	if len(report.Warnings) != 1 || report.Summary.Warnings != 1 {
		t.Errorf("expected one run warning, got %v", report.Warnings)
	}
	if files := mp4Files(t, cfg.OutputDir); len(files) != 0 {
		t.Errorf("expected no output files, got %v", files)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, LockFileName)); !os.IsNotExist(err) {
		t.Errorf("expected no lock file without images, stat err = %v", err)
	}
}

func TestRunMissingInputs(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfgPaths *[2]string)
	}{
		{name: "image dir", modify: func(p *[2]string) { p[0] += "-missing" }},
		{name: "audio file", modify: func(p *[2]string) { p[1] += "-missing" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			paths := [2]string{cfg.ImageDir, cfg.AudioPath}
			tt.modify(&paths)
			cfg.ImageDir, cfg.AudioPath = paths[0], paths[1]

			runner, err := NewRunner(cfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			_, err = runner.Run(context.Background())
			if !errors.Is(err, models.ErrFatalInput) {
				t.Fatalf("expected ErrFatalInput, got %v", err)
			}
			if _, statErr := os.Stat(cfg.OutputDir); !os.IsNotExist(statErr) {
				t.Error("output directory should not be created when inputs are missing")
			}
		})
	}
}

func TestRunAudioLoadFailure(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, cfg.ImageDir, "a.png", 64, 36, color.White)

	enc := &fakeEncoder{fps: cfg.FPS}
	loadErr := models.NewPipelineError(models.ErrAudioLoad, cfg.AudioPath, errors.New("no audio stream"))
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{err: loadErr})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	br := report.Batches[0]
	if br.Status != models.BatchStatusFailed || !errors.Is(br.Error, models.ErrAudioLoad) {
		t.Errorf("expected failed batch with ErrAudioLoad, got %s %v", br.Status, br.Error)
	}
	if !strings.Contains(br.ErrorMsg, "batch 1") {
		t.Errorf("expected batch index in error, got %q", br.ErrorMsg)
	}
	if len(enc.calls) != 0 {
		t.Error("encoder should not run without audio")
	}
}

func TestRunEncodeFailureContinues(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1
	writeImage(t, cfg.ImageDir, "a.png", 64, 36, color.White)
	writeImage(t, cfg.ImageDir, "b.png", 64, 36, color.White)

	failing := &fakeEncoder{fps: cfg.FPS, fail: errBoom, partial: true}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(failing).SetAudioLoader(&fakeLoader{duration: 60}).SetProber(nil)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Batches) != 2 || len(failing.calls) != 2 {
		t.Fatalf("expected both batches attempted, got %d results, %d calls", len(report.Batches), len(failing.calls))
	}
	for _, br := range report.Batches {
		if br.Status != models.BatchStatusFailed || !errors.Is(br.Error, models.ErrEncode) {
			t.Errorf("batch %d: expected ErrEncode failure, got %s %v", br.Index, br.Status, br.Error)
		}
	}
	if files := mp4Files(t, cfg.OutputDir); len(files) != 0 {
		t.Errorf("partial outputs should be removed, found %v", files)
	}
}

func TestRunVerificationWarnings(t *testing.T) {
	tests := []struct {
		name   string
		prober DurationProber
		want   string
	}{
		{name: "mismatch", prober: fixedDuration(3.5, nil), want: "differs from expected"},
		{name: "probe error", prober: fixedDuration(0, errBoom), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			writeImage(t, cfg.ImageDir, "a.png", 64, 36, color.White)
			writeImage(t, cfg.ImageDir, "b.png", 64, 36, color.White)

			runner, err := NewRunner(cfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			runner.SetEncoder(&fakeEncoder{fps: cfg.FPS}).SetAudioLoader(&fakeLoader{duration: 60}).SetProber(tt.prober)

			report, err := runner.Run(context.Background())
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			br := report.Batches[0]
			if br.Status != models.BatchStatusEncoded {
				t.Fatalf("verification must not fail the batch, got %s", br.Status)
			}
			if len(br.Warnings) != 1 || !strings.Contains(br.Warnings[0], tt.want) {
				t.Errorf("expected warning containing %q, got %v", tt.want, br.Warnings)
			}
			if report.Summary.Warnings != 1 {
				t.Errorf("expected 1 warning in summary, got %d", report.Summary.Warnings)
			}
		})
	}
}

func TestRunDryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	cfg.BatchSize = 2
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writeImage(t, cfg.ImageDir, name, 64, 36, color.White)
	}

	enc := &fakeEncoder{fps: cfg.FPS}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{duration: 60})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.DryRun || report.Summary.BatchesPlanned != 2 {
		t.Errorf("expected 2 planned batches, got %+v", report.Summary)
	}
	if report.Batches[1].SegmentDuration != 2 {
		t.Errorf("expected planned duration 2s for the last batch, got %v", report.Batches[1].SegmentDuration)
	}
	if len(enc.calls) != 0 {
		t.Error("dry run must not encode")
	}
	if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
		t.Error("dry run must not create the output directory")
	}

	last := report.Batches[1]
	for _, want := range []string{
		"ffmpeg ",
		"-f rawvideo",
		"-s 64x36",
		"-t 00:00:02.000 -i " + cfg.AudioPath,
		"-profile:v high",
		last.OutputPath,
	} {
		if !strings.Contains(last.Command, want) {
			t.Errorf("planned command missing %q:\n%s", want, last.Command)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, cfg.ImageDir, "a.png", 64, 36, color.White)

	enc := &fakeEncoder{fps: cfg.FPS}
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(enc).SetAudioLoader(&fakeLoader{duration: 60})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := runner.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil || len(report.Batches) != 0 || len(enc.calls) != 0 {
		t.Error("no batch should start after cancellation")
	}
}

func TestRunOutputDirLocked(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, cfg.ImageDir, "a.png", 64, 36, color.White)
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		t.Fatal(err)
	}

	held := flock.New(filepath.Join(cfg.OutputDir, LockFileName))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer held.Unlock()

	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(&fakeEncoder{fps: cfg.FPS}).SetAudioLoader(&fakeLoader{duration: 60})

	_, err = runner.Run(context.Background())
	if !errors.Is(err, models.ErrFatalInput) || !strings.Contains(err.Error(), "another slideshow run") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
}

func TestRunWritesReportAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReportPath = filepath.Join(t.TempDir(), "report.json")
	cfg.MetricsPath = filepath.Join(t.TempDir(), "slideshow.prom")
	writeImage(t, cfg.ImageDir, "a.png", 64, 36, color.White)

	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner.SetEncoder(&fakeEncoder{fps: cfg.FPS}).SetAudioLoader(&fakeLoader{duration: 60}).SetProber(nil)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(cfg.ReportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var decoded models.RunReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.RunID != report.RunID || decoded.Summary.BatchesEncoded != 1 {
		t.Errorf("unexpected report contents: %+v", decoded.Summary)
	}

	prom, err := os.ReadFile(cfg.MetricsPath)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(prom), `slideshow_batches_total{status="encoded"} 1`) {
		t.Errorf("unexpected metrics:\n%s", prom)
	}
}
