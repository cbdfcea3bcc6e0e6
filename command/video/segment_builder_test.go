package video

import (
	"slices"
	"strings"
	"testing"

	"slideshow/command"
)

func TestNewSegmentBuilder(t *testing.T) {
	builder := NewSegmentBuilder("/output/output_video_1.mp4")

	if builder.outputPath != "/output/output_video_1.mp4" {
		t.Errorf("Expected output path '/output/output_video_1.mp4', got '%s'", builder.outputPath)
	}
	if builder.codec != "libx264" {
		t.Errorf("Expected default codec 'libx264', got '%s'", builder.codec)
	}
	if builder.bitrate != "8000k" || builder.audioBitrate != "192k" {
		t.Errorf("Unexpected default bitrates %s / %s", builder.bitrate, builder.audioBitrate)
	}
	if builder.FrameBytes() != 1920*1080*3 {
		t.Errorf("Expected %d bytes per frame, got %d", 1920*1080*3, builder.FrameBytes())
	}
}

func TestSegmentBuilder_BuildArgs(t *testing.T) {
	builder := NewSegmentBuilder("/out/output_video_2.mp4").
		SetFrameSize(1920, 1080).
		SetFrameRate(30).
		SetAudio("/in/background_music.m4a", 4.0)

	expected := []string{
		"-hide_banner",
		"-f", "rawvideo", "-pix_fmt", "rgb24", "-s", "1920x1080", "-r", "30", "-i", "pipe:0",
		"-t", "00:00:04.000", "-i", "/in/background_music.m4a",
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "libx264", "-b:v", "8000k", "-preset", "medium", "-pix_fmt", "yuv420p",
		"-profile:v", "high", "-level", "4.0", "-threads", "4",
		"-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart",
		"-progress", "pipe:2", "-nostats",
		"-y", "/out/output_video_2.mp4",
	}

	args := builder.BuildArgs()
	if !slices.Equal(args, expected) {
		t.Errorf("BuildArgs() =\n%v\nwant\n%v", args, expected)
	}
}

func TestSegmentBuilder_NoAudio(t *testing.T) {
	args := strings.Join(NewSegmentBuilder("/out/a.mp4").BuildArgs(), " ")

	if strings.Contains(args, "1:a:0") || strings.Contains(args, "-c:a") {
		t.Errorf("Expected no audio mapping, got: %s", args)
	}
	if !strings.Contains(args, "-an") {
		t.Errorf("Expected -an without audio, got: %s", args)
	}
}

func TestSegmentBuilder_Overrides(t *testing.T) {
	builder := NewSegmentBuilder("/out/a.mp4").
		SetFrameSize(1280, 720).
		SetFrameRate(29.97).
		SetCodec("h264_nvenc").
		SetBitrate("5M").
		SetPreset("p4").
		SetPixelFormat("yuv420p").
		SetProfile("", "").
		SetThreads(0).
		SetAudio("/in/music.mp3", 2.5).
		SetAudioCodec("libopus", "").
		SetFaststart(false).
		SetProgress(false).
		AddExtraArgs("-tune", "stillimage")

	argsStr := strings.Join(builder.BuildArgs(), " ")

	for _, want := range []string{"-s 1280x720", "-r 29.97", "-c:v h264_nvenc", "-b:v 5M", "-preset p4",
		"-t 00:00:02.500", "-c:a libopus", "-tune stillimage -y /out/a.mp4"} {
		if !strings.Contains(argsStr, want) {
			t.Errorf("Expected %q in args: %s", want, argsStr)
		}
	}
	for _, unwanted := range []string{"-profile:v", "-level", "-threads", "-b:a", "+faststart", "-progress"} {
		if strings.Contains(argsStr, unwanted) {
			t.Errorf("Did not expect %q in args: %s", unwanted, argsStr)
		}
	}
}

func TestSegmentBuilder_Validate(t *testing.T) {
	tests := []struct {
		name    string
		builder *SegmentBuilder
		errText string
	}{
		{"valid", NewSegmentBuilder("/out/a.mp4").SetAudio("/in/a.m4a", 4), ""},
		{"empty output", NewSegmentBuilder(""), "output path"},
		{"bad size", NewSegmentBuilder("/out/a.mp4").SetFrameSize(0, 1080), "frame size"},
		{"bad rate", NewSegmentBuilder("/out/a.mp4").SetFrameRate(0), "frame rate"},
		{"no codec", NewSegmentBuilder("/out/a.mp4").SetCodec(""), "codec"},
		{"zero audio", NewSegmentBuilder("/out/a.mp4").SetAudio("/in/a.m4a", 0), "audio duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Validate()
			if tt.errText == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestSegmentBuilder_DryRun(t *testing.T) {
	builder := NewSegmentBuilder("/out/my video.mp4").SetAudio("/in/a.m4a", 4)

	line, err := builder.DryRun()
	if err != nil {
		t.Fatalf("DryRun failed: %v", err)
	}
	if !strings.HasPrefix(line, "ffmpeg -hide_banner -f rawvideo") {
		t.Errorf("Unexpected dry run prefix: %s", line)
	}
	if !strings.HasSuffix(line, "-y '/out/my video.mp4'") {
		t.Errorf("Expected quoted output path, got: %s", line)
	}

	if _, err := NewSegmentBuilder("").DryRun(); err == nil {
		t.Error("Expected DryRun to fail for invalid builder")
	}
}

func TestSegmentBuilder_CommandInterface(t *testing.T) {
	var cmd command.Command = NewSegmentBuilder("/out/a.mp4").SetAudio("/in/a.m4a", 4)

	if cmd.GetTaskType() != command.TaskTypeSegment {
		t.Errorf("Expected task type segment, got %s", cmd.GetTaskType())
	}
	if cmd.GetInputPath() != "/in/a.m4a" {
		t.Errorf("Expected input path /in/a.m4a, got %s", cmd.GetInputPath())
	}
	if cmd.GetOutputPath() != "/out/a.mp4" {
		t.Errorf("Expected output path /out/a.mp4, got %s", cmd.GetOutputPath())
	}
}
