// Package command provides the Command interface implemented by the ffmpeg
// argument builders.
package command

import (
	"strings"
)

// TaskType represents the type of encoding task.
type TaskType string

const (
	TaskTypeSegment TaskType = "segment" // Image sequence with background audio
)

// Command represents an FFmpeg command that can be built or previewed.
//
// Execution is left to ffmpeg.Runner, which streams rendered frames into the
// process; a Command only describes the invocation.
//
// Example usage:
//
//	cmd := video.NewSegmentBuilder("output_videos/output_video_1.mp4").
//		SetFrameSize(1920, 1080).
//		SetAudio("background_music.m4a", 4.0)
//
//	// Preview the command
//	line, _ := cmd.DryRun()
//
//	// Execute it
//	runner.Run(ctx, cmd.BuildArgs(), progress, writeFrames)
type Command interface {
	// BuildArgs constructs and returns the FFmpeg command arguments as a slice.
	// The returned slice is suitable for exec.Command("ffmpeg", args...).
	BuildArgs() []string

	// DryRun returns the FFmpeg command as a string without executing it.
	//
	// Returns an error if the command cannot be built (e.g., invalid parameters).
	DryRun() (string, error)

	// GetTaskType returns the type of task.
	GetTaskType() TaskType

	// GetInputPath returns the primary file input for this command.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}

// FormatCommandLine renders binary and args as a shell-pasteable line.
func FormatCommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(binary))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`*?[]#~=&;|<>(){}") || isPlainFlagValue(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// isPlainFlagValue allows "key=value" style ffmpeg arguments without quoting.
func isPlainFlagValue(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_.:/+,=%", r):
		default:
			return false
		}
	}
	return true
}
