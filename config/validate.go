package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"slideshow/batcher"
	"slideshow/clip"
	"slideshow/models"
)

var bitrateRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[kKmM]?$`)

// Validate checks if the configuration is valid.
//
// All problems are reported together; the error wraps models.ErrConfig.
// Validate does not touch the filesystem, see CheckInputs.
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.ImageDir) == "" {
		errors = append(errors, "image directory is required")
	}
	if strings.TrimSpace(c.AudioPath) == "" {
		errors = append(errors, "audio file is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errors = append(errors, "output directory is required")
	}

	if c.BatchSize < batcher.MinBatchSize || c.BatchSize > batcher.MaxBatchSize {
		errors = append(errors, fmt.Sprintf("batch size must be between %d and %d", batcher.MinBatchSize, batcher.MaxBatchSize))
	}
	if c.ImageDuration <= 0 {
		errors = append(errors, "image duration must be positive")
	}
	if c.ZoomFactor <= 0 {
		errors = append(errors, "zoom factor must be positive")
	}
	if _, err := clip.ParseFilter(c.ZoomFilter); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.FrameSize().Validate(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.FPS <= 0 || c.FPS > 240 {
		errors = append(errors, "fps must be between 0 and 240")
	} else if c.ImageDuration > 0 && clip.FrameCount(c.ImageDuration, c.FPS) < 1 {
		errors = append(errors, "image duration is shorter than one frame")
	}

	if err := c.Video.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("video config: %v", err))
	}
	if err := c.Audio.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("audio config: %v", err))
	}

	if !slices.Contains(LogLevelValues(), strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s', must be one of: %s",
			c.LogLevel, strings.Join(LogLevelValues(), ", ")))
	}
	if !slices.Contains(LogFormatValues(), strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s', must be one of: %s",
			c.LogFormat, strings.Join(LogFormatValues(), ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%w:\n  - %s", models.ErrConfig, strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if video configuration is valid
func (vc *VideoConfig) Validate() error {
	var errors []string

	if vc.Codec == "" {
		errors = append(errors, "codec is required")
	}
	if vc.Bitrate != "" && !bitrateRegex.MatchString(vc.Bitrate) {
		errors = append(errors, fmt.Sprintf("bitrate '%s' must look like 8000k or 8M", vc.Bitrate))
	}
	if vc.Threads < 0 {
		errors = append(errors, "threads cannot be negative (use 0 for auto)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks if audio configuration is valid
func (ac *AudioConfig) Validate() error {
	var errors []string

	if ac.Codec == "" {
		errors = append(errors, "codec is required")
	}
	if ac.Bitrate != "" && !bitrateRegex.MatchString(ac.Bitrate) {
		errors = append(errors, fmt.Sprintf("bitrate '%s' must look like 192k", ac.Bitrate))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// CheckInputs verifies that the image directory and audio file exist.
//
// A missing input is fatal for the whole run and is reported as
// models.ErrFatalInput.
func (c *Config) CheckInputs() error {
	info, err := os.Stat(c.ImageDir)
	if err != nil {
		return models.NewPipelineError(models.ErrFatalInput, c.ImageDir, fmt.Errorf("image directory does not exist"))
	}
	if !info.IsDir() {
		return models.NewPipelineError(models.ErrFatalInput, c.ImageDir, fmt.Errorf("image path is not a directory"))
	}

	info, err = os.Stat(c.AudioPath)
	if err != nil {
		return models.NewPipelineError(models.ErrFatalInput, c.AudioPath, fmt.Errorf("audio file does not exist"))
	}
	if info.IsDir() {
		return models.NewPipelineError(models.ErrFatalInput, c.AudioPath, fmt.Errorf("audio path is a directory"))
	}

	return nil
}
