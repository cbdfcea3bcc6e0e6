package ffmpeg

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"slideshow/internal/timeutil"
	"slideshow/models"
)

// tailSize is the number of non-progress stderr lines kept for error reports.
const tailSize = 20

// ProgressParser parses ffmpeg stderr output for encoding metrics.
//
// Both the one-line -stats format and the key=value -progress format are
// understood.
type ProgressParser struct {
	frameRegex   *regexp.Regexp
	fpsRegex     *regexp.Regexp
	sizeRegex    *regexp.Regexp
	timeRegex    *regexp.Regexp
	bitrateRegex *regexp.Regexp
	speedRegex   *regexp.Regexp

	tail []string
}

// NewProgressParser creates a new parser for ffmpeg progress output
func NewProgressParser() *ProgressParser {
	return &ProgressParser{
		// Match both "frame=123" and "frame= 123" formats
		frameRegex:   regexp.MustCompile(`(?:^|\s)frame=\s*(\d+)`),
		fpsRegex:     regexp.MustCompile(`(?:^|\s)fps=\s*([0-9.]+)`),
		sizeRegex:    regexp.MustCompile(`(?:^|\s)(total_)?size=\s*(\d+)\s*([kKMG]i?B)?`),
		timeRegex:    regexp.MustCompile(`(?:^|\s)(?:out_)?time=\s*(-?[0-9:\.]+)`),
		bitrateRegex: regexp.MustCompile(`(?:^|\s)bitrate=\s*([0-9.]+)`),
		speedRegex:   regexp.MustCompile(`(?:^|\s)speed=\s*([0-9.]+)x?`),
	}
}

// ParseLine parses a single line of ffmpeg stderr output and updates the
// progress. It reports whether any field was updated.
func (pp *ProgressParser) ParseLine(line string, progress *models.EncodingProgress) bool {
	line = strings.TrimSpace(line)
	if line == "" || line == "progress=continue" || line == "progress=end" {
		return false
	}

	updated := false

	if matches := pp.frameRegex.FindStringSubmatch(line); len(matches) > 1 {
		if frame, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			progress.Frame = frame
			updated = true
		}
	}

	if matches := pp.fpsRegex.FindStringSubmatch(line); len(matches) > 1 {
		if fps, err := strconv.ParseFloat(matches[1], 64); err == nil {
			progress.FPS = fps
			updated = true
		}
	}

	// -progress reports total_size in bytes, -stats reports size in kB
	if matches := pp.sizeRegex.FindStringSubmatch(line); len(matches) > 2 {
		unit := matches[3]
		if unit == "" {
			unit = "kB"
			if matches[1] != "" {
				unit = "B"
			}
		}
		progress.Size = matches[2] + unit
		updated = true
	}

	if matches := pp.timeRegex.FindStringSubmatch(line); len(matches) > 1 {
		progress.CurrentTime = matches[1]
		if seconds, ok := timeutil.ParseClock(matches[1]); ok && seconds > 0 {
			progress.CalculateProgress(seconds)
		}
		updated = true
	}

	if matches := pp.bitrateRegex.FindStringSubmatch(line); len(matches) > 1 {
		progress.Bitrate = matches[1] + "kbits/s"
		updated = true
	}

	if matches := pp.speedRegex.FindStringSubmatch(line); len(matches) > 1 {
		if speed, err := strconv.ParseFloat(matches[1], 64); err == nil {
			progress.Speed = speed
			updated = true
		}
	}

	return updated
}

// StreamProgress reads ffmpeg stderr until EOF and continuously updates
// progress. Lines that carry no progress are kept for Tail.
func (pp *ProgressParser) StreamProgress(reader io.Reader, progress *models.EncodingProgress, callback models.ProgressCallback) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLines)

	for scanner.Scan() {
		line := scanner.Text()

		if pp.ParseLine(line, progress) {
			progress.State = models.ProgressStateEncoding
			if callback != nil {
				callback(progress)
			}
			continue
		}

		if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "progress=") {
			pp.remember(trimmed)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ffmpeg output: %w", err)
	}
	return nil
}

// Tail returns the last diagnostic lines ffmpeg printed.
func (pp *ProgressParser) Tail() string {
	return strings.Join(pp.tail, "\n")
}

func (pp *ProgressParser) remember(line string) {
	if len(pp.tail) == tailSize {
		copy(pp.tail, pp.tail[1:])
		pp.tail = pp.tail[:tailSize-1]
	}
	pp.tail = append(pp.tail, line)
}

// scanLines splits on \n, \r\n and bare \r, which ffmpeg uses to redraw the
// -stats line.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// Need one more byte to tell \r from \r\n
			return 0, nil, nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
