// Package timeutil provides time formatting utilities for FFmpeg commands.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSeconds converts seconds to HH:MM:SS.mmm format for FFmpeg.
//
// This format is used for FFmpeg duration parameters like -t (input
// duration limit). Millisecond precision keeps trimmed audio aligned
// with frame boundaries at common frame rates.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.000"
//	FormatSeconds(90)     // "00:01:30.000"
//	FormatSeconds(3661)   // "01:01:01.000"
//	FormatSeconds(30.53)  // "00:00:30.530"
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// ParseClock converts an FFmpeg clock string (HH:MM:SS.micro) to seconds.
// Returns 0 and false if the value is not in clock format.
func ParseClock(clock string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 3 {
		return 0, false
	}

	hours, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}

	return hours*3600 + minutes*60 + seconds, true
}
