package runs

import (
	"fmt"
	"strings"
	"time"
)

var durationUnits = []struct {
	seconds int64
	suffix  string
}{
	{seconds: 24 * 60 * 60, suffix: "d"},
	{seconds: 60 * 60, suffix: "h"},
	{seconds: 60, suffix: "m"},
	{seconds: 1, suffix: "s"},
}

// FormatDuration renders at most the two most significant non-zero units,
// e.g. "1h 2m" for 3725 seconds. Zero and negative durations are "0s".
func FormatDuration(seconds int64) string {
	parts := make([]string, 0, 2)
	for _, unit := range durationUnits {
		if len(parts) == 2 || seconds <= 0 {
			break
		}
		n := seconds / unit.seconds
		seconds %= unit.seconds
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, unit.suffix))
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// CalculateDurationSeconds returns the whole seconds from start to end.
// It returns 0 if either timestamp cannot be parsed.
func CalculateDurationSeconds(start, end string) int64 {
	startTime, err := ParseTimestamp(start)
	if err != nil {
		return 0
	}
	endTime, err := ParseTimestamp(end)
	if err != nil {
		return 0
	}
	return DurationSeconds(startTime, endTime)
}

func DurationSeconds(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Second)
}
