package runs

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Timestamps without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// ParseTimestamp parses the ISO 8601 forms the API returns.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// RelativeTimeAgo describes timestamp relative to now, e.g. "5 minutes ago".
// Missing or unparseable timestamps are "-". Timestamps ahead of now, such as
// those from a server with a fast clock, read as "0 seconds ago".
func RelativeTimeAgo(timestamp string) string {
	return RelativeTimeAgoFrom(timestamp, time.Now())
}

func RelativeTimeAgoFrom(timestamp string, now time.Time) string {
	t, err := ParseTimestamp(timestamp)
	if err != nil {
		return "-"
	}
	if now.Sub(t) < time.Second {
		return "0 seconds ago"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// RelativeTime describes t relative to now. Past times end in "ago" and
// future times in "from now". The zero time is "-".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
