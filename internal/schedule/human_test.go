package schedule_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/schedule"
)

func TestCronToHumanString(t *testing.T) {
	tests := []struct {
		name string
		loc  *time.Location
		cron string
		want string
	}{
		{name: "empty is manual", loc: time.UTC, cron: "", want: "Manual"},
		{name: "blank is manual", loc: time.UTC, cron: "   ", want: "Manual"},
		{name: "daily morning", loc: time.UTC, cron: "0 9 * * *", want: "Daily at 9:00 AM"},
		{name: "midnight", loc: time.UTC, cron: "5 0 * * *", want: "Daily at 12:05 AM"},
		{name: "noon", loc: time.UTC, cron: "0 12 * * *", want: "Daily at 12:00 PM"},
		{name: "single day", loc: time.UTC, cron: "30 9 * * 1", want: "Monday at 9:30 AM"},
		{name: "several days", loc: time.UTC, cron: "30 14 * * 1,3,5", want: "Monday, Wednesday, Friday at 2:30 PM"},
		{name: "range", loc: time.UTC, cron: "0 13 * * 1-5", want: "Monday-Friday at 1:00 PM"},
		{name: "seconds field", loc: time.UTC, cron: "0 30 9 * * *", want: "Daily at 9:30 AM"},
		{name: "shifted into local next day", loc: tokyo, cron: "30 20 * * 1", want: "Tuesday at 5:30 AM"},
		{name: "shifted into local previous day", loc: newYork, cron: "0 2 * * 0,1", want: "Saturday, Sunday at 9:00 PM"},
		{name: "unknown weekday", loc: time.UTC, cron: "0 9 * * 8", want: "0 9 * * 8"},
		{name: "day of month restriction", loc: time.UTC, cron: "0 9 1 * *", want: "0 9 1 * *"},
		{name: "step expression", loc: time.UTC, cron: "*/15 * * * *", want: "*/15 * * * *"},
		{name: "garbage", loc: time.UTC, cron: "every tuesday", want: "every tuesday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := converterAt(tt.loc, endOfMonth).CronToHumanString(tt.cron)
			if got != tt.want {
				t.Errorf("CronToHumanString(%q) = %q; want %q", tt.cron, got, tt.want)
			}
		})
	}
}

func TestCronToHumanStringSystemZone(t *testing.T) {
	pattern := regexp.MustCompile(`^Daily at \d{1,2}:\d{2} (AM|PM)$`)
	got := schedule.NewConverter(nil).CronToHumanString("0 9 * * *")
	if !pattern.MatchString(got) {
		t.Errorf("CronToHumanString(%q) = %q; want match for %s", "0 9 * * *", got, pattern)
	}
}
