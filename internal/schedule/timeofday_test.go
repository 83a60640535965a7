package schedule_test

import (
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/glizzus/pipeline-schedule/internal/schedule"
)

var zones = []*time.Location{time.UTC, tokyo, newYork, kolkata, kiritima}

func TestLocalTimeToUTC(t *testing.T) {
	tests := []struct {
		loc   *time.Location
		local string
		want  string
	}{
		{loc: time.UTC, local: "09:30", want: "9 30"},
		{loc: time.UTC, local: "9:05", want: "9 5"},
		{loc: tokyo, local: "09:30", want: "0 30"},
		{loc: tokyo, local: "05:00", want: "20 0"},
		{loc: newYork, local: "21:15", want: "2 15"},
		{loc: kolkata, local: "00:00", want: "18 30"},
	}

	for _, tt := range tests {
		t.Run(tt.loc.String()+" "+tt.local, func(t *testing.T) {
			got, err := converterAt(tt.loc, endOfMonth).LocalTimeToUTC(tt.local)
			if err != nil {
				t.Fatalf("LocalTimeToUTC(%q) returned error: %v", tt.local, err)
			}
			if got != tt.want {
				t.Errorf("LocalTimeToUTC(%q) = %q; want %q", tt.local, got, tt.want)
			}
		})
	}
}

func TestLocalTimeToUTCRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "24:00", "12:60", "9:5", "09-30", "ab:cd", " 09:30", "09:30:00"} {
		t.Run(input, func(t *testing.T) {
			got, err := converterAt(time.UTC, endOfMonth).LocalTimeToUTC(input)
			var formatErr *schedule.TimeFormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("LocalTimeToUTC(%q) = %q, %v; want *TimeFormatError", input, got, err)
			}
			if formatErr.Input != input {
				t.Errorf("TimeFormatError.Input = %q; want %q", formatErr.Input, input)
			}
		})
	}
}

func TestUTCTimeToLocal(t *testing.T) {
	tests := []struct {
		loc  *time.Location
		utc  string
		want string
	}{
		{loc: time.UTC, utc: "9 30", want: "09:30"},
		{loc: time.UTC, utc: "0 0", want: "00:00"},
		{loc: time.UTC, utc: "09 05", want: "09:05"},
		{loc: newYork, utc: "14 30", want: "09:30"},
		{loc: tokyo, utc: "20 0", want: "05:00"},
		{loc: kolkata, utc: "18  30", want: "00:00"},
		{loc: tokyo, utc: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.loc.String()+" "+tt.utc, func(t *testing.T) {
			got, err := converterAt(tt.loc, endOfMonth).UTCTimeToLocal(tt.utc)
			if err != nil {
				t.Fatalf("UTCTimeToLocal(%q) returned error: %v", tt.utc, err)
			}
			if got != tt.want {
				t.Errorf("UTCTimeToLocal(%q) = %q; want %q", tt.utc, got, tt.want)
			}
		})
	}
}

func TestUTCTimeToLocalRejectsBadInput(t *testing.T) {
	for _, input := range []string{"24 0", "12 60", "12:30", "1 2 3", "noon", "9", "123 4"} {
		t.Run(input, func(t *testing.T) {
			got, err := converterAt(time.UTC, endOfMonth).UTCTimeToLocal(input)
			var formatErr *schedule.TimeFormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("UTCTimeToLocal(%q) = %q, %v; want *TimeFormatError", input, got, err)
			}
		})
	}
}

func TestLocalTimeRoundTrip(t *testing.T) {
	for _, loc := range zones {
		converter := converterAt(loc, endOfMonth)
		for _, local := range []string{"00:00", "06:30", "12:00", "18:45", "23:59"} {
			t.Run(loc.String()+" "+local, func(t *testing.T) {
				utc, err := converter.LocalTimeToUTC(local)
				if err != nil {
					t.Fatalf("LocalTimeToUTC(%q) returned error: %v", local, err)
				}
				got, err := converter.UTCTimeToLocal(utc)
				if err != nil {
					t.Fatalf("UTCTimeToLocal(%q) returned error: %v", utc, err)
				}
				if got != local {
					t.Errorf("UTCTimeToLocal(LocalTimeToUTC(%q)) = %q; want %q", local, got, local)
				}
			})
		}
	}
}

func TestUTCTimeRoundTrip(t *testing.T) {
	for _, loc := range zones {
		converter := converterAt(loc, endOfMonth)
		for _, utc := range []string{"0 0", "6 30", "12 0", "18 45", "23 59"} {
			t.Run(loc.String()+" "+utc, func(t *testing.T) {
				local, err := converter.UTCTimeToLocal(utc)
				if err != nil {
					t.Fatalf("UTCTimeToLocal(%q) returned error: %v", utc, err)
				}
				got, err := converter.LocalTimeToUTC(local)
				if err != nil {
					t.Fatalf("LocalTimeToUTC(%q) returned error: %v", local, err)
				}

				var wantHour, wantMinute, gotHour, gotMinute int
				if _, err := fmt.Sscanf(utc, "%d %d", &wantHour, &wantMinute); err != nil {
					t.Fatal(err)
				}
				if _, err := fmt.Sscanf(got, "%d %d", &gotHour, &gotMinute); err != nil {
					t.Fatalf("LocalTimeToUTC(%q) = %q is not \"H M\": %v", local, got, err)
				}
				if gotHour != wantHour || gotMinute != wantMinute {
					t.Errorf("LocalTimeToUTC(UTCTimeToLocal(%q)) = %q; want %q", utc, got, utc)
				}
			})
		}
	}
}

func TestStoredScheduleSurvivesFormEdit(t *testing.T) {
	const stored = "30 14 * * 1,3,5"
	converter := converterAt(newYork, endOfMonth)

	weekly, ok := schedule.CronToSchedule(stored).(schedule.Weekly)
	if !ok {
		t.Fatalf("CronToSchedule(%q) is not weekly", stored)
	}
	if weekly.TimeOfDay != "14 30" {
		t.Fatalf("CronToSchedule(%q).TimeOfDay = %q; want %q", stored, weekly.TimeOfDay, "14 30")
	}

	local, err := converter.UTCTimeToLocal(weekly.TimeOfDay)
	if err != nil {
		t.Fatalf("UTCTimeToLocal(%q) returned error: %v", weekly.TimeOfDay, err)
	}
	utc, err := converter.LocalTimeToUTC(local)
	if err != nil {
		t.Fatalf("LocalTimeToUTC(%q) returned error: %v", local, err)
	}
	if utc != "14 30" {
		t.Fatalf("LocalTimeToUTC(%q) = %q; want %q", local, utc, "14 30")
	}

	got := schedule.ScheduleToCron(string(schedule.KindWeekly), weekly.DaysOfWeek, utc)
	if got != stored {
		t.Errorf("ScheduleToCron() = %q; want the stored %q", got, stored)
	}
}

func TestTimeRoundTripOnDaylightSavingChanges(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading America/New_York: %v", err)
	}

	days := []struct {
		name string
		now  time.Time
	}{
		{name: "spring forward", now: time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)},
		{name: "spring forward before the change", now: time.Date(2025, 3, 9, 3, 0, 0, 0, time.UTC)},
		{name: "fall back", now: time.Date(2025, 11, 2, 15, 0, 0, 0, time.UTC)},
		{name: "fall back late evening", now: time.Date(2025, 11, 3, 2, 30, 0, 0, time.UTC)},
	}

	for _, day := range days {
		converter := converterAt(eastern, day.now)
		for _, local := range []string{"00:30", "01:30", "02:30", "03:30", "20:00", "23:59"} {
			t.Run(day.name+" "+local, func(t *testing.T) {
				utc, err := converter.LocalTimeToUTC(local)
				if err != nil {
					t.Fatalf("LocalTimeToUTC(%q) returned error: %v", local, err)
				}
				got, err := converter.UTCTimeToLocal(utc)
				if err != nil {
					t.Fatalf("UTCTimeToLocal(%q) returned error: %v", utc, err)
				}
				if got != local {
					t.Errorf("UTCTimeToLocal(LocalTimeToUTC(%q)) = %q via %q; want %q", local, got, utc, local)
				}
			})
		}
	}
}

func TestTimeConversionUsesReferenceDayOffset(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading America/New_York: %v", err)
	}

	tests := []struct {
		name  string
		now   time.Time
		local string
		utc   string
	}{
		{name: "winter", now: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC), local: "09:00", utc: "14 0"},
		{name: "summer", now: time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC), local: "09:00", utc: "13 0"},
		{name: "skipped hour on spring forward", now: time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC), local: "02:30", utc: "6 30"},
		{name: "repeated hour on fall back", now: time.Date(2025, 11, 2, 15, 0, 0, 0, time.UTC), local: "01:30", utc: "6 30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converter := converterAt(eastern, tt.now)
			got, err := converter.LocalTimeToUTC(tt.local)
			if err != nil {
				t.Fatalf("LocalTimeToUTC(%q) returned error: %v", tt.local, err)
			}
			if got != tt.utc {
				t.Errorf("LocalTimeToUTC(%q) = %q; want %q", tt.local, got, tt.utc)
			}
			back, err := converter.UTCTimeToLocal(tt.utc)
			if err != nil {
				t.Fatalf("UTCTimeToLocal(%q) returned error: %v", tt.utc, err)
			}
			if back != tt.local {
				t.Errorf("UTCTimeToLocal(%q) = %q; want %q", tt.utc, back, tt.local)
			}
		})
	}
}
