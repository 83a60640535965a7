package schedule

import (
	"fmt"
	"log/slog"
	"strings"
)

var weekdayNames = map[string]string{
	"0": "Sunday",
	"1": "Monday",
	"2": "Tuesday",
	"3": "Wednesday",
	"4": "Thursday",
	"5": "Friday",
	"6": "Saturday",
	"7": "Sunday",
}

// CronToHumanString describes a stored cron expression in the viewer's
// location, e.g. "Monday, Friday at 9:30 AM". An empty expression is
// "Manual". Expressions that cannot be described are returned as given.
func (c *Converter) CronToHumanString(cron string) string {
	if strings.TrimSpace(cron) == "" {
		return "Manual"
	}

	description, err := c.describe(cron)
	if err != nil {
		slog.Debug("cannot describe cron expression", "cron", cron, "error", err)
		return cron
	}
	return description
}

func (c *Converter) describe(cron string) (string, error) {
	fields, err := c.localFields(cron)
	if err != nil {
		return "", err
	}
	hour, minute, err := parseClock(fields[1], fields[0])
	if err != nil {
		return "", err
	}
	at := formatClock12(hour, minute)

	if fields[4] == "*" {
		return "Daily at " + at, nil
	}

	days, err := describeDaysOfWeek(fields[4])
	if err != nil {
		return "", err
	}
	return strings.Join(days, ", ") + " at " + at, nil
}

func describeDaysOfWeek(field string) ([]string, error) {
	tokens := strings.Split(field, ",")
	days := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if start, end, isRange := strings.Cut(token, "-"); isRange {
			from, okFrom := weekdayNames[start]
			to, okTo := weekdayNames[end]
			if !okFrom || !okTo {
				return nil, fmt.Errorf("unknown day-of-week range %q", token)
			}
			days = append(days, from+"-"+to)
			continue
		}

		name, ok := weekdayNames[token]
		if !ok {
			return nil, fmt.Errorf("unknown day of week %q", token)
		}
		days = append(days, name)
	}
	return days, nil
}

func formatClock12(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}
