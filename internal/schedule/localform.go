package schedule

import (
	"fmt"
	"strings"
	"time"
)

// LocalForm is a schedule as the viewer enters it: weekdays and a 24-hour
// "HH:mm" time, both in the converter's location.
type LocalForm struct {
	Schedule   Kind     `json:"schedule"`
	DaysOfWeek []string `json:"daysOfWeek"`
	LocalTime  string   `json:"localTime"`
}

// LocalFormToCron converts a local schedule into a UTC cron expression.
// Weekdays move with the time of day, so 21:00 on Monday in New York is
// stored as 02:00 on Tuesday. An empty LocalTime keeps DefaultTimeOfDay and
// the weekdays are read as the local days on which that UTC time falls.
func (c *Converter) LocalFormToCron(form LocalForm) (string, error) {
	timeOfDay := DefaultTimeOfDay
	if form.LocalTime != "" {
		utc, err := c.LocalTimeToUTC(form.LocalTime)
		if err != nil {
			return "", err
		}
		timeOfDay = utc
	}

	weekly, ok := NewRecurrence(string(form.Schedule), form.DaysOfWeek, timeOfDay).(Weekly)
	if !ok {
		return ScheduleToCron(string(form.Schedule), nil, timeOfDay), nil
	}

	utc, local, err := c.clockOf(timeOfDay)
	if err != nil {
		return "", err
	}
	if len(weekly.DaysOfWeek) == 0 {
		weekly.DaysOfWeek = DefaultDaysOfWeek
	}
	weekly.DaysOfWeek = shiftDays(weekly.DaysOfWeek, dayShift(local, utc))
	return weekly.Cron(), nil
}

// CronToLocalForm is the inverse of LocalFormToCron. Manual and unparseable
// expressions yield a manual form.
func (c *Converter) CronToLocalForm(cron string) (LocalForm, error) {
	form := FormOf(CronToSchedule(cron))
	if form.Schedule == KindManual {
		return LocalForm{Schedule: KindManual, DaysOfWeek: []string{}}, nil
	}

	utc, local, err := c.clockOf(form.TimeOfDay)
	if err != nil {
		return LocalForm{}, err
	}
	return LocalForm{
		Schedule:   form.Schedule,
		DaysOfWeek: shiftDays(form.DaysOfWeek, dayShift(utc, local)),
		LocalTime:  local.Format("15:04"),
	}, nil
}

// clockOf places a UTC "H M" time of day on the reference day.
func (c *Converter) clockOf(timeOfDay string) (utc, local time.Time, err error) {
	hours, minutes := splitTimeOfDay(timeOfDay)
	hour, minute, err := parseClock(hours, minutes)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("time of day %q: %w", timeOfDay, err)
	}
	utc, local = c.utcClock(hour, minute)
	return utc, local, nil
}

func shiftDays(days []string, shift int) []string {
	if len(days) == 0 {
		return []string{}
	}
	return strings.Split(ShiftDaysOfWeek(strings.Join(days, ","), shift), ",")
}
