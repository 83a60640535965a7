package schedule

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Converter translates stored UTC schedules for a viewer in Location.
// The zero value converts for time.Local using the current date.
type Converter struct {
	Location *time.Location

	// Now supplies the reference day for conversions. Every conversion uses
	// the offset Location has at noon UTC on that day, so local and UTC
	// times map one to one in both directions. On a day the clocks change,
	// a local time inside the skipped or repeated hour is read at that
	// single offset.
	Now func() time.Time
}

func NewConverter(loc *time.Location) *Converter {
	return &Converter{Location: loc, Now: time.Now}
}

func (c *Converter) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c *Converter) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// LocalNow is the converter's current time in its location.
func (c *Converter) LocalNow() time.Time {
	return c.now().In(c.location())
}

// reference returns the reference day and the converter's location fixed at
// the offset it has at noon UTC that day.
func (c *Converter) reference() (y int, m time.Month, d int, zone *time.Location) {
	y, m, d = c.now().UTC().Date()
	name, offset := time.Date(y, m, d, 12, 0, 0, 0, time.UTC).In(c.location()).Zone()
	return y, m, d, time.FixedZone(name, offset)
}

// utcClock places a UTC wall-clock time on the reference day and returns
// the instant in UTC and in the viewer's zone.
func (c *Converter) utcClock(hour, minute int) (utc, local time.Time) {
	y, m, d, zone := c.reference()
	utc = time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
	return utc, utc.In(zone)
}

// localClock places a local wall-clock time on the reference day and returns
// the instant in the viewer's zone and in UTC.
func (c *Converter) localClock(hour, minute int) (local, utc time.Time) {
	y, m, d, zone := c.reference()
	local = time.Date(y, m, d, hour, minute, 0, 0, zone)
	return local, local.UTC()
}

// CronToLocalTimezone rewrites a UTC cron expression in the converter's
// location. The minute and hour move to local wall-clock time and every
// day-of-week entry shifts by the number of days the conversion crossed.
//
// Expressions that restrict the day of month or month, or whose minute and
// hour are not plain numbers, are logged and returned unchanged.
func (c *Converter) CronToLocalTimezone(cron string) string {
	fields, err := c.localFields(cron)
	if err != nil {
		slog.Warn("leaving cron expression in UTC", "cron", cron, "error", err)
		return cron
	}
	return strings.Join(fields, " ")
}

func (c *Converter) localFields(cron string) ([]string, error) {
	fields, ok := cronFields(cron)
	if !ok {
		return nil, fmt.Errorf("expected 5 fields")
	}
	if fields[2] != "*" || fields[3] != "*" {
		return nil, fmt.Errorf("day-of-month and month must be wildcards")
	}
	hour, minute, err := parseClock(fields[1], fields[0])
	if err != nil {
		return nil, err
	}

	utc, local := c.utcClock(hour, minute)

	return []string{
		strconv.Itoa(local.Minute()),
		strconv.Itoa(local.Hour()),
		"*",
		"*",
		ShiftDaysOfWeek(fields[4], dayShift(utc, local)),
	}, nil
}

func parseClock(hourField, minuteField string) (hour, minute int, err error) {
	hour, err = strconv.Atoi(hourField)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour %q is not a number between 0 and 23", hourField)
	}
	minute, err = strconv.Atoi(minuteField)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute %q is not a number between 0 and 59", minuteField)
	}
	return hour, minute, nil
}

const secondsPerDay = 24 * 60 * 60

// epochDay numbers the calendar date of t's wall clock, counting days
// since 1970-01-01.
func epochDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// dayShift returns how many calendar days the wall-clock date of to lies
// after that of from. For one instant viewed in two zones it is -1, 0 or 1,
// including across month and year boundaries.
func dayShift(from, to time.Time) int {
	return int(epochDay(to) - epochDay(from))
}

// ShiftDaysOfWeek moves every entry of a cron day-of-week field by shift
// days, wrapping into 0-6. Single values and a-b ranges are shifted; the
// wildcard and any other token are left as they are.
func ShiftDaysOfWeek(field string, shift int) string {
	if shift == 0 || field == "*" {
		return field
	}

	tokens := strings.Split(field, ",")
	for i, token := range tokens {
		tokens[i] = shiftDayToken(token, shift)
	}
	return strings.Join(tokens, ",")
}

func shiftDayToken(token string, shift int) string {
	if start, end, isRange := strings.Cut(token, "-"); isRange {
		a, errA := strconv.Atoi(start)
		b, errB := strconv.Atoi(end)
		if errA != nil || errB != nil {
			return token
		}
		return strconv.Itoa(wrapWeekday(a+shift)) + "-" + strconv.Itoa(wrapWeekday(b+shift))
	}

	day, err := strconv.Atoi(token)
	if err != nil {
		return token
	}
	return strconv.Itoa(wrapWeekday(day + shift))
}

func wrapWeekday(day int) int {
	return ((day % 7) + 7) % 7
}
