package schedule

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	localTimePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)
	utcTimePattern   = regexp.MustCompile(`^([01]?[0-9]|2[0-3])\s+([0-5]?[0-9])$`)
)

// TimeFormatError is returned when a user-entered time does not have the
// expected shape.
type TimeFormatError struct {
	Input  string
	Format string
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("invalid time %q: expected %s", e.Input, e.Format)
}

var _ error = (*TimeFormatError)(nil)

// LocalTimeToUTC converts a 24-hour "HH:mm" wall-clock time in the
// converter's location into the stored UTC "H M" form.
func (c *Converter) LocalTimeToUTC(local string) (string, error) {
	match := localTimePattern.FindStringSubmatch(local)
	if match == nil {
		return "", &TimeFormatError{Input: local, Format: "24-hour HH:mm"}
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])

	_, utc := c.localClock(hour, minute)

	return fmt.Sprintf("%d %d", utc.Hour(), utc.Minute()), nil
}

// UTCTimeToLocal converts a stored UTC "H M" time into a zero-padded
// "HH:mm" wall-clock time in the converter's location. An empty input
// yields an empty result.
func (c *Converter) UTCTimeToLocal(utc string) (string, error) {
	if utc == "" {
		return "", nil
	}
	match := utcTimePattern.FindStringSubmatch(utc)
	if match == nil {
		return "", &TimeFormatError{Input: utc, Format: `UTC "H M"`}
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])

	_, local := c.utcClock(hour, minute)

	return local.Format("15:04"), nil
}
