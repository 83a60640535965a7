package schedule

import "strings"

// Kind names the recurrence options offered by the pipeline schedule form.
type Kind string

const (
	KindManual Kind = "manual"
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
)

// DefaultTimeOfDay is 01:00 UTC in the stored "H M" form.
const DefaultTimeOfDay = "1 0"

// DefaultDaysOfWeek is used for weekly schedules with no days selected.
var DefaultDaysOfWeek = []string{"1"}

// Recurrence is one of Manual, Daily or Weekly.
type Recurrence interface {
	Kind() Kind
	// Cron renders the recurrence as a UTC cron expression.
	// Manual recurrences render as the empty string.
	Cron() string

	isRecurrence()
}

// Manual pipelines only run when triggered by a user.
type Manual struct{}

// Daily runs every day at TimeOfDay, a UTC "H M" string.
type Daily struct {
	TimeOfDay string
}

// Weekly runs at TimeOfDay on each of DaysOfWeek ("0" is Sunday).
type Weekly struct {
	DaysOfWeek []string
	TimeOfDay  string
}

func (Manual) Kind() Kind { return KindManual }
func (Daily) Kind() Kind  { return KindDaily }
func (Weekly) Kind() Kind { return KindWeekly }

func (Manual) isRecurrence() {}
func (Daily) isRecurrence()  {}
func (Weekly) isRecurrence() {}

func (Manual) Cron() string { return "" }

func (d Daily) Cron() string {
	hours, minutes := splitTimeOfDay(d.TimeOfDay)
	return minutes + " " + hours + " * * *"
}

func (w Weekly) Cron() string {
	days := w.DaysOfWeek
	if len(days) == 0 {
		days = DefaultDaysOfWeek
	}
	hours, minutes := splitTimeOfDay(w.TimeOfDay)
	return minutes + " " + hours + " * * " + strings.Join(days, ",")
}

var (
	_ Recurrence = Manual{}
	_ Recurrence = Daily{}
	_ Recurrence = Weekly{}
)

// splitTimeOfDay splits a "H M" string. The parts are not range checked.
func splitTimeOfDay(timeOfDay string) (hours, minutes string) {
	if timeOfDay == "" {
		timeOfDay = DefaultTimeOfDay
	}
	hours, minutes, _ = strings.Cut(timeOfDay, " ")
	return hours, minutes
}

// NewRecurrence builds a recurrence from loosely typed form values.
// Unknown schedules are treated as daily.
func NewRecurrence(schedule string, daysOfWeek []string, timeOfDay string) Recurrence {
	switch Kind(schedule) {
	case KindManual:
		return Manual{}
	case KindWeekly:
		return Weekly{DaysOfWeek: daysOfWeek, TimeOfDay: timeOfDay}
	default:
		return Daily{TimeOfDay: timeOfDay}
	}
}

// ScheduleToCron converts form values into a UTC cron expression.
// timeOfDay is a UTC "H M" string and defaults to DefaultTimeOfDay.
func ScheduleToCron(schedule string, daysOfWeek []string, timeOfDay string) string {
	return NewRecurrence(schedule, daysOfWeek, timeOfDay).Cron()
}

// CronToSchedule parses a stored cron expression back into a recurrence.
// Empty or unparseable expressions yield Manual. Only the day-of-week field
// decides between Daily and Weekly.
func CronToSchedule(cron string) Recurrence {
	fields, ok := cronFields(cron)
	if !ok {
		return Manual{}
	}

	timeOfDay := fields[1] + " " + fields[0]
	days := strings.ReplaceAll(fields[4], "*", "")
	if days != "" {
		return Weekly{DaysOfWeek: strings.Split(days, ","), TimeOfDay: timeOfDay}
	}
	return Daily{TimeOfDay: timeOfDay}
}

// Form is the flat record the schedule form binds to.
type Form struct {
	Schedule   Kind     `json:"schedule"`
	DaysOfWeek []string `json:"daysOfWeek"`
	TimeOfDay  string   `json:"timeOfDay"`
}

// FormOf flattens a recurrence. DaysOfWeek is never nil.
func FormOf(r Recurrence) Form {
	switch r := r.(type) {
	case Daily:
		return Form{Schedule: KindDaily, DaysOfWeek: []string{}, TimeOfDay: r.TimeOfDay}
	case Weekly:
		days := append([]string{}, r.DaysOfWeek...)
		return Form{Schedule: KindWeekly, DaysOfWeek: days, TimeOfDay: r.TimeOfDay}
	default:
		return Form{Schedule: KindManual, DaysOfWeek: []string{}}
	}
}

func (f Form) Recurrence() Recurrence {
	return NewRecurrence(string(f.Schedule), f.DaysOfWeek, f.TimeOfDay)
}
