// Package schedule provides utilities for cron expression handling and deferred execution.
//
// Cron expressions are always stored in UTC with the day-of-month and month
// fields left as wildcards. Recurrence bridges a stored expression and the
// manual/daily/weekly form shown to users. Converter renders stored
// expressions in a viewer's timezone and converts time-picker values between
// local wall-clock time and the stored UTC "H M" form.
//
// Stored cron data is handled leniently: malformed input degrades to a manual
// schedule or is returned unchanged. User-entered times are validated strictly
// and rejected with a *TimeFormatError.
//
// RunAt executes a function asynchronously at a specified time.
package schedule
