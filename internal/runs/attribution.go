package runs

import (
	"strings"
	"time"
)

// SystemUser triggers scheduled runs.
const SystemUser = "System"

// DefaultAttributionCutoff is when run attribution started being recorded.
// Runs that started earlier have no trustworthy user.
var DefaultAttributionCutoff = time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

// AttributedRunUser returns who to show as having triggered a run that
// started at startTime. ok is false when the start time is missing,
// unparseable or before cutoff.
func AttributedRunUser(startTime, user string, cutoff time.Time) (name string, ok bool) {
	start, err := ParseTimestamp(startTime)
	if err != nil {
		return "", false
	}
	return AttributedUser(start, user, cutoff)
}

// AttributedUser is AttributedRunUser for an already parsed start time.
// A zero start is treated as missing.
func AttributedUser(start time.Time, user string, cutoff time.Time) (name string, ok bool) {
	if start.IsZero() || start.Before(cutoff) {
		return "", false
	}
	if user == SystemUser {
		return SystemUser, true
	}
	localPart, _, _ := strings.Cut(user, "@")
	return localPart, true
}
