package kattis

import (
	"fmt"
	"time"
)

const (
	// SubmissionLayout is the full timestamp layout of a submission.
	SubmissionLayout = "2006-01-02 15:04:05"
	// TodayLayout is used by the judge for submissions made today.
	TodayLayout = "15:04:05"
	// DeadlineLayout is the layout of rule and uppgift deadlines.
	DeadlineLayout = "02-01-2006 15:04"

	// DefaultDeadline applies to uppgift expressions without a deadline.
	DefaultDeadline = "01-01-2117 08:00"
)

// ParseSubmissionTime parses a submission timestamp in loc. A time of day
// without a date is placed on the date of now.
func ParseSubmissionTime(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(SubmissionLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(TodayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("submission time %q: want %q or %q", s, SubmissionLayout, TodayLayout)
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}

// ParseDeadline parses a DD-MM-YYYY HH:MM deadline in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DeadlineLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline %q: want DD-MM-YYYY HH:MM", s)
	}
	return t, nil
}
