package view

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned by ParseDate for input in none of the accepted
// layouts.
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are tried in order; all but RFC 3339 are read in the local
// calendar.
var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseDate reads a user-supplied date. Accepted forms are YYYY-MM-DD,
// "YYYY-MM-DD HH:MM", RFC 3339, and the words today and tomorrow. Forms
// without a time of day resolve to midnight in loc.
func ParseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "today":
		return startOfDay(now, loc), nil
	case "tomorrow":
		return startOfDay(now, loc).AddDate(0, 0, 1), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q: want YYYY-MM-DD, \"YYYY-MM-DD HH:MM\", RFC 3339, today or tomorrow", ErrInvalidDate, s)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
