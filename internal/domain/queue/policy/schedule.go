package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseClock parses an "HH:MM" 24-hour wall-clock string
func parseClock(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}

	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed hour in %q", s)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed minute in %q", s)
	}

	return hour, minute, nil
}

// dueAt combines today's date (in the account's zone) with the configured
// wall-clock publish time and returns the resulting instant. The zone rules
// are applied here on every call, so a DST transition shifts the result
// without any cached offset going stale.
func dueAt(now time.Time, scheduledTime string, loc *time.Location) (time.Time, error) {
	hour, minute, err := parseClock(scheduledTime)
	if err != nil {
		return time.Time{}, err
	}

	year, month, day := now.In(loc).Date()
	return time.Date(year, month, day, hour, minute, 0, 0, loc), nil
}

// dayStart returns local midnight of the current day in the account's zone,
// the boundary used for "already published today".
func dayStart(now time.Time, loc *time.Location) time.Time {
	year, month, day := now.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// isDue reports whether the account's publish time has arrived. The boundary
// is inclusive: at exactly HH:MM the account is due.
func isDue(now, due time.Time) bool {
	return !now.Before(due)
}
