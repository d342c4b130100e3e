package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day extracted from a spoken utterance.
type Clock struct {
	Hour   int
	Minute int
}

var ErrNoClock = errors.New("no time expression found")

// clockPattern matches "7", "7:30", "7 pm", "7:30am", "12 a.m." and similar.
var clockPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5][0-9]))?\s*(a\.?m\.?|p\.?m\.?)?`)

// ParseClock extracts the first time-of-day expression from text. The hour is
// normalized to 24-hour form using the am/pm marker: 12am maps to 0, 12pm
// stays 12, and pm adds 12 to hours 1 through 11. Without a marker the hour
// is taken as already being on the 24-hour clock.
func ParseClock(text string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return Clock{}, ErrNoClock
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return Clock{}, ErrNoClock
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return Clock{}, ErrNoClock
		}
	}

	marker := strings.ToLower(strings.ReplaceAll(m[3], ".", ""))
	switch marker {
	case "am":
		if hour < 1 || hour > 12 {
			return Clock{}, fmt.Errorf("hour %d is out of range for am", hour)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return Clock{}, fmt.Errorf("hour %d is out of range for pm", hour)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return Clock{}, fmt.Errorf("hour %d is out of range", hour)
		}
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// NextOccurrence rolls the requested time of day forward to its next
// occurrence: today if it has not yet passed, otherwise tomorrow. The result
// is always strictly after now.
func NextOccurrence(now time.Time, c Clock) time.Time {
	fireAt := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	if !fireAt.After(now) {
		fireAt = fireAt.Add(24 * time.Hour)
	}
	return fireAt
}

// Format renders the clock the way the assistant speaks it, e.g. "07:30 AM".
func (c Clock) Format() string {
	ref := time.Date(2000, time.January, 1, c.Hour, c.Minute, 0, 0, time.UTC)
	return ref.Format("03:04 PM")
}
