package calendar

import (
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

// Time is a wall-clock time of day. 24:00 is allowed as an end-of-day
// sentinel and sorts after every other time.
type Time struct {
	hour   uint8
	minute uint8
}

// NewTime returns hour:minute and whether it is valid. Hours run 0-23,
// minutes 0-59; 24:00 is the only valid time with hour 24.
func NewTime(hour, minute int) (Time, bool) {
	if hour >= 0 && hour < 24 && minute >= 0 && minute < 60 || hour == 24 && minute == 0 {
		return Time{hour: uint8(hour), minute: uint8(minute)}, true
	}
	return Time{}, false
}

// MustTime is like NewTime but panics on invalid input.
func MustTime(hour, minute int) Time {
	t, ok := NewTime(hour, minute)
	if !ok {
		panic(fmt.Sprintf("calendar: invalid time %02d:%02d", hour, minute))
	}
	return t
}

// EndOfDay is the 24:00 sentinel.
var EndOfDay = Time{hour: 24}

// ParseTime parses an HH:MM literal.
func ParseTime(s string) (Time, error) {
	if len(s) != 5 || s[2] != ':' {
		return Time{}, fmt.Errorf("time %q is not of the form HH:MM", s)
	}
	h, ok1 := digits(s[0:2])
	m, ok2 := digits(s[3:5])
	if !ok1 || !ok2 {
		return Time{}, fmt.Errorf("time %q is not of the form HH:MM", s)
	}
	t, ok := NewTime(h, m)
	if !ok {
		return Time{}, fmt.Errorf("%q is not a valid time of day", s)
	}
	return t, nil
}

func (t Time) Hour() int   { return int(t.hour) }
func (t Time) Minute() int { return int(t.minute) }

// Minutes returns minutes since midnight (1440 for 24:00).
func (t Time) Minutes() int { return int(t.hour)*60 + int(t.minute) }

// IsEndOfDay reports whether t is the 24:00 sentinel.
func (t Time) IsEndOfDay() bool { return t.hour == 24 }

func (t Time) Compare(o Time) int { return cmpInt(t.Minutes(), o.Minutes()) }

func (t Time) String() string { return fmt.Sprintf("%02d:%02d", t.hour, t.minute) }

// AddMinutes moves t by n minutes and returns the day carry together with
// the new time. Moving forward onto a midnight yields 24:00 of the previous
// day rather than 00:00 of the next, so "+1h" from 23:00 stays on the same
// day.
func (t Time) AddMinutes(n int64) (days int64, out Time) {
	if n == 0 {
		return 0, t
	}
	mins := int64(t.Minutes()) + n
	days = floorDiv(mins, MinutesPerDay)
	mins = mins - days*MinutesPerDay
	if n > 0 && mins == 0 {
		days--
		mins = MinutesPerDay
	}
	return days, Time{hour: uint8(mins / 60), minute: uint8(mins % 60)}
}

// Clock returns t as a time.Duration since midnight.
func (t Time) Clock() time.Duration { return time.Duration(t.Minutes()) * time.Minute }

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorDiv is floor division for possibly negative operands.
func FloorDiv(a, b int64) int64 { return floorDiv(a, b) }
