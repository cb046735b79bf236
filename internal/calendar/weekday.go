package calendar

import "time"

// Weekday numbers days Monday=1 .. Sunday=7 (ISO 8601).
type Weekday uint8

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// ParseWeekday accepts the three-letter lowercase names mon..sun.
func ParseWeekday(name string) (Weekday, bool) {
	for i := 1; i < len(weekdayNames); i++ {
		if weekdayNames[i] == name {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekdayOf converts from the time package's Sunday-first numbering.
func WeekdayOf(wd time.Weekday) Weekday {
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

func (w Weekday) Valid() bool { return w >= Monday && w <= Sunday }

func (w Weekday) Num() int { return int(w) }

func (w Weekday) IsWeekend() bool { return w == Saturday || w == Sunday }

// Std converts to the time package's representation.
func (w Weekday) Std() time.Weekday {
	if w == Sunday {
		return time.Sunday
	}
	return time.Weekday(w)
}

func (w Weekday) String() string {
	if !w.Valid() {
		return "?"
	}
	return weekdayNames[w]
}

// Until returns how many days lie between w and the next other, counting 0
// when both are the same day.
func (w Weekday) Until(other Weekday) int {
	if w <= other {
		return int(other - w)
	}
	return int(other) + 7 - int(w)
}
