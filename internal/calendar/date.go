// Package calendar holds the plain calendar value types used throughout
// plancal: proleptic Gregorian dates, clock times with a 24:00 end-of-day
// sentinel, moments (a date with an optional time) and inclusive date
// windows.
//
// A time.Time is always an instant in some zone; plan entries talk about
// calendar days, so Date deliberately carries no clock or location. The
// conversions to time.Time happen only at the edges (ICS export, "today").
package calendar

import (
	"fmt"
	"time"
)

const (
	MinYear = 1
	MaxYear = 9999

	// unixEpochDayNumber is the day number of 1970-01-01, counting
	// 0001-01-01 as day 1.
	unixEpochDayNumber = 719163

	// maxDayNumber is the day number of 9999-12-31.
	maxDayNumber = 3652059
)

// Date is a calendar-valid (year, month, day) triple. The zero Date is not
// valid; use NewDate or ParseDate.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the date for year-month-day and whether it is valid.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	if year < MinYear || year > MaxYear {
		return Date{}, false
	}
	if month < time.January || month > time.December {
		return Date{}, false
	}
	if day < 1 || day > MonthLength(year, month) {
		return Date{}, false
	}
	return Date{year: year, month: month, day: day}, true
}

// MustDate is like NewDate but panics on invalid input. Meant for tests and
// constants.
func MustDate(year int, month time.Month, day int) Date {
	d, ok := NewDate(year, month, day)
	if !ok {
		panic(fmt.Sprintf("calendar: invalid date %04d-%02d-%02d", year, int(month), day))
	}
	return d
}

// FromTime returns the calendar date of t in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// FromDayNumber returns the date with the given day number (0001-01-01 is 1).
func FromDayNumber(n int64) (Date, bool) {
	if n < 1 || n > maxDayNumber {
		return Date{}, false
	}
	t := time.Unix((n-unixEpochDayNumber)*86400, 0).UTC()
	return FromTime(t), true
}

// ParseDate parses a YYYY-MM-DD literal. Exactly four year digits and two
// month and day digits are required.
func ParseDate(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("date %q is not of the form YYYY-MM-DD", s)
	}
	y, ok1 := digits(s[0:4])
	m, ok2 := digits(s[5:7])
	d, ok3 := digits(s[8:10])
	if !ok1 || !ok2 || !ok3 {
		return Date{}, fmt.Errorf("date %q is not of the form YYYY-MM-DD", s)
	}
	date, ok := NewDate(y, time.Month(m), d)
	if !ok {
		return Date{}, fmt.Errorf("%q is not a valid calendar date", s)
	}
	return date, nil
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, len(s) > 0
}

func (d Date) Year() int          { return d.year }
func (d Date) Month() time.Month  { return d.month }
func (d Date) Day() int           { return d.day }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Weekday() Weekday   { return WeekdayOf(d.Time(time.UTC).Weekday()) }
func (d Date) YearDay() int       { return d.Time(time.UTC).YearDay() }
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// DayNumber counts days since the start of the common era; 0001-01-01 is 1.
func (d Date) DayNumber() int64 {
	return d.Time(time.UTC).Unix()/86400 + unixEpochDayNumber
}

// AddDays returns d moved by n days and false if the result leaves the
// supported year range.
func (d Date) AddDays(n int64) (Date, bool) {
	return FromDayNumber(d.DayNumber() + n)
}

// Next returns the following day. It panics past 9999-12-31.
func (d Date) Next() Date {
	n, ok := d.AddDays(1)
	if !ok {
		panic("calendar: date overflow")
	}
	return n
}

// Sub returns the number of days from o to d.
func (d Date) Sub(o Date) int64 { return d.DayNumber() - o.DayNumber() }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

// ISOWeek returns the ISO 8601 year and week number of d.
func (d Date) ISOWeek() (year, week int) {
	return d.Time(time.UTC).ISOWeek()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MinDate and MaxDate bound the supported range.
func MinDate() Date { return Date{year: MinYear, month: time.January, day: 1} }
func MaxDate() Date { return Date{year: MaxYear, month: time.December, day: 31} }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
