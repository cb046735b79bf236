package calendar

import "time"

// Moment is a date with an optional time of day. A Moment without a time
// stands for the whole day.
type Moment struct {
	Date Date
	Time *Time
}

// At returns the whole-day moment of d.
func At(d Date) Moment { return Moment{Date: d} }

// AtTime returns the moment d t.
func AtTime(d Date, t Time) Moment {
	return Moment{Date: d, Time: &t}
}

// Timed reports whether m carries a time of day.
func (m Moment) Timed() bool { return m.Time != nil }

// WithTime returns m with its time replaced.
func (m Moment) WithTime(t Time) Moment { return AtTime(m.Date, t) }

// AbsMinutes returns the minutes since 0001-01-01 00:00. Whole-day moments
// count as midnight.
func (m Moment) AbsMinutes() int64 {
	mins := (m.Date.DayNumber() - 1) * MinutesPerDay
	if m.Time != nil {
		mins += int64(m.Time.Minutes())
	}
	return mins
}

// MomentFromMinutes is the inverse of AbsMinutes for timed moments. When
// endOfDay is set, an exact midnight is rendered as 24:00 of the previous
// day.
func MomentFromMinutes(abs int64, endOfDay bool) (Moment, bool) {
	days := floorDiv(abs, MinutesPerDay)
	mins := abs - days*MinutesPerDay
	if endOfDay && mins == 0 {
		days--
		mins = MinutesPerDay
	}
	d, ok := FromDayNumber(days + 1)
	if !ok {
		return Moment{}, false
	}
	t, _ := NewTime(int(mins/60), int(mins%60))
	return AtTime(d, t), true
}

// Compare orders moments chronologically. On the same date a whole-day
// moment sorts before any timed one.
func (m Moment) Compare(o Moment) int {
	if c := m.Date.Compare(o.Date); c != 0 {
		return c
	}
	switch {
	case m.Time == nil && o.Time == nil:
		return 0
	case m.Time == nil:
		return -1
	case o.Time == nil:
		return 1
	default:
		return m.Time.Compare(*o.Time)
	}
}

// Equal reports whether m and o denote the same moment. 24:00 on one day
// equals 00:00 on the next.
func (m Moment) Equal(o Moment) bool {
	if m.Timed() != o.Timed() {
		return false
	}
	if !m.Timed() {
		return m.Date == o.Date
	}
	return m.AbsMinutes() == o.AbsMinutes()
}

// In converts m into an instant in loc. Whole-day moments map to midnight.
func (m Moment) In(loc *time.Location) time.Time {
	t := m.Date.Time(loc)
	if m.Time != nil {
		t = t.Add(m.Time.Clock())
	}
	return t
}

func (m Moment) String() string {
	if m.Time == nil {
		return m.Date.String()
	}
	return m.Date.String() + " " + m.Time.String()
}
