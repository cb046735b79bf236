// Package delta implements compound signed date/time offsets such as
// "+1m-2d", "-fri" or "+2h30min" and applies them to calendar moments.
package delta

import (
	"fmt"
	"strings"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
)

// Unit is the calendar unit of one Step.
type Unit uint8

const (
	Year Unit = iota + 1
	Month
	MonthReverse // months counted from the end of the month
	Day
	Week
	Hour
	Minute
	Weekday
	// Clock moves to the next occurrence of a time of day. It never appears
	// in delta literals; end times are appended as Clock steps.
	Clock
	// SetClock sets the time of day on the current date. It follows an
	// explicit end date, where the end time must not roll forward.
	SetClock
)

var unitSuffix = [...]string{
	Year:         "y",
	Month:        "m",
	MonthReverse: "M",
	Day:          "d",
	Week:         "w",
	Hour:         "h",
	Minute:       "min",
}

func (u Unit) String() string {
	switch u {
	case Weekday:
		return "weekday"
	case Clock:
		return "clock"
	case SetClock:
		return "set clock"
	}
	if int(u) < len(unitSuffix) && unitSuffix[u] != "" {
		return unitSuffix[u]
	}
	return fmt.Sprintf("Unit(%d)", uint8(u))
}

// Step is one signed unit-amount.
type Step struct {
	Unit    Unit
	Amount  int64
	Weekday calendar.Weekday // Unit == Weekday
	Clock   calendar.Time    // Unit == Clock or SetClock
	Pos     perr.Pos
}

func (s Step) String() string {
	sign := "+"
	n := s.Amount
	if n < 0 {
		sign = "-"
		n = -n
	}
	switch s.Unit {
	case Clock:
		return s.Clock.String()
	case SetClock:
		return "@" + s.Clock.String()
	case Weekday:
		if n == 1 {
			return sign + s.Weekday.String()
		}
		return fmt.Sprintf("%s%d%s", sign, n, s.Weekday)
	default:
		if n == 1 {
			return sign + s.Unit.String()
		}
		return fmt.Sprintf("%s%d%s", sign, n, s.Unit)
	}
}

// minutes is the sub-day contribution of s.
func (s Step) minutes() int64 {
	switch s.Unit {
	case Hour:
		return s.Amount * 60
	case Minute:
		return s.Amount
	}
	return 0
}

// Delta is an ordered list of steps applied cumulatively.
type Delta struct {
	Steps []Step
}

// Of builds a delta from steps.
func Of(steps ...Step) Delta { return Delta{Steps: steps} }

// Days returns the delta "+n days" (or "-n").
func Days(n int64) Delta {
	if n == 0 {
		return Delta{}
	}
	return Of(Step{Unit: Day, Amount: n})
}

func (d Delta) IsZero() bool { return len(d.Steps) == 0 }

// Then returns d followed by o.
func (d Delta) Then(o Delta) Delta {
	steps := make([]Step, 0, len(d.Steps)+len(o.Steps))
	steps = append(steps, d.Steps...)
	steps = append(steps, o.Steps...)
	return Delta{Steps: steps}
}

// SubDayMinutes sums the hour and minute steps.
func (d Delta) SubDayMinutes() int64 {
	var total int64
	for _, s := range d.Steps {
		total += s.minutes()
	}
	return total
}

// IsWholeDay reports whether d moves by whole days only: the hour and
// minute steps add up to a multiple of 24 hours and no step sets a clock
// time.
func (d Delta) IsWholeDay() bool {
	for _, s := range d.Steps {
		if s.Unit == Clock || s.Unit == SetClock {
			return false
		}
	}
	return d.SubDayMinutes()%calendar.MinutesPerDay == 0
}

// Negate returns the sign-negated, order-reversed delta. Clock and
// SetClock steps have no inverse and are kept unchanged.
func (d Delta) Negate() Delta {
	out := make([]Step, len(d.Steps))
	for i, s := range d.Steps {
		if s.Unit != Clock && s.Unit != SetClock {
			s.Amount = -s.Amount
		}
		out[len(d.Steps)-1-i] = s
	}
	return Delta{Steps: out}
}

// Pos returns the position of the first step.
func (d Delta) Pos() perr.Pos {
	if len(d.Steps) == 0 {
		return perr.Pos{}
	}
	return d.Steps[0].Pos
}

func (d Delta) String() string {
	var b strings.Builder
	for _, s := range d.Steps {
		b.WriteString(s.String())
	}
	return b.String()
}

// Bounds returns a lower and an upper bound on the number of days any date
// moves when d is applied. Resolution uses them to widen scan windows.
func (d Delta) Bounds() (lower, upper int64) {
	for _, s := range d.Steps {
		lo, hi := s.bounds()
		lower += lo
		upper += hi
	}
	return lower, upper
}

func (s Step) bounds() (lower, upper int64) {
	n := s.Amount
	switch s.Unit {
	case Year:
		if n < 0 {
			return n * 366, n * 365
		}
		return n * 365, n * 366
	case Month, MonthReverse:
		if n < 0 {
			return n * 31, n * 28
		}
		return n * 28, n * 31
	case Day:
		return n, n
	case Week:
		return 7 * n, 7 * n
	case Hour, Minute:
		// 24:00 and the next day's 00:00 are the same instant, so either
		// end may land one day short.
		m := s.minutes()
		switch {
		case m > 0:
			return calendar.FloorDiv(m-1, calendar.MinutesPerDay), ceilDiv(m, calendar.MinutesPerDay)
		case m < 0:
			return calendar.FloorDiv(m, calendar.MinutesPerDay), ceilDiv(m+1, calendar.MinutesPerDay)
		}
		return 0, 0
	case Weekday:
		switch {
		case n > 0:
			return 7*n - 7, 7*n - 1
		case n < 0:
			return 7*n + 1, 7*n + 7
		default:
			return -6, 6
		}
	case Clock:
		return 0, 1
	}
	return 0, 0
}

func ceilDiv(a, b int64) int64 { return -calendar.FloorDiv(-a, b) }
