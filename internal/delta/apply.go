package delta

import (
	"time"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
)

// Apply moves base by every step of d in order.
//
// Year and month steps keep the day of the month and fail when the result
// is not a valid date (2021-01-31 +1m). Hour and minute steps on a timed
// moment carry into the date. On a whole-day moment they are summed and
// must add up to whole days, so "+24h" works on a date and "+1h" does not.
func (d Delta) Apply(base calendar.Moment) (calendar.Moment, error) {
	a := applier{start: base, date: base.Date}
	if base.Time != nil {
		a.time, a.timed = *base.Time, true
	}
	for _, s := range d.Steps {
		if err := a.step(s); err != nil {
			return calendar.Moment{}, err
		}
	}
	if a.carry != 0 {
		if a.carry%calendar.MinutesPerDay != 0 {
			return calendar.Moment{}, perr.Semanticf(d.Pos(),
				"delta %s moves the whole-day date %s by a fraction of a day", d, base.Date)
		}
		if err := a.addDays(a.carry/calendar.MinutesPerDay, d.Pos()); err != nil {
			return calendar.Moment{}, err
		}
	}
	if !a.timed {
		return calendar.At(a.date), nil
	}
	return calendar.AtTime(a.date, a.time), nil
}

// ApplyDate applies d to a whole-day date.
func (d Delta) ApplyDate(date calendar.Date) (calendar.Date, error) {
	m, err := d.Apply(calendar.At(date))
	if err != nil {
		return calendar.Date{}, err
	}
	return m.Date, nil
}

type applier struct {
	start calendar.Moment
	date  calendar.Date
	time  calendar.Time
	timed bool
	carry int64 // minutes collected on a whole-day moment
}

func (a *applier) invalid(s Step) error {
	return perr.Semanticf(s.Pos, "cannot apply %s to %s (starting from %s)", s, a.current(), a.start)
}

func (a *applier) current() calendar.Moment {
	if a.timed {
		return calendar.AtTime(a.date, a.time)
	}
	return calendar.At(a.date)
}

func (a *applier) addDays(n int64, pos perr.Pos) error {
	next, ok := a.date.AddDays(n)
	if !ok {
		return perr.Semanticf(pos, "moving %s by %d days leaves the supported date range", a.date, n)
	}
	a.date = next
	return nil
}

func (a *applier) setDate(year int64, month time.Month, day int, s Step) error {
	if year < calendar.MinYear || year > calendar.MaxYear {
		return a.invalid(s)
	}
	next, ok := calendar.NewDate(int(year), month, day)
	if !ok {
		return a.invalid(s)
	}
	a.date = next
	return nil
}

func (a *applier) step(s Step) error {
	switch s.Unit {
	case Year:
		return a.setDate(int64(a.date.Year())+s.Amount, a.date.Month(), a.date.Day(), s)

	case Month:
		y, m := calendar.AddMonths(a.date.Year(), a.date.Month(), s.Amount)
		return a.setDate(y, m, a.date.Day(), s)

	case MonthReverse:
		fromEnd := calendar.MonthLength(a.date.Year(), a.date.Month()) - a.date.Day()
		y, m := calendar.AddMonths(a.date.Year(), a.date.Month(), s.Amount)
		if y < calendar.MinYear || y > calendar.MaxYear {
			return a.invalid(s)
		}
		return a.setDate(y, m, calendar.MonthLength(int(y), m)-fromEnd, s)

	case Day:
		return a.addDays(s.Amount, s.Pos)

	case Week:
		return a.addDays(7*s.Amount, s.Pos)

	case Hour, Minute:
		mins := s.minutes()
		if !a.timed {
			a.carry += mins
			return nil
		}
		days, t := a.time.AddMinutes(mins)
		if err := a.addDays(days, s.Pos); err != nil {
			return err
		}
		a.time = t
		return nil

	case Weekday:
		return a.addDays(weekdayShift(a.date.Weekday(), s.Weekday, s.Amount), s.Pos)

	case Clock:
		if !a.timed {
			return perr.Semanticf(s.Pos, "cannot move to %s: %s has no time of day", s.Clock, a.current())
		}
		if s.Clock.Compare(a.time) < 0 {
			if err := a.addDays(1, s.Pos); err != nil {
				return err
			}
		}
		a.time = s.Clock
		return nil

	case SetClock:
		if !a.timed {
			return perr.Semanticf(s.Pos, "cannot set %s: %s has no time of day", s.Clock, a.current())
		}
		a.time = s.Clock
		return nil
	}
	return a.invalid(s)
}

// weekdayShift returns how many days to move from a day that is cur to reach
// the n-th wd in the direction of n's sign. The current day counts as the
// first match. n == 0 picks wd inside cur's Monday-based week.
func weekdayShift(cur, wd calendar.Weekday, n int64) int64 {
	switch {
	case n > 0:
		return int64(cur.Until(wd)) + 7*(n-1)
	case n < 0:
		return -(int64(wd.Until(cur)) + 7*(-n-1))
	default:
		return int64(wd.Num() - cur.Num())
	}
}
