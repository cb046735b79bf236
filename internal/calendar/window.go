package calendar

import "fmt"

// Window is an inclusive range of dates.
type Window struct {
	From  Date
	Until Date
}

// NewWindow returns [from, until]. It fails when until lies before from.
func NewWindow(from, until Date) (Window, error) {
	if until.Before(from) {
		return Window{}, fmt.Errorf("window end %s lies before its start %s", until, from)
	}
	return Window{From: from, Until: until}, nil
}

// Contains reports whether d lies inside w.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.From) && !d.After(w.Until)
}

// Touches reports whether the date span [start, end] overlaps w.
func (w Window) Touches(start, end Date) bool {
	return !start.After(w.Until) && !end.Before(w.From)
}

// Days returns the number of days in w.
func (w Window) Days() int64 { return w.Until.Sub(w.From) + 1 }

// Expand moves the lower bound by lower days and the upper bound by upper
// days, clamping to the supported date range.
func (w Window) Expand(lower, upper int64) Window {
	from, ok := w.From.AddDays(lower)
	if !ok {
		from = MinDate()
		if lower > 0 {
			from = MaxDate()
		}
	}
	until, ok := w.Until.AddDays(upper)
	if !ok {
		until = MaxDate()
		if upper < 0 {
			until = MinDate()
		}
	}
	return Window{From: from, Until: until}
}

// Include returns the smallest window containing both w and d.
func (w Window) Include(d Date) Window {
	if d.Before(w.From) {
		w.From = d
	}
	if d.After(w.Until) {
		w.Until = d
	}
	return w
}

// Empty reports whether w contains no days (after a shrinking Expand).
func (w Window) Empty() bool { return w.Until.Before(w.From) }

// Each calls fn for every day in w in ascending order until fn returns
// false.
func (w Window) Each(fn func(Date) bool) {
	if w.Empty() {
		return
	}
	for d := w.From; ; {
		if !fn(d) {
			return
		}
		if d == w.Until {
			return
		}
		d = d.Next()
	}
}

func (w Window) String() string { return w.From.String() + " -- " + w.Until.String() }
