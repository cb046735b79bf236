package syntax

import (
	"plancal/internal/calendar"
	"plancal/internal/delta"
	perr "plancal/internal/errors"
)

// ParseRange parses a query range such as "today", "today -- +2w",
// "2021-11-01 -- 2021-11-30" or "today-1d". A range end consisting of only
// a delta is applied to the range start.
func ParseRange(src string, today calendar.Date) (calendar.Window, error) {
	c := newCursor(src, 1, 1)
	c.skipSpace()
	from, err := rangePoint(c, today, nil)
	if err != nil {
		return calendar.Window{}, err
	}
	until := from
	c.skipSpace()
	if c.atSeparator() {
		c.off += 2
		c.skipSpace()
		if until, err = rangePoint(c, today, &from); err != nil {
			return calendar.Window{}, err
		}
	}
	if err := c.expectEnd(); err != nil {
		return calendar.Window{}, err
	}
	w, err := calendar.NewWindow(from, until)
	if err != nil {
		return calendar.Window{}, perr.Wrap(err, perr.KindSemantic, "invalid range")
	}
	return w, nil
}

func rangePoint(c *cursor, today calendar.Date, base *calendar.Date) (calendar.Date, error) {
	var d calendar.Date
	switch {
	case c.literal("today"):
		d = today
	case c.atDate():
		var err error
		if d, err = c.date(); err != nil {
			return d, err
		}
	case base != nil && c.atDelta():
		d = *base
	default:
		return d, c.errorf("expected 'today' or a date, found %s", c.describe())
	}
	if !c.atDelta() {
		return d, nil
	}
	dl, err := c.delta()
	if err != nil {
		return d, err
	}
	return applyWholeDays(dl, d)
}

func applyWholeDays(dl delta.Delta, d calendar.Date) (calendar.Date, error) {
	if !dl.IsWholeDay() {
		return d, perr.Semanticf(dl.Pos(), "range delta %s is not a whole number of days", dl)
	}
	return dl.ApplyDate(d)
}
