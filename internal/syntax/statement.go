package syntax

import (
	"time"

	"plancal/internal/calendar"
	"plancal/internal/delta"
	perr "plancal/internal/errors"
	"plancal/internal/model"
)

var statementKeywords = []string{"DATE", "BDATE", "FROM", "UNTIL", "EXCEPT", "MOVE", "REMIND"}

func isStatement(c *cursor) bool {
	for _, kw := range statementKeywords {
		save := c.off
		if c.keyword(kw) {
			c.off = save
			return true
		}
	}
	return false
}

// parseStatement parses one statement line into set.
func parseStatement(c *cursor, set *model.StatementSet) error {
	at := c.pos()
	switch {
	case c.keyword("DATE"):
		c.skipSpace()
		spec, err := parseDateSpec(c, at)
		if err != nil {
			return err
		}
		set.Specs = append(set.Specs, spec)

	case c.keyword("BDATE"):
		if set.Task {
			return perr.Syntaxf(at, "BDATE is not allowed in a TASK")
		}
		c.skipSpace()
		spec, err := parseBirthday(c, at)
		if err != nil {
			return err
		}
		set.Specs = append(set.Specs, spec)

	case c.keyword("FROM"):
		c.skipSpace()
		d, err := optionalDate(c)
		if err != nil {
			return err
		}
		set.From = d

	case c.keyword("UNTIL"):
		c.skipSpace()
		d, err := optionalDate(c)
		if err != nil {
			return err
		}
		set.Until = d

	case c.keyword("EXCEPT"):
		c.skipSpace()
		d, err := c.date()
		if err != nil {
			return err
		}
		set.Except = append(set.Except, model.Except{Date: d, At: at})

	case c.keyword("MOVE"):
		c.skipSpace()
		mv, err := parseMove(c, at)
		if err != nil {
			return err
		}
		set.Moves = append(set.Moves, mv)

	case c.keyword("REMIND"):
		c.skipSpace()
		r := &model.Remind{At: at}
		if !c.literal("*") {
			d, err := c.delta()
			if err != nil {
				return err
			}
			if !d.IsWholeDay() {
				return perr.Semanticf(d.Pos(), "reminder delta %s is not a whole number of days", d)
			}
			r.Delta = &d
		}
		set.Remind = r

	default:
		return c.errorf("expected statement (DATE, BDATE, FROM, UNTIL, EXCEPT, MOVE or REMIND), found %s", c.describe())
	}
	return c.expectEnd()
}

// optionalDate parses "YYYY-MM-DD" or "*" (nil).
func optionalDate(c *cursor) (*calendar.Date, error) {
	if c.literal("*") {
		return nil, nil
	}
	d, err := c.date()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseMove parses "D TO D", "D TO T" and "D TO D T".
func parseMove(c *cursor, at perr.Pos) (model.Move, error) {
	mv := model.Move{At: at}
	from, err := c.date()
	if err != nil {
		return mv, err
	}
	mv.From = from
	c.skipSpace()
	if !c.keyword("TO") {
		return mv, c.errorf("expected TO, found %s", c.describe())
	}
	c.skipSpace()
	if c.atDate() {
		if mv.ToDate, err = c.date(); err != nil {
			return mv, err
		}
		c.skipSpace()
	}
	if c.atTime() {
		t, err := c.time(false)
		if err != nil {
			return mv, err
		}
		mv.ToTime = &t
	}
	if mv.ToDate.IsZero() && mv.ToTime == nil {
		return mv, c.errorf("expected date or time after TO, found %s", c.describe())
	}
	return mv, nil
}

// parseBirthday parses "YYYY-MM-DD" or "?-MM-DD".
func parseBirthday(c *cursor, at perr.Pos) (*model.BirthdaySpec, error) {
	spec := &model.BirthdaySpec{At: at}
	if c.literal("?-") {
		start := c.pos()
		s, ok := c.fixed(5)
		if !ok || !isDigit(s[0]) || !isDigit(s[1]) || s[2] != '-' || !isDigit(s[3]) || !isDigit(s[4]) {
			return nil, c.errorf("expected ?-MM-DD")
		}
		m := int(s[0]-'0')*10 + int(s[1]-'0')
		d := int(s[3]-'0')*10 + int(s[4]-'0')
		// Any leap year will do to validate Feb 29.
		if _, ok := calendar.NewDate(2000, time.Month(m), d); !ok {
			return nil, perr.Semanticf(start, "invalid birthday ?-%s", s)
		}
		c.off += 5
		spec.Month, spec.Day = time.Month(m), d
		return spec, nil
	}
	d, err := c.date()
	if err != nil {
		return nil, err
	}
	spec.Year, spec.Month, spec.Day = d.Year(), d.Month(), d.Day()
	return spec, nil
}

// parseDateSpec dispatches on the first token: a date, a formula or a
// weekday name. The three forms never overlap.
func parseDateSpec(c *cursor, at perr.Pos) (model.DateSpec, error) {
	switch {
	case c.atDate():
		return parseFixed(c, at)
	case c.peek() == '(' || c.peek() == '*':
		return parseFormulaSpec(c, at)
	case c.atWeekday():
		return parseWeekdaySpec(c, at)
	}
	return nil, c.errorf("expected date, formula or weekday, found %s", c.describe())
}

// startPart holds "[delta] [T]".
type startPart struct {
	delta delta.Delta
	time  *calendar.Time
}

func parseStartPart(c *cursor) (startPart, error) {
	var p startPart
	c.skipSpace()
	if c.atDelta() {
		d, err := c.delta()
		if err != nil {
			return p, err
		}
		if !d.IsWholeDay() {
			return p, perr.Semanticf(d.Pos(), "start delta %s is not a whole number of days", d)
		}
		p.delta = d
		c.skipSpace()
	}
	if c.atTime() {
		t, err := c.time(false)
		if err != nil {
			return p, err
		}
		p.time = &t
		c.skipSpace()
	}
	return p, nil
}

// parseEndPart parses "[delta] [T]" after "--" and appends it to end. given
// is set when an end date or weekday was already consumed. exact makes the
// end time land on the day reached so far instead of the next occurrence
// of that time.
func parseEndPart(c *cursor, end *delta.Delta, startTimed, given, exact bool, sepPos perr.Pos) error {
	c.skipSpace()
	if c.atDelta() {
		d, err := c.delta()
		if err != nil {
			return err
		}
		*end = end.Then(d)
		c.skipSpace()
	}
	if c.atTime() {
		tpos := c.pos()
		t, err := c.time(true)
		if err != nil {
			return err
		}
		if !startTimed {
			return perr.Semanticf(tpos, "end time %s needs a start time", t)
		}
		unit := delta.Clock
		if exact {
			unit = delta.SetClock
		}
		*end = end.Then(delta.Of(delta.Step{Unit: unit, Clock: t, Pos: tpos}))
		c.skipSpace()
	}
	if end.IsZero() && !given {
		return perr.Syntaxf(sepPos, "expected end after '--'")
	}
	if !startTimed && !end.IsWholeDay() {
		return perr.Semanticf(end.Pos(), "end delta %s of a whole-day date is not a whole number of days", end)
	}
	return nil
}

func parseFixed(c *cursor, at perr.Pos) (*model.FixedSpec, error) {
	start, err := c.date()
	if err != nil {
		return nil, err
	}
	sp, err := parseStartPart(c)
	if err != nil {
		return nil, err
	}
	spec := &model.FixedSpec{Start: start, StartDelta: sp.delta, StartTime: sp.time, At: at}

	if c.atSeparator() {
		sep := c.pos()
		c.off += 2
		c.skipSpace()
		if c.atDate() {
			dpos := c.pos()
			endDate, err := c.date()
			if err != nil {
				return nil, err
			}
			// The gap is measured from the start after its delta, so the
			// first occurrence ends on the literal end date.
			first, err := sp.delta.ApplyDate(start)
			if err != nil {
				return nil, err
			}
			days := endDate.Sub(first)
			if days < 0 {
				return nil, perr.Semanticf(dpos, "end date %s lies before start date %s", endDate, first)
			}
			if days > 0 {
				spec.End = delta.Of(delta.Step{Unit: delta.Day, Amount: days, Pos: dpos})
			}
			if err := parseEndPart(c, &spec.End, sp.time != nil, true, true, sep); err != nil {
				return nil, err
			}
			if sp.time != nil {
				begin := calendar.AtTime(first, *sp.time)
				if e, err := spec.End.Apply(begin); err == nil && e.Compare(begin) < 0 {
					return nil, perr.Semanticf(dpos, "end %s lies before start %s", e, begin)
				}
			}
		} else if err := parseEndPart(c, &spec.End, sp.time != nil, false, false, sep); err != nil {
			return nil, err
		}
	}

	c.skipSpace()
	if c.literal(";") {
		rpos := c.pos()
		c.skipSpace()
		r := &model.Repeat{At: rpos}
		if c.keyword("done") {
			r.FromDone = true
			c.skipSpace()
		}
		d, err := c.delta()
		if err != nil {
			return nil, err
		}
		if !d.IsWholeDay() {
			return nil, perr.Semanticf(d.Pos(), "repeat delta %s is not a whole number of days", d)
		}
		r.Delta = d
		spec.Repeat = r
	}
	return spec, nil
}

func parseFormulaSpec(c *cursor, at perr.Pos) (*model.FormulaSpec, error) {
	spec := &model.FormulaSpec{At: at}
	if !c.literal("*") {
		e, err := c.formula()
		if err != nil {
			return nil, err
		}
		spec.Expr = e
	}
	sp, err := parseStartPart(c)
	if err != nil {
		return nil, err
	}
	spec.StartDelta, spec.StartTime = sp.delta, sp.time
	if c.atSeparator() {
		sep := c.pos()
		c.off += 2
		if err := parseEndPart(c, &spec.End, sp.time != nil, false, false, sep); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func parseWeekdaySpec(c *cursor, at perr.Pos) (*model.WeekdaySpec, error) {
	wd, n := c.weekdayName()
	c.off += n
	spec := &model.WeekdaySpec{Weekday: wd, At: at}
	c.skipSpace()
	if c.atTime() {
		t, err := c.time(false)
		if err != nil {
			return nil, err
		}
		spec.StartTime = &t
		c.skipSpace()
	}
	if c.atSeparator() {
		sep := c.pos()
		c.off += 2
		c.skipSpace()
		given := c.atWeekday()
		if given {
			wpos := c.pos()
			end, n := c.weekdayName()
			c.off += n
			spec.End = delta.Of(delta.Step{Unit: delta.Weekday, Weekday: end, Amount: 1, Pos: wpos})
		}
		if err := parseEndPart(c, &spec.End, spec.StartTime != nil, given, false, sep); err != nil {
			return nil, err
		}
	}
	return spec, nil
}
