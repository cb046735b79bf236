package resolve

import (
	"time"

	"github.com/teambition/rrule-go"

	"plancal/internal/calendar"
	"plancal/internal/delta"
	perr "plancal/internal/errors"
	"plancal/internal/formula"
	"plancal/internal/model"
)

// specRun expands one DateSpec over the scan hull.
type specRun struct {
	set   *model.StatementSet
	index int
	hull  calendar.Window
	max   int
	diags *perr.List

	out      []model.Occurrence
	failures failures
	capped   bool
}

func (r *specRun) expand(spec model.DateSpec) []model.Occurrence {
	switch s := spec.(type) {
	case *model.FixedSpec:
		r.fixed(s)
	case *model.FormulaSpec:
		r.formula(s)
	case *model.WeekdaySpec:
		r.weekday(s)
	case *model.BirthdaySpec:
		r.birthday(s)
	}
	r.failures.report(r.diags, spec.Pos())
	if r.capped {
		r.diags.Add(perr.At(perr.KindEvaluation, spec.Pos(),
			"%s date expands to more than %d occurrences, output truncated", spec.Tag(), r.max))
	}
	return r.out
}

// anchorWindow returns the anchor dates whose occurrence can touch the
// hull once the start delta and the end delta have been applied.
func (r *specRun) anchorWindow(start, end delta.Delta) calendar.Window {
	sdLo, sdHi := start.Bounds()
	edLo, edHi := end.Bounds()
	return r.hull.Expand(-(sdHi + max(edHi, 0)), -(sdLo + min(edLo, 0)))
}

// add builds the occurrence anchored on a and reports false once the cap
// is reached.
func (r *specRun) add(a calendar.Date, startDelta delta.Delta, startTime *calendar.Time, end delta.Delta) bool {
	if len(r.out) >= r.max {
		r.capped = true
		return false
	}
	o, err := r.build(a, startDelta, startTime, end)
	if err != nil {
		r.failures.add(err)
		return true
	}
	r.out = append(r.out, o)
	return true
}

func (r *specRun) build(a calendar.Date, startDelta delta.Delta, startTime *calendar.Time, end delta.Delta) (model.Occurrence, error) {
	d, err := startDelta.ApplyDate(a)
	if err != nil {
		return model.Occurrence{}, err
	}
	o := model.Occurrence{Start: calendar.At(d), Spec: r.index}
	if startTime != nil {
		o.Start = o.Start.WithTime(*startTime)
	}
	if end.IsZero() {
		return o, nil
	}
	e, err := end.Apply(o.Start)
	if err != nil {
		return o, err
	}
	if e.Compare(o.Start) < 0 {
		return o, perr.Semanticf(end.Pos(), "end %s lies before start %s", e, o.Start)
	}
	o.End = &e
	return o, nil
}

func (r *specRun) fixed(s *model.FixedSpec) {
	aw := r.anchorWindow(s.StartDelta, s.End)
	if s.Repeat == nil {
		if aw.Contains(s.Start) {
			r.add(s.Start, s.StartDelta, s.StartTime, s.End)
		}
		return
	}

	rep := s.Repeat.Delta
	anchor := s.Start
	if s.Repeat.FromDone && r.set.Task {
		if last, ok := r.set.LastDone(); ok {
			next, err := rep.ApplyDate(last)
			if err != nil {
				r.diags.Add(perr.WithPos(err, s.Repeat.At))
				return
			}
			anchor = next
		}
	}

	step := func() bool {
		next, err := rep.ApplyDate(anchor)
		if err != nil {
			r.diags.Add(perr.WithPos(err, s.Repeat.At))
			return false
		}
		if !next.After(anchor) {
			r.diags.Add(perr.Semanticf(s.Repeat.At, "repeat %s does not move %s forward", rep, anchor))
			return false
		}
		anchor = next
		return true
	}
	for anchor.Before(aw.From) {
		if !step() {
			return
		}
	}
	for !anchor.After(aw.Until) {
		if !r.add(anchor, s.StartDelta, s.StartTime, s.End) {
			return
		}
		if anchor == calendar.MaxDate() || !step() {
			return
		}
	}
}

func (r *specRun) formula(s *model.FormulaSpec) {
	aw := r.anchorWindow(s.StartDelta, s.End)
	aw.Each(func(d calendar.Date) bool {
		if s.Expr != nil {
			ctx := calendar.NewDayContext(d)
			ok, err := formula.Matches(s.Expr, &ctx)
			if err != nil {
				r.failures.add(err)
				return true
			}
			if !ok {
				return true
			}
		}
		return r.add(d, s.StartDelta, s.StartTime, s.End)
	})
}

var rruleDays = [...]rrule.Weekday{
	calendar.Monday:    rrule.MO,
	calendar.Tuesday:   rrule.TU,
	calendar.Wednesday: rrule.WE,
	calendar.Thursday:  rrule.TH,
	calendar.Friday:    rrule.FR,
	calendar.Saturday:  rrule.SA,
	calendar.Sunday:    rrule.SU,
}

// weekday enumerates the matching days with a weekly RRULE. Only as many
// weeks as the cap allows are requested.
func (r *specRun) weekday(s *model.WeekdaySpec) {
	aw := r.anchorWindow(delta.Delta{}, s.End)
	if aw.Empty() || !s.Weekday.Valid() {
		return
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleDays[s.Weekday]},
		Dtstart:   aw.From.Time(time.UTC),
	})
	if err != nil {
		r.diags.Add(perr.Wrapf(err, perr.KindSemantic, "weekly rule for %s", s.Weekday))
		return
	}

	until := aw.Until
	if limit, ok := aw.From.AddDays(7 * int64(r.max+1)); ok && limit.Before(until) {
		until = limit
	}
	for _, t := range rule.Between(aw.From.Time(time.UTC), until.Time(time.UTC), true) {
		if !r.add(calendar.FromTime(t), delta.Delta{}, s.StartTime, s.End) {
			return
		}
	}
}

// birthday yields one whole-day occurrence per year. Feb 29 falls on
// Feb 28 -- Mar 1 in common years.
func (r *specRun) birthday(s *model.BirthdaySpec) {
	aw := r.hull.Expand(-1, 0)
	for y := aw.From.Year(); y <= aw.Until.Year(); y++ {
		if s.Year != 0 && y < s.Year {
			continue
		}
		if len(r.out) >= r.max {
			r.capped = true
			return
		}
		o := model.Occurrence{Spec: r.index}
		if d, ok := calendar.NewDate(y, s.Month, s.Day); ok {
			o.Start = calendar.At(d)
		} else {
			start, ok1 := calendar.NewDate(y, time.February, 28)
			end, ok2 := calendar.NewDate(y, time.March, 1)
			if !ok1 || !ok2 {
				continue
			}
			endM := calendar.At(end)
			o.Start, o.End = calendar.At(start), &endM
		}
		if s.Year != 0 {
			age := y - s.Year
			o.Age = &age
		}
		r.out = append(r.out, o)
	}
}

// failures folds repeated per-anchor errors into one diagnostic.
type failures struct {
	first error
	count int
}

func (f *failures) add(err error) {
	if f.first == nil {
		f.first = err
	}
	f.count++
}

func (f *failures) report(l *perr.List, pos perr.Pos) {
	switch f.count {
	case 0:
		return
	case 1:
		l.Add(perr.WithPos(f.first, pos))
	default:
		l.Add(perr.WithPos(perr.Wrapf(f.first, perr.KindOf(f.first), "failed on %d days, first failure", f.count), pos))
	}
}
