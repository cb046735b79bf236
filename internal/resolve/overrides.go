package resolve

import (
	"plancal/internal/calendar"
	perr "plancal/internal/errors"
	"plancal/internal/model"
)

func applyExcept(set *model.StatementSet, occs []model.Occurrence) []model.Occurrence {
	if len(set.Except) == 0 {
		return occs
	}
	skip := make(map[calendar.Date]struct{}, len(set.Except))
	for _, ex := range set.Except {
		skip[ex.Date] = struct{}{}
	}
	out := occs[:0]
	for _, o := range occs {
		if _, ok := skip[o.Start.Date]; !ok {
			out = append(out, o)
		}
	}
	return out
}

// applyMoves relocates occurrences starting on a MOVE source date. A MOVE
// whose source lies in the scanned range but matches nothing is reported.
func applyMoves(set *model.StatementSet, occs []model.Occurrence, hull calendar.Window, diags *perr.List) []model.Occurrence {
	if len(set.Moves) == 0 {
		return occs
	}
	used := make([]bool, len(set.Moves))
	for i := range occs {
		for j, mv := range set.Moves {
			if occs[i].Start.Date != mv.From {
				continue
			}
			used[j] = true
			moved, err := move(occs[i], mv)
			if err != nil {
				diags.Add(err)
			} else {
				occs[i] = moved
			}
			break
		}
	}
	for j, mv := range set.Moves {
		if !used[j] && hull.Contains(mv.From) {
			diags.Add(perr.Semanticf(mv.At, "MOVE source %s matches no occurrence", mv.From))
		}
	}
	return occs
}

// move shifts o to the target of mv, keeping its duration.
func move(o model.Occurrence, mv model.Move) (model.Occurrence, error) {
	if mv.ToTime != nil && !o.Start.Timed() {
		return o, perr.Semanticf(mv.At, "cannot move the whole-day occurrence on %s to a time", mv.From)
	}
	target := mv.Target(o.Start)
	if o.End != nil {
		var end calendar.Moment
		if o.End.Timed() {
			shift := target.AbsMinutes() - o.Start.AbsMinutes()
			e, ok := calendar.MomentFromMinutes(o.End.AbsMinutes()+shift, true)
			if !ok {
				return o, perr.Semanticf(mv.At, "moved end of %s is out of range", o)
			}
			end = e
		} else {
			d, ok := o.End.Date.AddDays(target.Date.Sub(o.Start.Date))
			if !ok {
				return o, perr.Semanticf(mv.At, "moved end of %s is out of range", o)
			}
			end = calendar.At(d)
		}
		o.End = &end
	}
	from := o.Start.Date
	o.Start = target
	o.MovedFrom = &from
	return o, nil
}

// dedupByStart keeps the first occurrence per start date. occs is in
// declaration order, so the earliest DateSpec wins.
func dedupByStart(occs []model.Occurrence) []model.Occurrence {
	seen := make(map[calendar.Date]struct{}, len(occs))
	out := occs[:0]
	for _, o := range occs {
		if _, dup := seen[o.Start.Date]; dup {
			continue
		}
		seen[o.Start.Date] = struct{}{}
		out = append(out, o)
	}
	return out
}

func applyFromUntil(set *model.StatementSet, occs []model.Occurrence) []model.Occurrence {
	if set.From == nil && set.Until == nil {
		return occs
	}
	out := occs[:0]
	for _, o := range occs {
		if set.From != nil && o.EndDate().Before(*set.From) {
			continue
		}
		if set.Until != nil && o.Start.Date.After(*set.Until) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func attachReminders(set *model.StatementSet, occs []model.Occurrence, diags *perr.List) {
	if set.Remind == nil || set.Remind.Delta == nil {
		return
	}
	dl := *set.Remind.Delta
	var fails failures
	for i := range occs {
		start := occs[i].Start.Date
		at, err := dl.ApplyDate(start)
		if err != nil {
			fails.add(err)
			continue
		}
		if at.After(start) {
			fails.add(perr.Semanticf(set.Remind.At, "reminder %s lies after the occurrence on %s", dl, start))
			continue
		}
		occs[i].RemindAt = &at
	}
	fails.report(diags, set.Remind.At)
}
