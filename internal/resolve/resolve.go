// Package resolve turns a statement set into the ordered list of concrete
// occurrences inside a query window.
//
// Resolution is a pure function of the statement set and the query: it does
// no I/O and keeps no state between calls, so entries can be resolved
// concurrently. Problems that only affect part of a set (a formula failing
// on some days, a MOVE without a source, a capped expansion) are returned
// as diagnostics next to the occurrences that could be resolved.
package resolve

import (
	"sort"
	"time"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
	"plancal/internal/model"
)

// DefaultMaxOccurrences caps the occurrences one date spec may expand to.
const DefaultMaxOccurrences = 5000

// OverdueLookback is how many days before the window pending tasks are
// searched for when the window does not start in the future.
const OverdueLookback = 365

// Query describes what to resolve.
type Query struct {
	Window calendar.Window
	// Today is the evaluation date. It decides overdue tasks and reminders.
	Today calendar.Date
	// Location is the timezone Today was taken in.
	Location       *time.Location
	MaxOccurrences int
}

// NewQuery builds a query evaluated at now in loc.
func NewQuery(w calendar.Window, now time.Time, loc *time.Location) Query {
	if loc == nil {
		loc = time.Local
	}
	return Query{Window: w, Today: calendar.FromTime(now.In(loc)), Location: loc}
}

func (q Query) maxOccurrences() int {
	if q.MaxOccurrences <= 0 {
		return DefaultMaxOccurrences
	}
	return q.MaxOccurrences
}

// Result is the outcome of resolving one statement set.
type Result struct {
	Occurrences []model.Occurrence
	Diagnostics perr.List
}

// Resolve computes the occurrences of set that touch q.Window (or whose
// reminder interval does), ordered by start and then by declaration order.
// When the window starts on or before today, pending task occurrences that
// ended before it (up to OverdueLookback days) are included too.
func Resolve(set *model.StatementSet, q Query) Result {
	var res Result
	hull := scanHull(set, q)

	var occs []model.Occurrence
	for i, spec := range set.Specs {
		r := &specRun{set: set, index: i, hull: hull, max: q.maxOccurrences(), diags: &res.Diagnostics}
		occs = append(occs, r.expand(spec)...)
	}

	occs = applyExcept(set, occs)
	occs = applyMoves(set, occs, hull, &res.Diagnostics)
	occs = dedupByStart(occs)
	occs = applyFromUntil(set, occs)
	attachReminders(set, occs, &res.Diagnostics)

	if set.Task {
		MatchCompletions(occs, set.Completions)
	}

	out := occs[:0]
	for _, o := range occs {
		if !visible(o, q.Window) && !(set.Task && leftBehind(o, q)) {
			continue
		}
		if set.Task && o.Status() == model.StatusPending && o.EndDate().Before(q.Today) {
			o.Overdue = true
		}
		out = append(out, o)
	}
	sortOccurrences(out)
	res.Occurrences = out
	return res
}

// scanHull is the date range every spec must be expanded over so that
// overrides, reminders and completion matching see all relevant
// occurrences.
func scanHull(set *model.StatementSet, q Query) calendar.Window {
	hull := q.Window
	if set.Task && !q.Window.From.After(q.Today) {
		hull = hull.Expand(-OverdueLookback, 0)
	}
	if set.Remind != nil && set.Remind.Delta != nil {
		lo, _ := set.Remind.Delta.Bounds()
		if lo < 0 {
			hull = hull.Expand(0, -lo)
		}
	}
	for _, mv := range set.Moves {
		if !mv.ToDate.IsZero() && hull.Contains(mv.ToDate) {
			hull = hull.Include(mv.From)
		}
	}
	if set.Task {
		for _, c := range set.Completions {
			hull = hull.Include(c.Recorded)
			if c.Span != nil {
				hull = hull.Include(c.Span.Start.Date)
			}
		}
	}
	return hull
}

// visible reports whether o or its reminder interval touches w.
func visible(o model.Occurrence, w calendar.Window) bool {
	if w.Touches(o.Start.Date, o.EndDate()) {
		return true
	}
	return o.RemindAt != nil && w.Touches(*o.RemindAt, o.Start.Date)
}

// leftBehind reports whether the task occurrence o is still pending but
// ended before a window that does not start in the future.
func leftBehind(o model.Occurrence, q Query) bool {
	if q.Window.From.After(q.Today) || o.Status() != model.StatusPending {
		return false
	}
	end := o.EndDate()
	if !end.Before(q.Window.From) || !end.Before(q.Today) {
		return false
	}
	oldest, ok := q.Window.From.AddDays(-OverdueLookback)
	return !ok || !end.Before(oldest)
}

func sortOccurrences(occs []model.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		if c := occs[i].Start.Compare(occs[j].Start); c != 0 {
			return c < 0
		}
		return occs[i].Spec < occs[j].Spec
	})
}
