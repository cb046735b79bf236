package resolve

import (
	"sort"

	"plancal/internal/model"
)

// MatchCompletions attaches completion records to occs in place.
//
// A record with a span completes the occurrence starting at exactly that
// moment (and ending at the span end, when one is given). A record without
// a span completes the latest still pending occurrence that starts on or
// before the recorded date. Records that match nothing are ignored.
func MatchCompletions(occs []model.Occurrence, done []model.Completion) {
	if len(done) == 0 || len(occs) == 0 {
		return
	}
	order := make([]int, len(occs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return occs[order[a]].Start.Compare(occs[order[b]].Start) < 0
	})

	var loose []model.Completion
	for _, c := range done {
		if c.Span == nil {
			loose = append(loose, c)
			continue
		}
		for _, k := range order {
			if occs[k].Completion == nil && spanMatches(*c.Span, occs[k]) {
				occs[k].Completion = &c
				break
			}
		}
	}

	sort.SliceStable(loose, func(a, b int) bool { return loose[a].Recorded.Before(loose[b].Recorded) })
	for _, c := range loose {
		best := -1
		for _, k := range order {
			if occs[k].Start.Date.After(c.Recorded) {
				break
			}
			if occs[k].Completion == nil {
				best = k
			}
		}
		if best >= 0 {
			occs[best].Completion = &c
		}
	}
}

func spanMatches(s model.Span, o model.Occurrence) bool {
	if !s.Start.Equal(o.Start) {
		return false
	}
	if s.End == nil {
		return true
	}
	return o.End != nil && s.End.Equal(*o.End)
}
