package errors

import (
	"sort"
	"strings"
)

// List collects non-fatal errors (diagnostics) in the order they were found
type List []*Error

// Add appends err, adopting foreign errors. nil is ignored
func (l *List) Add(err error) {
	if err == nil {
		return
	}
	*l = append(*l, adopt(err))
}

// Extend appends every error of other
func (l *List) Extend(other List) {
	*l = append(*l, other...)
}

// Len returns the number of collected errors
func (l List) Len() int { return len(l) }

// Err returns the list as a single error, or nil when empty
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Error joins every message on its own line
func (l List) Error() string {
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// Sort orders the list by entry, then position
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.entry != b.entry {
			return a.entry < b.entry
		}
		if a.pos.Line != b.pos.Line {
			return a.pos.Line < b.pos.Line
		}
		return a.pos.Column < b.pos.Column
	})
}

// WithEntry returns a copy of the list with every error attributed to entry
func (l List) WithEntry(entry string) List {
	out := make(List, 0, len(l))
	for _, e := range l {
		c := *e
		c.entry = entry
		out = append(out, &c)
	}
	return out
}
