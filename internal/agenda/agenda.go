// Package agenda resolves every entry of a set of plan documents into one
// ordered list of dated items.
package agenda

import (
	"context"
	"sort"
	"sync"
	"time"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
	appLog "plancal/internal/log"
	"plancal/internal/model"
	"plancal/internal/resolve"
	"plancal/internal/source"
	"plancal/internal/syntax"
)

// Options controls how an agenda is built.
type Options struct {
	Window   calendar.Window
	Today    calendar.Date
	Location *time.Location
	// MaxOccurrences caps the expansion of a single date spec.
	MaxOccurrences int
	// Parallel is the number of entries resolved at once. Values below 2
	// resolve sequentially.
	Parallel int
}

// Item is one occurrence of one entry.
type Item struct {
	EntryID     string
	Kind        model.EntryKind
	Title       string
	Description []string
	model.Occurrence
}

// Agenda is the resolved view of a set of documents.
type Agenda struct {
	Window      calendar.Window
	Today       calendar.Date
	Location    *time.Location
	Items       []Item
	Diagnostics perr.List
}

// Day groups the items starting on one date.
type Day struct {
	Date  calendar.Date
	Items []Item
}

// ByDay groups the items by start date. Overdue items that ended before
// the window are left to Overdue.
func (a *Agenda) ByDay() []Day {
	var days []Day
	for _, it := range a.Items {
		if it.EndDate().Before(a.Window.From) {
			continue
		}
		if n := len(days); n > 0 && days[n-1].Date == it.Start.Date {
			days[n-1].Items = append(days[n-1].Items, it)
			continue
		}
		days = append(days, Day{Date: it.Start.Date, Items: []Item{it}})
	}
	return days
}

// Overdue returns the pending task items whose end lies before today.
func (a *Agenda) Overdue() []Item {
	var out []Item
	for _, it := range a.Items {
		if it.Overdue {
			out = append(out, it)
		}
	}
	return out
}

// Reminders returns the items whose reminder interval contains today.
func (a *Agenda) Reminders() []Item {
	var out []Item
	for _, it := range a.Items {
		if it.Reminding(a.Today) {
			out = append(out, it)
		}
	}
	return out
}

type job struct {
	seq   int
	entry *model.Entry
}

type outcome struct {
	items []Item
	diags perr.List
}

// Build resolves every entry of docs. Parse errors recorded in the
// documents and resolution diagnostics end up in Agenda.Diagnostics; a
// failing entry never hides the others.
func Build(docs []*model.Document, opt Options) *Agenda {
	start := time.Now()
	a := &Agenda{Window: opt.Window, Today: opt.Today, Location: opt.Location}

	var jobs []job
	for _, doc := range docs {
		a.Diagnostics.Extend(doc.Errors)
		for i := range doc.Entries {
			jobs = append(jobs, job{seq: len(jobs), entry: &doc.Entries[i]})
		}
	}

	q := resolve.Query{
		Window:         opt.Window,
		Today:          opt.Today,
		Location:       opt.Location,
		MaxOccurrences: opt.MaxOccurrences,
	}
	results := make([]outcome, len(jobs))
	run := func(j job) { results[j.seq] = resolveEntry(j.entry, q) }

	if opt.Parallel < 2 || len(jobs) < 2 {
		for _, j := range jobs {
			run(j)
		}
	} else {
		ch := make(chan job)
		var wg sync.WaitGroup
		for w := 0; w < min(opt.Parallel, len(jobs)); w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range ch {
					run(j)
				}
			}()
		}
		for _, j := range jobs {
			ch <- j
		}
		close(ch)
		wg.Wait()
	}

	order := make(map[string]int, len(jobs))
	for _, j := range jobs {
		order[j.entry.ID] = j.seq
	}
	for _, r := range results {
		a.Items = append(a.Items, r.items...)
		a.Diagnostics.Extend(r.diags)
	}
	sort.SliceStable(a.Items, func(i, j int) bool {
		x, y := a.Items[i], a.Items[j]
		if c := x.Start.Compare(y.Start); c != 0 {
			return c < 0
		}
		return order[x.EntryID] < order[y.EntryID]
	})

	appLog.Debug("agenda built",
		"window", opt.Window,
		"entries", len(jobs),
		"items", len(a.Items),
		"diagnostics", a.Diagnostics.Len(),
		"took", time.Since(start),
	)
	return a
}

func resolveEntry(e *model.Entry, q resolve.Query) outcome {
	base := Item{EntryID: e.ID, Kind: e.Kind, Title: e.Title, Description: e.Description}
	if e.Kind == model.Log {
		if !q.Window.Contains(e.Date) {
			return outcome{}
		}
		it := base
		it.Start = calendar.At(e.Date)
		return outcome{items: []Item{it}}
	}

	res := resolve.Resolve(&e.Set, q)
	out := outcome{diags: res.Diagnostics.WithEntry(e.ID)}
	for _, o := range res.Occurrences {
		it := base
		it.Occurrence = o
		out.items = append(out.items, it)
	}
	return out
}

// Load reads and parses every source. Sources that cannot be loaded are
// reported as IO diagnostics on an empty document so callers can still
// build an agenda from the rest.
func Load(ctx context.Context, l *source.Loader, sources []source.Source) []*model.Document {
	results, errs := l.LoadAll(ctx, sources)
	docs := make([]*model.Document, 0, len(results)+1)
	for _, r := range results {
		doc := syntax.ParseDocument(r.Source.ID, string(r.Body))
		appLog.Debug("plan parsed",
			"id", r.Source.ID,
			"entries", len(doc.Entries),
			"errors", doc.Errors.Len(),
			"from_cache", r.FromCache,
		)
		docs = append(docs, doc)
	}
	if len(errs) > 0 {
		failed := &model.Document{Name: "(load)"}
		for _, err := range errs {
			failed.Errors.Add(err)
		}
		docs = append(docs, failed)
	}
	return docs
}

// Timezone returns the first TIMEZONE directive found in docs.
func Timezone(docs []*model.Document) string {
	for _, d := range docs {
		if d.Timezone != "" {
			return d.Timezone
		}
	}
	return ""
}
