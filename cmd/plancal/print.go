package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"plancal/internal/agenda"
	perr "plancal/internal/errors"
	"plancal/internal/model"
)

func printAgenda(w io.Writer, a *agenda.Agenda) {
	fmt.Fprintf(w, "%s (today %s, %s)\n", a.Window, a.Today, a.Location)

	if od := a.Overdue(); len(od) > 0 {
		fmt.Fprintln(w, "\nOverdue")
		for _, it := range od {
			fmt.Fprintf(w, "  %s  %s\n", it.Start.Date, describe(it))
		}
	}
	if rs := a.Reminders(); len(rs) > 0 {
		fmt.Fprintln(w, "\nReminders")
		for _, it := range rs {
			fmt.Fprintf(w, "  %s  %s (in %d days)\n", it.Start.Date, it.Title, it.Start.Date.Sub(a.Today))
		}
	}

	days := a.ByDay()
	if len(days) == 0 {
		fmt.Fprintln(w, "\nnothing planned")
		return
	}
	for _, day := range days {
		fmt.Fprintf(w, "\n%s %s\n", day.Date.Time(time.UTC).Format("Mon"), day.Date)
		for _, it := range day.Items {
			fmt.Fprintf(w, "  %-11s %s\n", clock(it), describe(it))
		}
	}
}

// clock is the time column: empty for whole-day items.
func clock(it agenda.Item) string {
	if !it.Start.Timed() {
		return ""
	}
	start := it.Start.Time.String()
	if it.End != nil && it.End.Timed() && it.End.Date == it.Start.Date {
		return start + "-" + it.End.Time.String()
	}
	return start
}

func describe(it agenda.Item) string {
	var b strings.Builder
	if it.Kind == model.Task {
		switch it.Status() {
		case model.StatusDone:
			b.WriteString("[x] ")
		case model.StatusCanceled:
			b.WriteString("[-] ")
		default:
			b.WriteString("[ ] ")
		}
	}
	b.WriteString(it.Title)
	if end := it.EndDate(); end != it.Start.Date {
		fmt.Fprintf(&b, " (until %s)", end)
	}
	if it.MovedFrom != nil {
		fmt.Fprintf(&b, " (moved from %s)", *it.MovedFrom)
	}
	if it.Age != nil {
		fmt.Fprintf(&b, " (age %d)", *it.Age)
	}
	return b.String()
}

func printDiagnostics(w io.Writer, l perr.List) {
	for _, err := range l {
		fmt.Fprintln(w, err)
	}
}
