// Package syntax parses plan documents: entry headers (TASK, NOTE, LOG),
// date statements, completion lines and descriptions.
//
// Parsing is line oriented. Every error carries the line and column it was
// found at, and a broken entry never prevents the others from parsing.
package syntax

import (
	"fmt"
	"strings"

	"plancal/internal/calendar"
	perr "plancal/internal/errors"
	"plancal/internal/model"
)

// Line is one numbered source line.
type Line struct {
	No   int
	Text string
}

// SplitLines numbers the lines of src starting at first.
func SplitLines(src string, first int) []Line {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	raw := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	lines := make([]Line, len(raw))
	for i, t := range raw {
		lines[i] = Line{No: first + i, Text: t}
	}
	return lines
}

// cursorFor returns a cursor over l with leading indentation skipped.
func cursorFor(l Line) *cursor {
	text := strings.TrimRight(l.Text, " \t")
	c := newCursor(text, l.No, 1)
	c.skipSpace()
	return c
}

type section uint8

const (
	inStatements section = iota
	inCompletions
	inDescription
)

// ParseEntry parses the lines of one TASK, NOTE or LOG block. The first
// line must be the header.
func ParseEntry(lines []Line) (model.Entry, error) {
	if len(lines) == 0 {
		return model.Entry{}, perr.New(perr.KindSyntax, "empty entry")
	}
	head := cursorFor(lines[0])
	entry := model.Entry{Line: lines[0].No}
	switch {
	case head.keyword("TASK"):
		entry.Kind = model.Task
		entry.Set.Task = true
	case head.keyword("NOTE"):
		entry.Kind = model.Note
	case head.keyword("LOG"):
		entry.Kind = model.Log
	default:
		return entry, head.errorf("expected TASK, NOTE or LOG, found %s", head.describe())
	}
	head.skipSpace()
	if entry.Kind == model.Log {
		d, err := head.date()
		if err != nil {
			return entry, err
		}
		if err := head.expectEnd(); err != nil {
			return entry, err
		}
		entry.Date = d
		entry.Title = d.String()
	} else {
		entry.Title = strings.TrimSpace(head.rest())
		if entry.Title == "" {
			return entry, head.errorf("missing title")
		}
	}

	sec := inStatements
	for _, l := range lines[1:] {
		c := cursorFor(l)
		if c.eof() {
			continue
		}
		switch {
		case c.peek() == '#':
			sec = inDescription
			entry.Description = append(entry.Description, descriptionText(c.rest()))

		case sec == inDescription:
			return entry, c.errorf("expected description line starting with '#', found %s", c.describe())

		case c.atCompletion():
			if entry.Kind != model.Task {
				return entry, c.errorf("completion lines are only allowed in a TASK")
			}
			sec = inCompletions
			done, err := parseCompletion(c)
			if err != nil {
				return entry, err
			}
			entry.Set.Completions = append(entry.Set.Completions, done)

		case sec == inCompletions && isStatement(c):
			return entry, c.errorf("statement after completion lines")

		case entry.Kind == model.Log:
			return entry, c.errorf("a LOG entry only takes description lines")

		default:
			if err := parseStatement(c, &entry.Set); err != nil {
				return entry, err
			}
		}
	}
	return entry, nil
}

func descriptionText(s string) string {
	s = strings.TrimPrefix(s, "#")
	return strings.TrimPrefix(s, " ")
}

func (c *cursor) atCompletion() bool {
	save := c.off
	defer func() { c.off = save }()
	return c.keyword("DONE") || c.keyword("CANCELED")
}

// parseCompletion parses "DONE [D] span?" or "CANCELED [D] span?" where span
// is one of "D", "D T", "D -- D", "D T -- T" or "D T -- D T".
func parseCompletion(c *cursor) (model.Completion, error) {
	done := model.Completion{At: c.pos()}
	switch {
	case c.keyword("DONE"):
		done.Kind = model.Done
	case c.keyword("CANCELED"):
		done.Kind = model.Canceled
	}
	c.skipSpace()
	if !c.literal("[") {
		return done, c.errorf("expected '[' and the completion date, found %s", c.describe())
	}
	recorded, err := c.date()
	if err != nil {
		return done, err
	}
	if !c.literal("]") {
		return done, c.errorf("expected ']', found %s", c.describe())
	}
	done.Recorded = recorded
	c.skipSpace()
	if c.eof() {
		return done, nil
	}

	span, err := parseSpan(c)
	if err != nil {
		return done, err
	}
	done.Span = &span
	return done, c.expectEnd()
}

func parseSpan(c *cursor) (model.Span, error) {
	var span model.Span
	d, err := c.date()
	if err != nil {
		return span, err
	}
	span.Start = calendar.At(d)
	c.skipSpace()
	if c.atTime() {
		t, err := c.time(false)
		if err != nil {
			return span, err
		}
		span.Start = span.Start.WithTime(t)
		c.skipSpace()
	}
	if !c.atSeparator() {
		return span, nil
	}
	c.off += 2
	c.skipSpace()

	end := calendar.Moment{Date: d}
	endAt := c.pos()
	gotDate := c.atDate()
	if gotDate {
		if end.Date, err = c.date(); err != nil {
			return span, err
		}
		c.skipSpace()
	}
	if c.atTime() {
		t, err := c.time(true)
		if err != nil {
			return span, err
		}
		end = end.WithTime(t)
	} else if !gotDate {
		return span, c.errorf("expected end date or time after '--', found %s", c.describe())
	}
	if end.Timed() != span.Start.Timed() {
		return span, perr.Syntaxf(endAt, "span end %s must have a time exactly when its start %s has one", end, span.Start)
	}
	if end.Compare(span.Start) < 0 {
		return span, perr.Semanticf(endAt, "span end %s lies before its start %s", end, span.Start)
	}
	span.End = &end
	return span, nil
}

// entryID names an entry by document and header line.
func entryID(doc string, line int) string {
	return fmt.Sprintf("%s:%d", doc, line)
}
