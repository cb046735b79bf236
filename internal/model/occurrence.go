package model

import (
	"plancal/internal/calendar"
	perr "plancal/internal/errors"
)

type CompletionKind uint8

const (
	Done CompletionKind = iota + 1
	Canceled
)

func (k CompletionKind) String() string {
	switch k {
	case Done:
		return "DONE"
	case Canceled:
		return "CANCELED"
	}
	return "?"
}

// Span is the optional occurrence reference of a completion line.
type Span struct {
	Start calendar.Moment
	End   *calendar.Moment
}

func (s Span) String() string {
	if s.End == nil {
		return s.Start.String()
	}
	return s.Start.String() + " -- " + s.End.String()
}

// Completion is a "DONE [date] span?" or "CANCELED [date] span?" line.
type Completion struct {
	Kind     CompletionKind
	Recorded calendar.Date
	Span     *Span
	At       perr.Pos
}

type Status uint8

const (
	StatusPending Status = iota
	StatusDone
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusCanceled:
		return "canceled"
	}
	return "pending"
}

// Occurrence is one resolved instance of a statement set.
type Occurrence struct {
	Start calendar.Moment
	End   *calendar.Moment
	// Spec is the declaration index of the DateSpec that produced it.
	Spec int
	// MovedFrom is the original start date of a moved occurrence.
	MovedFrom *calendar.Date
	// RemindAt is the first day of the reminder interval.
	RemindAt *calendar.Date
	// Age is set for birthdays with a known year.
	Age        *int
	Completion *Completion
	Overdue    bool
}

// EndDate is the last day the occurrence covers.
func (o Occurrence) EndDate() calendar.Date {
	if o.End == nil {
		return o.Start.Date
	}
	// A timed end at exactly 00:00 does not reach into that day.
	if o.End.Time != nil && o.End.Time.Minutes() == 0 && o.End.Date.After(o.Start.Date) {
		if d, ok := o.End.Date.AddDays(-1); ok {
			return d
		}
	}
	return o.End.Date
}

func (o Occurrence) Status() Status {
	if o.Completion == nil {
		return StatusPending
	}
	if o.Completion.Kind == Canceled {
		return StatusCanceled
	}
	return StatusDone
}

// Reminding reports whether today lies in the reminder interval, that is
// on or after RemindAt and before the start.
func (o Occurrence) Reminding(today calendar.Date) bool {
	if o.RemindAt == nil {
		return false
	}
	return !today.Before(*o.RemindAt) && today.Before(o.Start.Date)
}

func (o Occurrence) String() string {
	if o.End == nil {
		return o.Start.String()
	}
	return o.Start.String() + " -- " + o.End.String()
}
