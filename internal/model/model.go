package model

import (
	"time"

	"plancal/internal/calendar"
	"plancal/internal/delta"
	perr "plancal/internal/errors"
	"plancal/internal/formula"
)

// DateSpec is one parsed date rule. The concrete types are FixedSpec,
// FormulaSpec, WeekdaySpec and BirthdaySpec.
type DateSpec interface {
	Pos() perr.Pos
	Tag() string
	dateSpec()
}

// Repeat is the "; [done] delta" suffix of a fixed date.
type Repeat struct {
	Delta delta.Delta
	// FromDone restarts the chain at the most recent completion instead of
	// the nominal start date.
	FromDone bool
	At       perr.Pos
}

// FixedSpec is "DATE D [delta] [T] [-- ...] [; [done] delta]".
type FixedSpec struct {
	Start      calendar.Date
	StartDelta delta.Delta
	StartTime  *calendar.Time
	// End moves the start moment to the end moment. An explicit end date
	// is stored as a leading day step, counted from the start after
	// StartDelta, so it follows the start on repeats. Its time is a
	// SetClock step.
	End    delta.Delta
	Repeat *Repeat
	At     perr.Pos
}

// FormulaSpec is "DATE (expr)|* [delta] [T] [-- [delta] [T]]". A nil Expr
// stands for "*" and matches every day.
type FormulaSpec struct {
	Expr       formula.Expr
	StartDelta delta.Delta
	StartTime  *calendar.Time
	End        delta.Delta
	At         perr.Pos
}

// WeekdaySpec is "DATE wd [T] [-- [wd] [delta] [T]]".
type WeekdaySpec struct {
	Weekday   calendar.Weekday
	StartTime *calendar.Time
	End       delta.Delta
	At        perr.Pos
}

// BirthdaySpec is "BDATE YYYY-MM-DD" or "BDATE ?-MM-DD". Year is 0 when
// unknown.
type BirthdaySpec struct {
	Year  int
	Month time.Month
	Day   int
	At    perr.Pos
}

func (s *FixedSpec) Pos() perr.Pos    { return s.At }
func (s *FormulaSpec) Pos() perr.Pos  { return s.At }
func (s *WeekdaySpec) Pos() perr.Pos  { return s.At }
func (s *BirthdaySpec) Pos() perr.Pos { return s.At }

func (*FixedSpec) Tag() string    { return "fixed" }
func (*FormulaSpec) Tag() string  { return "formula" }
func (*WeekdaySpec) Tag() string  { return "weekday" }
func (*BirthdaySpec) Tag() string { return "birthday" }

func (*FixedSpec) dateSpec()    {}
func (*FormulaSpec) dateSpec()  {}
func (*WeekdaySpec) dateSpec()  {}
func (*BirthdaySpec) dateSpec() {}

// Except drops the occurrence starting on Date.
type Except struct {
	Date calendar.Date
	At   perr.Pos
}

// Move reschedules the occurrence anchored on From. ToDate is zero when
// only the time changes ("MOVE D TO T").
type Move struct {
	From   calendar.Date
	ToDate calendar.Date
	ToTime *calendar.Time
	At     perr.Pos
}

// Target returns the moved start moment for an occurrence starting at m.
func (mv Move) Target(m calendar.Moment) calendar.Moment {
	out := m
	if !mv.ToDate.IsZero() {
		out.Date = mv.ToDate
	}
	if mv.ToTime != nil {
		out = out.WithTime(*mv.ToTime)
	}
	return out
}

// Remind sets how far ahead of each occurrence reminding starts. A nil
// Delta ("REMIND *") disables reminders.
type Remind struct {
	Delta *delta.Delta
	At    perr.Pos
}

// StatementSet is every date statement of one entry. It is built once by
// the parser and never modified afterwards.
type StatementSet struct {
	// Task marks sets that belong to a TASK; only tasks carry completions
	// and can be overdue.
	Task bool

	Specs       []DateSpec
	From        *calendar.Date
	Until       *calendar.Date
	Except      []Except
	Moves       []Move
	Remind      *Remind
	Completions []Completion
}

// LastDone returns the latest date a DONE record was recorded on. Canceled
// occurrences do not restart a "done" repeat.
func (s *StatementSet) LastDone() (calendar.Date, bool) {
	var last calendar.Date
	for _, c := range s.Completions {
		if c.Kind != Done {
			continue
		}
		if last.IsZero() || c.Recorded.After(last) {
			last = c.Recorded
		}
	}
	return last, !last.IsZero()
}

// Empty reports whether the set has no date specs at all.
func (s *StatementSet) Empty() bool { return len(s.Specs) == 0 }
