package model

import (
	"plancal/internal/calendar"
	perr "plancal/internal/errors"
)

type EntryKind uint8

const (
	Task EntryKind = iota + 1
	Note
	Log
)

func (k EntryKind) String() string {
	switch k {
	case Task:
		return "TASK"
	case Note:
		return "NOTE"
	case Log:
		return "LOG"
	}
	return "?"
}

// Entry is one top-level block of a plan document.
type Entry struct {
	// ID is "<document>:<line>" of the header line.
	ID    string
	Kind  EntryKind
	Title string
	// Date is the day of a LOG entry.
	Date        calendar.Date
	Set         StatementSet
	Description []string
	Line        int
}

// Document is a parsed plan file. Entries that failed to parse are left out
// and reported in Errors.
type Document struct {
	Name     string
	Timezone string
	Includes []string
	Entries  []Entry
	Errors   perr.List
}
