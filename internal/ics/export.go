// Package ics renders an agenda as an iCalendar (RFC 5545) feed.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"plancal/internal/agenda"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

const productID = "-//plancal//agenda export//EN"

// uidSpace namespaces the name-based event UIDs.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://plancal.invalid/occurrence"))

// Options controls the export.
type Options struct {
	// Name is written as X-WR-CALNAME when set.
	Name string
	// Location converts timed occurrences to instants. Defaults to the
	// agenda location, then time.Local.
	Location *time.Location
	// Now is the DTSTAMP of every event. Defaults to time.Now.
	Now time.Time
}

// Export builds a VCALENDAR with one VEVENT per agenda item.
func Export(a *agenda.Agenda, opt Options) *ical.Calendar {
	loc := opt.Location
	if loc == nil {
		loc = a.Location
	}
	if loc == nil {
		loc = time.Local
	}
	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opt.Name != "" {
		cal.SetXWRCalName(opt.Name)
	}
	cal.SetXWRTimezone(loc.String())

	for _, it := range a.Items {
		addEvent(cal, it, loc, now)
	}
	appLog.Debug("ics export", "events", len(a.Items), "window", a.Window)
	return cal
}

// Write serializes the export of a to w.
func Write(w io.Writer, a *agenda.Agenda, opt Options) error {
	_, err := io.WriteString(w, Export(a, opt).Serialize())
	return err
}

// UID returns the stable identifier of an item: the same entry and start
// always produce the same UID.
func UID(it agenda.Item) string {
	name := it.EntryID + "@" + it.Start.String()
	return uuid.NewSHA1(uidSpace, []byte(name)).String()
}

func addEvent(cal *ical.Calendar, it agenda.Item, loc *time.Location, now time.Time) {
	ev := cal.AddEvent(UID(it))
	ev.SetDtStampTime(now)
	ev.SetSummary(it.Title)
	if len(it.Description) > 0 {
		ev.SetDescription(strings.Join(it.Description, "\n"))
	}

	if it.Start.Timed() {
		ev.SetStartAt(it.Start.In(loc))
		if it.End != nil {
			ev.SetEndAt(it.End.In(loc))
		}
	} else {
		// DTEND of an all-day event is exclusive.
		ev.SetAllDayStartAt(it.Start.Date.Time(loc))
		ev.SetAllDayEndAt(it.EndDate().Next().Time(loc))
	}

	status := "CONFIRMED"
	if it.Status() == model.StatusCanceled {
		status = "CANCELLED"
	}
	ev.SetProperty(ical.ComponentPropertyStatus, status)
	ev.SetProperty(ical.ComponentPropertyCategories, strings.Join(categories(it), ","))

	if it.RemindAt != nil {
		days := it.Start.Date.Sub(*it.RemindAt)
		alarm := ev.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-P%dD", days))
		alarm.SetProperty(ical.ComponentPropertyDescription, it.Title)
	}
}

func categories(it agenda.Item) []string {
	out := []string{it.Kind.String()}
	if it.Kind != model.Task {
		return out
	}
	switch {
	case it.Status() == model.StatusDone:
		out = append(out, "DONE")
	case it.Status() == model.StatusCanceled:
		out = append(out, "CANCELED")
	case it.Overdue:
		out = append(out, "OVERDUE")
	}
	return out
}
