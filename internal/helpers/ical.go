package helpers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const (
	CalendarProductID    = "-//gigs//events//EN"
	DefaultEventDuration = 3 * time.Hour
)

// CalendarEntry is one event as the calendar export sees it. Date and Time
// are the stored display strings.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Venue       string
	Location    string
	Category    string
	Date        string
	Time        string
}

// EntryStart resolves the yearless display date and time into a floating
// local start time.
func EntryStart(e CalendarEntry, year int) (time.Time, error) {
	d, err := ParseDisplayDate(e.Date, year)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseDisplayTime(e.Time)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), nil
}

// BuildCalendar returns the calendar and the UIDs of entries whose date or
// time could not be read; those are left out.
func BuildCalendar(entries []CalendarEntry, year int, now time.Time) (*ical.Calendar, []string) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, CalendarProductID)

	var skipped []string
	for _, e := range entries {
		start, err := EntryStart(e, year)
		if err != nil {
			skipped = append(skipped, e.UID)
			continue
		}

		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, e.UID)
		ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		ev.Props.SetDateTime(ical.PropDateTimeStart, start)
		ev.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(DefaultEventDuration))
		ev.Props.SetText(ical.PropSummary, e.Summary)
		if e.Description != "" {
			ev.Props.SetText(ical.PropDescription, e.Description)
		}
		if loc := joinLocation(e.Venue, e.Location); loc != "" {
			ev.Props.SetText(ical.PropLocation, loc)
		}
		if e.Category != "" {
			ev.Props.SetText(ical.PropCategories, e.Category)
		}
		cal.Children = append(cal.Children, ev.Component)
	}
	return cal, skipped
}

func WriteCalendar(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %v", err)
	}
	return nil
}

func joinLocation(venue, location string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{venue, location} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
