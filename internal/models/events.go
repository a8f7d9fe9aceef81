package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/helpers"
)

type Category string

const (
	CategoryAll        Category = "All"
	CategoryRock       Category = "Rock"
	CategoryJazz       Category = "Jazz"
	CategoryElectronic Category = "Electronic"
	CategoryIndie      Category = "Indie"
	CategoryHipHop     Category = "Hip Hop"
	CategoryCountry    Category = "Country"
)

// Categories lists the values an event may carry, in display order.
var Categories = []Category{
	CategoryRock,
	CategoryJazz,
	CategoryElectronic,
	CategoryIndie,
	CategoryHipHop,
	CategoryCountry,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Event is the display shape. Date and Time hold the stored display strings
// ("January 5", "7:30 PM").
type Event struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	Location         string     `json:"location"`
	Venue            string     `json:"venue"`
	Category         Category   `json:"category"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description"`
	ImageURL         *string    `json:"image_url"`
	ImagePath        *string    `json:"image_path"`
	Organizer        *uuid.UUID `json:"organizer"`
	AttendeeCount    int        `json:"attendee_count"`
}

func (e *Event) IsOrganizer(userID uuid.UUID) bool {
	return e.Organizer != nil && userID != uuid.Nil && *e.Organizer == userID
}

func (e *Event) CalendarEntry() helpers.CalendarEntry {
	return helpers.CalendarEntry{
		UID:         fmt.Sprintf("event-%d@gigs", e.ID),
		Summary:     e.Name,
		Description: e.Description,
		Venue:       e.Venue,
		Location:    e.Location,
		Category:    string(e.Category),
		Date:        e.Date,
		Time:        e.Time,
	}
}

func CalendarEntries(events []*Event) []helpers.CalendarEntry {
	entries := make([]helpers.CalendarEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, e.CalendarEntry())
	}
	return entries
}

type attendeeAggregate struct {
	Count int `json:"count"`
}

// EventRow is the store shape of the events table.
type EventRow struct {
	ID               int64               `json:"id,omitempty"`
	Title            string              `json:"title"`
	Date             string              `json:"date"`
	Time             string              `json:"time"`
	Location         string              `json:"location"`
	Venue            string              `json:"venue"`
	Category         Category            `json:"category"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description"`
	ImageURL         *string             `json:"image_url"`
	ImagePath        *string             `json:"image_path"`
	Organizer        *uuid.UUID          `json:"organizer"`
	EventAttendees   []attendeeAggregate `json:"event_attendees,omitempty"`
}

func (r *EventRow) ToEvent() *Event {
	e := &Event{
		ID:               r.ID,
		Name:             r.Title,
		Date:             r.Date,
		Time:             r.Time,
		Location:         r.Location,
		Venue:            r.Venue,
		Category:         r.Category,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		ImageURL:         r.ImageURL,
		ImagePath:        r.ImagePath,
		Organizer:        r.Organizer,
	}
	if len(r.EventAttendees) > 0 {
		e.AttendeeCount = r.EventAttendees[0].Count
	}
	return e
}

// EventFields is what the create and edit forms submit. Date and Time are in
// form layout (2025-01-05, 19:30).
type EventFields struct {
	Name        string   `json:"name" form:"name" validate:"required,max=200"`
	Date        string   `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Time        string   `json:"time" form:"time" validate:"required,datetime=15:04"`
	Location    string   `json:"location" form:"location" validate:"required,max=200"`
	Venue       string   `json:"venue" form:"venue" validate:"required,max=200"`
	Category    Category `json:"category" form:"category" validate:"required,category"`
	Description string   `json:"description" form:"description" validate:"required"`
}

func (f *EventFields) Normalize() {
	f.Name = helpers.StringTrim(f.Name)
	f.Date = helpers.StringTrim(f.Date)
	f.Time = helpers.StringTrim(f.Time)
	f.Location = helpers.StringTrim(f.Location)
	f.Venue = helpers.StringTrim(f.Venue)
	f.Category = Category(helpers.StringTrim(string(f.Category)))
	f.Description = helpers.StringTrim(f.Description)
}

// FieldsFromEvent pre-fills an edit form from a stored event, assuming year
// for the yearless display date.
func FieldsFromEvent(e *Event, year int) (*EventFields, error) {
	date, err := helpers.DisplayDateToInput(e.Date, year)
	if err != nil {
		return nil, err
	}
	clock, err := helpers.DisplayTimeToInput(e.Time)
	if err != nil {
		return nil, err
	}
	return &EventFields{
		Name:        e.Name,
		Date:        date,
		Time:        clock,
		Location:    e.Location,
		Venue:       e.Venue,
		Category:    e.Category,
		Description: e.Description,
	}, nil
}

// StoredImage is where an uploaded image ended up.
type StoredImage struct {
	URL  string
	Path string
}

// NewEventRow builds the insert payload. The short description is always
// derived here, never taken from input.
func NewEventRow(f *EventFields, img *StoredImage, organizer uuid.UUID) (*EventRow, error) {
	date, clock, err := helpers.InputToDisplay(f.Date, f.Time)
	if err != nil {
		return nil, err
	}
	row := &EventRow{
		Title:            f.Name,
		Date:             date,
		Time:             clock,
		Location:         f.Location,
		Venue:            f.Venue,
		Category:         f.Category,
		Description:      f.Description,
		ShortDescription: helpers.ShortDescription(f.Description),
	}
	if img != nil {
		row.ImageURL = &img.URL
		row.ImagePath = &img.Path
	}
	if organizer != uuid.Nil {
		row.Organizer = &organizer
	}
	return row, nil
}

// EventRowUpdate builds a partial update. Image columns are only sent when a
// new image was uploaded.
func EventRowUpdate(f *EventFields, img *StoredImage) (map[string]interface{}, error) {
	date, clock, err := helpers.InputToDisplay(f.Date, f.Time)
	if err != nil {
		return nil, err
	}
	update := map[string]interface{}{
		"title":             f.Name,
		"date":              date,
		"time":              clock,
		"location":          f.Location,
		"venue":             f.Venue,
		"category":          f.Category,
		"description":       f.Description,
		"short_description": helpers.ShortDescription(f.Description),
	}
	if img != nil {
		update["image_url"] = img.URL
		update["image_path"] = img.Path
	}
	return update, nil
}
