package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"
)

const eventWithCountColumns = "*,event_attendees(count)"

type EventsRepo interface {
	ListEvents(ctx context.Context) ([]*Event, error)
	ListEventsByOrganizer(ctx context.Context, organizer uuid.UUID) ([]*Event, error)
	ListAttendingEvents(ctx context.Context, userID uuid.UUID, accessToken string) ([]*Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	InsertEvent(ctx context.Context, row *EventRow, accessToken string) (*Event, error)
	UpdateEvent(ctx context.Context, id int64, update map[string]interface{}, accessToken string) error
	DeleteEvent(ctx context.Context, id int64, accessToken string) error
}

func decodeEventRows(raw []byte) ([]*Event, error) {
	var rows []EventRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event rows: %v", err)
	}
	events := make([]*Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].ToEvent())
	}
	return events, nil
}

func (su *SupabaseRepo) ListEvents(ctx context.Context) ([]*Event, error) {
	raw, _, err := su.supabaseClient.From(EventsTable).
		Select(eventWithCountColumns, "", false).
		Order("date", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, classifyStoreError(ErrQuery, "list events", err)
	}
	events, err := decodeEventRows(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return events, nil
}

func (su *SupabaseRepo) ListEventsByOrganizer(ctx context.Context, organizer uuid.UUID) ([]*Event, error) {
	if organizer == uuid.Nil {
		return nil, fmt.Errorf("%w: organizer id is required", ErrInvalidInput)
	}
	raw, _, err := su.supabaseClient.From(EventsTable).
		Select(eventWithCountColumns, "", false).
		Eq("organizer", organizer.String()).
		Order("date", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, classifyStoreError(ErrQuery, "list organizer events", err)
	}
	events, err := decodeEventRows(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return events, nil
}

// ListAttendingEvents joins through event_attendees. Attendance rows whose
// event has since been deleted come back with a null event and are skipped.
func (su *SupabaseRepo) ListAttendingEvents(ctx context.Context, userID uuid.UUID, accessToken string) ([]*Event, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	raw, _, err := client.From(AttendeesTable).
		Select("event_id,events("+eventWithCountColumns+")", "", false).
		Eq("user_id", userID.String()).
		Execute()
	if err != nil {
		return nil, classifyStoreError(ErrQuery, "list attending events", err)
	}

	var joined []struct {
		EventID int64     `json:"event_id"`
		Event   *EventRow `json:"events"`
	}
	if err := json.Unmarshal(raw, &joined); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal attendance rows: %v", ErrQuery, err)
	}

	events := make([]*Event, 0, len(joined))
	for _, j := range joined {
		if j.Event == nil {
			continue
		}
		events = append(events, j.Event.ToEvent())
	}
	return events, nil
}

func (su *SupabaseRepo) GetEvent(ctx context.Context, id int64) (*Event, error) {
	raw, _, err := su.supabaseClient.From(EventsTable).
		Select("*", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return nil, classifyStoreError(ErrQuery, "get event", err)
	}
	events, err := decodeEventRows(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: event %d: %w", ErrQuery, id, ErrNotFound)
	}
	return events[0], nil
}

func (su *SupabaseRepo) InsertEvent(ctx context.Context, row *EventRow, accessToken string) (*Event, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	raw, _, err := client.From(EventsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, classifyStoreError(ErrPersist, "insert event", err)
	}
	events, err := decodeEventRows(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: insert event returned no row", ErrPersist)
	}
	return events[0], nil
}

// UpdateEvent fails with ErrNotFound when no row matched, which is also what
// row level security produces for a caller that does not own the event.
func (su *SupabaseRepo) UpdateEvent(ctx context.Context, id int64, update map[string]interface{}, accessToken string) error {
	if len(update) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	raw, _, err := client.From(EventsTable).
		Update(update, "representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return classifyStoreError(ErrPersist, "update event", err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("%w: failed to unmarshal updated event: %v", ErrPersist, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: update event %d: %w", ErrPersist, id, ErrNotFound)
	}
	return nil
}

func (su *SupabaseRepo) DeleteEvent(ctx context.Context, id int64, accessToken string) error {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	raw, _, err := client.From(EventsTable).
		Delete("representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return classifyStoreError(ErrPersist, "delete event", err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("%w: failed to unmarshal deleted event: %v", ErrPersist, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: delete event %d: %w", ErrPersist, id, ErrNotFound)
	}
	return nil
}
