package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

type AttendanceRepo interface {
	IsAttending(ctx context.Context, eventID int64, userID uuid.UUID, accessToken string) (bool, error)
	CountAttendees(ctx context.Context, eventID int64) (int, error)
	InsertAttendance(ctx context.Context, attendance *Attendance, accessToken string) error
	DeleteAttendance(ctx context.Context, eventID int64, userID uuid.UUID, accessToken string) error
}

func (su *SupabaseRepo) IsAttending(ctx context.Context, eventID int64, userID uuid.UUID, accessToken string) (bool, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	raw, _, err := client.From(AttendeesTable).
		Select("id", "", false).
		Eq("event_id", strconv.FormatInt(eventID, 10)).
		Eq("user_id", userID.String()).
		Limit(1, "").
		Execute()
	if err != nil {
		return false, classifyStoreError(ErrQuery, "check attendance", err)
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return false, fmt.Errorf("%w: failed to unmarshal attendance: %v", ErrQuery, err)
	}
	return len(rows) > 0, nil
}

// CountAttendees asks only for the exact count; no rows are transferred.
func (su *SupabaseRepo) CountAttendees(ctx context.Context, eventID int64) (int, error) {
	_, count, err := su.supabaseClient.From(AttendeesTable).
		Select("id", "exact", true).
		Eq("event_id", strconv.FormatInt(eventID, 10)).
		Execute()
	if err != nil {
		return 0, classifyStoreError(ErrQuery, "count attendees", err)
	}
	return int(count), nil
}

func (su *SupabaseRepo) InsertAttendance(ctx context.Context, attendance *Attendance, accessToken string) error {
	if attendance == nil || attendance.UserID == uuid.Nil {
		return fmt.Errorf("%w: attendance needs a user", ErrInvalidInput)
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	_, _, err = client.From(AttendeesTable).
		Insert(attendance, false, "", "minimal", "").
		Execute()
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: event %d", ErrDuplicateAttendance, attendance.EventID)
		}
		return classifyStoreError(ErrPersist, "insert attendance", err)
	}
	return nil
}

// DeleteAttendance removes only the row matching both the event and the user.
// Deleting a row that is already gone is not an error.
func (su *SupabaseRepo) DeleteAttendance(ctx context.Context, eventID int64, userID uuid.UUID, accessToken string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: attendance needs a user", ErrInvalidInput)
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	_, _, err = client.From(AttendeesTable).
		Delete("minimal", "").
		Eq("event_id", strconv.FormatInt(eventID, 10)).
		Eq("user_id", userID.String()).
		Execute()
	if err != nil {
		return classifyStoreError(ErrPersist, "delete attendance", err)
	}
	return nil
}
