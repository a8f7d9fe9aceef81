package models

import "github.com/google/uuid"

// Attendance is one row of event_attendees; (EventID, UserID) is unique.
type Attendance struct {
	ID      int64     `json:"id,omitempty"`
	EventID int64     `json:"event_id"`
	UserID  uuid.UUID `json:"user_id"`
}

type AttendanceState string

const (
	StateUnknown       AttendanceState = "unknown"
	StateNotAttending  AttendanceState = "not_attending"
	StateAttending     AttendanceState = "attending"
	StateTransitioning AttendanceState = "transitioning"
)

// Pairing is what a viewer sees for one event: whether they attend and how
// many people do. Both values come from the same refresh.
type Pairing struct {
	EventID       int64           `json:"event_id"`
	UserID        uuid.UUID       `json:"user_id"`
	State         AttendanceState `json:"state"`
	AttendeeCount int             `json:"attendee_count"`
}

func (p *Pairing) Attending() bool {
	return p != nil && p.State == StateAttending
}

// Affordances tells a surface which actions to offer on the detail view.
type Affordances struct {
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
	CanAttend  bool `json:"can_attend"`
	CanLeave   bool `json:"can_leave"`
	MustSignIn bool `json:"must_sign_in"`
}

type EventDetail struct {
	Event       *Event      `json:"event"`
	Pairing     *Pairing    `json:"attendance"`
	Affordances Affordances `json:"affordances"`
}
