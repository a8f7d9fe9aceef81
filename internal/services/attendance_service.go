package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/models"
	"golang.org/x/sync/errgroup"
)

// AttendanceService keeps a viewer's attendance flag and the event's attendee
// count consistent with the store. Counts are always re-read after a change,
// never adjusted locally.
type AttendanceService struct {
	eventsRepo     models.EventsRepo
	attendanceRepo models.AttendanceRepo
	guard          ToggleGuard
	logger         *slog.Logger
}

func NewAttendanceService(eventsRepo models.EventsRepo, attendanceRepo models.AttendanceRepo, guard ToggleGuard, logger *slog.Logger) *AttendanceService {
	if guard == nil {
		guard = NewMemoryToggleGuard()
	}
	return &AttendanceService{
		eventsRepo:     eventsRepo,
		attendanceRepo: attendanceRepo,
		guard:          guard,
		logger:         logger,
	}
}

// Pairing reports the viewer's state for an event. Anonymous viewers get the
// count with state unknown. A toggle running for the pairing shows up as
// transitioning.
func (as *AttendanceService) Pairing(ctx context.Context, eventID int64, viewerID uuid.UUID, accessToken string) (*models.Pairing, error) {
	p, err := as.fetchPairing(ctx, eventID, viewerID, accessToken)
	if err != nil {
		return nil, err
	}
	if viewerID != uuid.Nil && as.guard.InFlight(ctx, pairingKey(eventID, viewerID)) {
		p.State = models.StateTransitioning
	}
	return p, nil
}

// fetchPairing runs the membership check and the count together and returns
// only when both have answered.
func (as *AttendanceService) fetchPairing(ctx context.Context, eventID int64, viewerID uuid.UUID, accessToken string) (*models.Pairing, error) {
	p := &models.Pairing{EventID: eventID, UserID: viewerID, State: models.StateUnknown}

	var attending bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := as.attendanceRepo.CountAttendees(gctx, eventID)
		if err != nil {
			return err
		}
		p.AttendeeCount = count
		return nil
	})
	if viewerID != uuid.Nil {
		g.Go(func() error {
			ok, err := as.attendanceRepo.IsAttending(gctx, eventID, viewerID, accessToken)
			if err != nil {
				return err
			}
			attending = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if viewerID != uuid.Nil {
		p.State = models.StateNotAttending
		if attending {
			p.State = models.StateAttending
		}
	}
	return p, nil
}

// Attend records the viewer as attending. Attending twice is not an error.
func (as *AttendanceService) Attend(ctx context.Context, eventID int64, viewerID uuid.UUID, accessToken string) (*models.Pairing, error) {
	return as.toggle(ctx, eventID, viewerID, accessToken, true)
}

// Leave removes the viewer's attendance. Leaving when not attending is not an
// error.
func (as *AttendanceService) Leave(ctx context.Context, eventID int64, viewerID uuid.UUID, accessToken string) (*models.Pairing, error) {
	return as.toggle(ctx, eventID, viewerID, accessToken, false)
}

// toggle returns the refreshed pairing on success. On failure after the
// pre-state was read it returns that pre-state with the error; on earlier
// failures the pairing is nil.
func (as *AttendanceService) toggle(ctx context.Context, eventID int64, viewerID uuid.UUID, accessToken string, attend bool) (*models.Pairing, error) {
	if viewerID == uuid.Nil {
		return nil, fmt.Errorf("%w: sign in to change attendance", models.ErrAuth)
	}

	key := pairingKey(eventID, viewerID)
	release, err := as.guard.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := as.eventsRepo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	before, err := as.fetchPairing(ctx, eventID, viewerID, accessToken)
	if err != nil {
		return nil, err
	}

	if attend {
		if !before.Attending() {
			err = as.attendanceRepo.InsertAttendance(ctx, &models.Attendance{EventID: eventID, UserID: viewerID}, accessToken)
			if errors.Is(err, models.ErrDuplicateAttendance) {
				as.logger.Debug("Attendance already recorded", "event_id", eventID, "user_id", viewerID)
				err = nil
			}
		}
	} else {
		err = as.attendanceRepo.DeleteAttendance(ctx, eventID, viewerID, accessToken)
	}
	if err != nil {
		as.logger.Warn("Attendance change failed",
			"event_id", eventID,
			"user_id", viewerID,
			"attend", attend,
			"error", err,
		)
		return before, err
	}

	after, err := as.fetchPairing(ctx, eventID, viewerID, accessToken)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return before, err
	}
	return after, nil
}

// Detail assembles the detail view of an event for a viewer.
func (as *AttendanceService) Detail(ctx context.Context, eventID int64, viewerID uuid.UUID, accessToken string) (*models.EventDetail, error) {
	event, err := as.eventsRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	pairing, err := as.Pairing(ctx, eventID, viewerID, accessToken)
	if err != nil {
		return nil, err
	}
	event.AttendeeCount = pairing.AttendeeCount

	return &models.EventDetail{
		Event:       event,
		Pairing:     pairing,
		Affordances: AffordancesFor(event, pairing, viewerID),
	}, nil
}

func AffordancesFor(event *models.Event, pairing *models.Pairing, viewerID uuid.UUID) models.Affordances {
	if viewerID == uuid.Nil {
		return models.Affordances{MustSignIn: true}
	}
	organizer := event.IsOrganizer(viewerID)
	return models.Affordances{
		CanEdit:   organizer,
		CanDelete: organizer,
		CanAttend: pairing.State == models.StateNotAttending,
		CanLeave:  pairing.State == models.StateAttending,
	}
}
