package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
)

type EventService struct {
	eventsRepo     models.EventsRepo
	attendanceRepo models.AttendanceRepo
	images         models.ImageStore
	logger         *slog.Logger
	now            func() time.Time
}

func NewEventService(eventsRepo models.EventsRepo, attendanceRepo models.AttendanceRepo, images models.ImageStore, logger *slog.Logger) *EventService {
	return &EventService{
		eventsRepo:     eventsRepo,
		attendanceRepo: attendanceRepo,
		images:         images,
		logger:         logger,
		now:            time.Now,
	}
}

// ListEvents returns every event with its attendee count, earliest first.
// The store orders by the date column, which is a display string, so the
// result is re-sorted here by the parsed date in the current year.
func (es *EventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	events, err := es.eventsRepo.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	SortByDisplayDate(events, es.now().Year())
	return events, nil
}

// SortByDisplayDate orders events by month, day and time of day. Events whose
// date cannot be parsed keep their relative order after the rest.
func SortByDisplayDate(events []*models.Event, year int) {
	type key struct {
		at time.Time
		ok bool
	}
	keys := make(map[*models.Event]key, len(events))
	for _, e := range events {
		d, err := helpers.ParseDisplayDate(e.Date, year)
		if err != nil {
			keys[e] = key{}
			continue
		}
		if t, err := helpers.ParseDisplayTime(e.Time); err == nil {
			d = d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
		}
		keys[e] = key{at: d, ok: true}
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := keys[events[i]], keys[events[j]]
		if a.ok != b.ok {
			return a.ok
		}
		return a.at.Before(b.at)
	})
}

// FilterByCategory keeps events of the given category in their original
// order. "All" and the empty category keep everything.
func FilterByCategory(events []*models.Event, category models.Category) []*models.Event {
	if category == "" || category == models.CategoryAll {
		return events
	}
	filtered := make([]*models.Event, 0, len(events))
	for _, e := range events {
		if e.Category == category {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (es *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid event id %d", models.ErrInvalidInput, id)
	}
	return es.eventsRepo.GetEvent(ctx, id)
}

// AuthorizeOrganizer loads the event and checks that userID created it.
func (es *EventService) AuthorizeOrganizer(ctx context.Context, id int64, userID uuid.UUID) (*models.Event, error) {
	event, err := es.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.IsOrganizer(userID) {
		return nil, fmt.Errorf("%w: only the organizer can change event %d", models.ErrForbidden, id)
	}
	return event, nil
}

func (es *EventService) GetAttendeeCount(ctx context.Context, eventID int64) (int, error) {
	return es.attendanceRepo.CountAttendees(ctx, eventID)
}

func (es *EventService) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*models.Event, error) {
	events, err := es.eventsRepo.ListEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	SortByDisplayDate(events, es.now().Year())
	return events, nil
}

func (es *EventService) ListAttendingEvents(ctx context.Context, userID uuid.UUID, accessToken string) ([]*models.Event, error) {
	events, err := es.eventsRepo.ListAttendingEvents(ctx, userID, accessToken)
	if err != nil {
		return nil, err
	}
	SortByDisplayDate(events, es.now().Year())
	return events, nil
}

func validateFields(fields *models.EventFields) error {
	if fields == nil {
		return fmt.Errorf("%w: event fields are required", models.ErrInvalidInput)
	}
	fields.Normalize()
	if err := models.Validate.Struct(fields); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// prepareImage validates the image locally and picks its object path. Nothing
// touches the network here.
func (es *EventService) prepareImage(img *models.ImageUpload) (string, error) {
	mt, err := helpers.ValidateImage(img.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrImageUpload, err)
	}
	img.ContentType = mt.String()
	return helpers.NewImagePath(img.Filename, mt, es.now()), nil
}

// CreateEvent uploads the image first and inserts the row only after the
// upload succeeded. An insert failure after a successful upload leaves the
// blob behind; it is logged, not removed.
func (es *EventService) CreateEvent(ctx context.Context, fields *models.EventFields, image *models.ImageUpload, organizerID uuid.UUID, accessToken string) (*models.Event, error) {
	if organizerID == uuid.Nil {
		return nil, fmt.Errorf("%w: sign in to create events", models.ErrAuth)
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	row, err := models.NewEventRow(fields, nil, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	if image != nil {
		objectPath, err := es.prepareImage(image)
		if err != nil {
			return nil, err
		}
		stored, err := es.images.Upload(ctx, objectPath, image, accessToken)
		if err != nil {
			return nil, err
		}
		row.ImageURL = &stored.URL
		row.ImagePath = &stored.Path
	}

	event, err := es.eventsRepo.InsertEvent(ctx, row, accessToken)
	if err != nil {
		if row.ImagePath != nil {
			es.logger.Warn("Event insert failed after image upload, image left orphaned",
				"image_path", *row.ImagePath,
				"error", err,
			)
		}
		return nil, err
	}

	es.logger.Info("Event created", "event_id", event.ID, "organizer", organizerID)
	return event, nil
}

// UpdateEvent follows the same image-then-row order as CreateEvent. Without a
// new image the stored image columns are left as they are.
func (es *EventService) UpdateEvent(ctx context.Context, id int64, fields *models.EventFields, image *models.ImageUpload, accessToken string) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid event id %d", models.ErrInvalidInput, id)
	}
	if err := validateFields(fields); err != nil {
		return err
	}
	if _, err := models.EventRowUpdate(fields, nil); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	var stored *models.StoredImage
	if image != nil {
		objectPath, err := es.prepareImage(image)
		if err != nil {
			return err
		}
		if stored, err = es.images.Upload(ctx, objectPath, image, accessToken); err != nil {
			return err
		}
	}

	update, err := models.EventRowUpdate(fields, stored)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if err := es.eventsRepo.UpdateEvent(ctx, id, update, accessToken); err != nil {
		if stored != nil {
			es.logger.Warn("Event update failed after image upload, image left orphaned",
				"event_id", id,
				"image_path", stored.Path,
				"error", err,
			)
		}
		return err
	}

	es.logger.Info("Event updated", "event_id", id, "new_image", stored != nil)
	return nil
}

func (es *EventService) DeleteEvent(ctx context.Context, id int64, accessToken string) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid event id %d", models.ErrInvalidInput, id)
	}
	if err := es.eventsRepo.DeleteEvent(ctx, id, accessToken); err != nil {
		return err
	}
	es.logger.Info("Event deleted", "event_id", id)
	return nil
}
