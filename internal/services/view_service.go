package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/models"
)

// ViewService records detail views. A nil repo disables tracking.
type ViewService struct {
	viewsRepo models.EventViewsRepo
	logger    *slog.Logger
}

func NewViewService(viewsRepo models.EventViewsRepo, logger *slog.Logger) *ViewService {
	return &ViewService{viewsRepo: viewsRepo, logger: logger}
}

func (vs *ViewService) Enabled() bool {
	return vs != nil && vs.viewsRepo != nil
}

// TrackView never fails the caller; tracking errors are only logged.
func (vs *ViewService) TrackView(ctx context.Context, event *models.Event, viewerID uuid.UUID, sessionID, userAgent string) {
	if !vs.Enabled() || event == nil || sessionID == "" {
		return
	}
	view := &models.EventView{
		EventID:   event.ID,
		SessionID: sessionID,
		UserAgent: userAgent,
	}
	if event.Organizer != nil {
		view.OrganizerID = event.Organizer.String()
	}
	if viewerID != uuid.Nil {
		id := viewerID.String()
		view.UserID = &id
	}
	if err := vs.viewsRepo.TrackEventView(ctx, view); err != nil {
		vs.logger.Warn("Failed to track event view", "event_id", event.ID, "error", err)
	}
}

// Stats is only available to the event's organizer.
func (vs *ViewService) Stats(ctx context.Context, event *models.Event, requesterID uuid.UUID) (*models.EventViewStats, error) {
	if !event.IsOrganizer(requesterID) {
		return nil, fmt.Errorf("%w: only the organizer can see view stats", models.ErrForbidden)
	}
	if !vs.Enabled() {
		return nil, fmt.Errorf("view tracking is not configured: %w", models.ErrNotFound)
	}
	stats, err := vs.viewsRepo.GetEventViewStats(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrQuery, err)
	}
	return stats, nil
}
