package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/middleware"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
)

func categoryParam(c *gin.Context) (models.Category, bool) {
	category := models.Category(strings.TrimSpace(c.Query("category")))
	if category == "" || category == models.CategoryAll || category.Valid() {
		return category, true
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse(fmt.Sprintf("unknown category %q", category)))
	return "", false
}

func ListEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, ok := categoryParam(c)
		if !ok {
			return
		}
		events, err := es.ListEvents(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		events = services.FilterByCategory(events, category)
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

// GetEvent returns the detail view and records the view for the organizer's
// stats.
func GetEvent(as *services.AttendanceService, vs *services.ViewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseEventID(c)
		if !ok {
			return
		}

		viewerID, token := uuid.Nil, ""
		if claims := middleware.CurrentUser(c); claims != nil {
			viewerID, token = claims.ID(), claims.AccessToken
		}

		detail, err := as.Detail(c.Request.Context(), id, viewerID, token)
		if err != nil {
			respondError(c, err)
			return
		}

		vs.TrackView(c.Request.Context(), detail.Event, viewerID, c.GetString("session_id"), c.Request.UserAgent())
		c.JSON(http.StatusOK, models.SuccessResponse(detail, ""))
	}
}

// readImage loads the optional "image" part. Reading stops one byte past the
// size limit so oversized files are rejected without buffering them whole.
func readImage(c *gin.Context) (*models.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if fh.Size > helpers.MaxImageSize {
		return nil, fmt.Errorf("%w: %w (%d bytes)", models.ErrImageUpload, helpers.ErrImageTooLarge, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, helpers.MaxImageSize+1)); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return &models.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        buf.Bytes(),
	}, nil
}

func bindEventRequest(c *gin.Context) (*models.EventFields, *models.ImageUpload, bool) {
	var fields models.EventFields
	if err := c.ShouldBind(&fields); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
		return nil, nil, false
	}
	image, err := readImage(c)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return &fields, image, true
}

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.CurrentUser(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		fields, image, ok := bindEventRequest(c)
		if !ok {
			return
		}

		event, err := es.CreateEvent(c.Request.Context(), fields, image, claims.ID(), claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, "Event created successfully"))
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.CurrentUser(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		id, ok := parseEventID(c)
		if !ok {
			return
		}
		if _, err := es.AuthorizeOrganizer(c.Request.Context(), id, claims.ID()); err != nil {
			respondError(c, err)
			return
		}
		fields, image, ok := bindEventRequest(c)
		if !ok {
			return
		}

		if err := es.UpdateEvent(c.Request.Context(), id, fields, image, claims.AccessToken); err != nil {
			respondError(c, err)
			return
		}
		event, err := es.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "Event updated successfully"))
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.CurrentUser(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		id, ok := parseEventID(c)
		if !ok {
			return
		}
		if _, err := es.AuthorizeOrganizer(c.Request.Context(), id, claims.ID()); err != nil {
			respondError(c, err)
			return
		}
		if err := es.DeleteEvent(c.Request.Context(), id, claims.AccessToken); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"id": id}, "Event deleted successfully"))
	}
}

func GetEventViews(es *services.EventService, vs *services.ViewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.CurrentUser(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		id, ok := parseEventID(c)
		if !ok {
			return
		}
		event, err := es.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		stats, err := vs.Stats(c.Request.Context(), event, claims.ID())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}

func writeCalendar(c *gin.Context, events []*models.Event, filename string) {
	now := time.Now()
	cal, skipped := helpers.BuildCalendar(models.CalendarEntries(events), now.Year(), now)
	if len(skipped) > 0 {
		_ = c.Error(fmt.Errorf("calendar export skipped events with unreadable dates: %v", skipped)).SetType(gin.ErrorTypePrivate)
	}

	var buf bytes.Buffer
	if err := helpers.WriteCalendar(&buf, cal); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func EventsCalendar(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, ok := categoryParam(c)
		if !ok {
			return
		}
		events, err := es.ListEvents(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		writeCalendar(c, services.FilterByCategory(events, category), "events.ics")
	}
}

func EventCalendar(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseEventID(c)
		if !ok {
			return
		}
		event, err := es.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		writeCalendar(c, []*models.Event{event}, fmt.Sprintf("event-%d.ics", id))
	}
}
