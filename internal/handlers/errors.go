package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
)

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrToggleInFlight), errors.Is(err, models.ErrDuplicateAttendance):
		return http.StatusConflict
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, helpers.ErrImageTooLarge),
		errors.Is(err, helpers.ErrNotAnImage),
		errors.Is(err, helpers.ErrEmptyImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrAuth), errors.Is(err, helpers.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrImageUpload),
		errors.Is(err, models.ErrPersist),
		errors.Is(err, models.ErrQuery):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Unexpected errors are also attached to
// the context so ErrorHandler logs them.
func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, models.ErrorResponse(err.Error()))
}

func parseEventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid event ID"))
		return 0, false
	}
	return id, true
}
