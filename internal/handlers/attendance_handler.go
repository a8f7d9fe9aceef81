package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/middleware"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
)

type toggleFunc func(ctx context.Context, eventID int64, viewerID uuid.UUID, accessToken string) (*models.Pairing, error)

func GetAttendance(as *services.AttendanceService) gin.HandlerFunc {
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
		pairing, err := as.Pairing(c.Request.Context(), id, claims.ID(), claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(pairing, ""))
	}
}

func Attend(as *services.AttendanceService) gin.HandlerFunc {
	return toggleHandler(as.Attend, "You are attending")
}

func Leave(as *services.AttendanceService) gin.HandlerFunc {
	return toggleHandler(as.Leave, "You are no longer attending")
}

// toggleHandler reports failures together with the last known pairing so the
// client can keep showing consistent state.
func toggleHandler(toggle toggleFunc, message string) gin.HandlerFunc {
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

		pairing, err := toggle(c.Request.Context(), id, claims.ID(), claims.AccessToken)
		if err != nil {
			status := StatusFor(err)
			if status >= http.StatusInternalServerError {
				_ = c.Error(err)
			}
			res := models.ErrorResponse(err.Error())
			if pairing != nil {
				res.Data = pairing
			}
			c.JSON(status, res)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(pairing, message))
	}
}
