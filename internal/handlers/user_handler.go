package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gigs/internal/middleware"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
)

func GetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.CurrentUser(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"user_id": claims.UserID,
			"email":   claims.Email,
			"name":    claims.GetDisplayName(),
		}, ""))
	}
}

func ListCreatedEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.CurrentUser(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		events, err := es.ListEventsByOrganizer(c.Request.Context(), claims.ID())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func ListAttendingEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.CurrentUser(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
			return
		}
		events, err := es.ListAttendingEvents(c.Request.Context(), claims.ID(), claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}
