package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gigs/internal/container"
	"github.com/joshua-takyi/gigs/internal/handlers"
	"github.com/joshua-takyi/gigs/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := container.Config.IsProduction()

	r := gin.New()
	r.Use(middleware.CORS(container.Config.AllowedOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = 8 << 20

	auth := middleware.NewAuthenticator(container.TokenValidator, container.UserService, container.Logger, secure)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "gigs-api",
			})
		})

		v1.POST("/signup", handlers.SignUp(container.UserService, secure))
		v1.POST("/login", handlers.SignIn(container.UserService, secure))
		v1.POST("/logout", handlers.SignOut(container.UserService, secure))

		v1.GET("/calendar.ics", handlers.EventsCalendar(container.EventService))
	}

	public := v1.Group("/")
	public.Use(middleware.SessionID(secure), auth.OptionalAuth())
	{
		public.GET("/events", handlers.ListEvents(container.EventService))
		public.GET("/events/:id", handlers.GetEvent(container.AttendanceService, container.ViewService))
		public.GET("/events/:id/calendar.ics", handlers.EventCalendar(container.EventService))
	}

	protected := v1.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/events", handlers.CreateEvent(container.EventService))
		protected.PUT("/events/:id", handlers.UpdateEvent(container.EventService))
		protected.DELETE("/events/:id", handlers.DeleteEvent(container.EventService))
		protected.GET("/events/:id/views", handlers.GetEventViews(container.EventService, container.ViewService))

		protected.GET("/events/:id/attendance", handlers.GetAttendance(container.AttendanceService))
		protected.POST("/events/:id/attendance", handlers.Attend(container.AttendanceService))
		protected.DELETE("/events/:id/attendance", handlers.Leave(container.AttendanceService))

		protected.GET("/profile", handlers.GetProfile())
		protected.GET("/profile/events/created", handlers.ListCreatedEvents(container.EventService))
		protected.GET("/profile/events/attending", handlers.ListAttendingEvents(container.EventService))
	}

	return r
}
