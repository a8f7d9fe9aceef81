package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	SessionCookie      = "gigs_session"
	RefreshCookieTTL   = 3600 * 24 * 30

	ContextUserKey = "user"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler logs errors attached with c.Error and answers 500 when the
// handler did not write a response itself.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}
	}
}

func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// SessionID hands every browser a stable anonymous id used to dedupe
// event views.
func SessionID(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, RefreshCookieTTL, "/", "", secure, true)
		}
		c.Set("session_id", id)
		c.Next()
	}
}

func SetAuthCookies(c *gin.Context, s *models.AuthSession, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, s.AccessToken, s.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, s.RefreshToken, RefreshCookieTTL, "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

// accessToken prefers the cookie, then an Authorization bearer header.
func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

type Authenticator struct {
	validator   *helpers.TokenValidator
	userService *services.UserService
	logger      *slog.Logger
	secure      bool
}

func NewAuthenticator(validator *helpers.TokenValidator, userService *services.UserService, logger *slog.Logger, secure bool) *Authenticator {
	return &Authenticator{
		validator:   validator,
		userService: userService,
		logger:      logger,
		secure:      secure,
	}
}

// resolve validates the request's token, refreshing it from the refresh
// cookie when it has expired. It returns nil claims for anonymous requests.
func (a *Authenticator) resolve(c *gin.Context) (*helpers.EnhancedClaims, error) {
	token := accessToken(c)
	refreshToken, _ := c.Cookie(RefreshTokenCookie)
	if token == "" && refreshToken == "" {
		return nil, nil
	}

	ctx := c.Request.Context()
	var claims *helpers.CustomClaims
	var err error
	if token != "" {
		claims, err = a.validator.Validate(ctx, token)
	}
	if token == "" || err != nil {
		if refreshToken == "" {
			return nil, err
		}
		refreshed, refreshErr := a.userService.RefreshToken(ctx, refreshToken)
		if refreshErr != nil {
			a.logger.Error("Token refresh failed", "error", refreshErr)
			return nil, refreshErr
		}
		SetAuthCookies(c, refreshed, a.secure)
		a.logger.Info("Token refreshed successfully",
			"user_id", refreshed.User.ID,
			"expires_in", refreshed.ExpiresIn,
		)
		token = refreshed.AccessToken
		if claims, err = a.validator.Validate(ctx, token); err != nil {
			return nil, err
		}
	}

	enhanced := &helpers.EnhancedClaims{
		CustomClaims: claims,
		UserID:       claims.Subject,
		Email:        claims.Email,
		AccessToken:  token,
	}
	if userID, err := uuid.Parse(claims.Subject); err == nil {
		profile, err := a.userService.GetProfile(ctx, userID, token)
		if err != nil {
			a.logger.Debug("Profile not found, using token metadata", "user_id", claims.Subject, "error", err)
		} else {
			enhanced.Name = profile.Name
		}
	}
	return enhanced, nil
}

// AuthMiddleware rejects requests without a valid session.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.resolve(c)
		if err != nil || claims == nil {
			msg := "authentication required"
			if err != nil {
				msg = "Token expired and refresh failed"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse(msg))
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when the request carries a valid session and
// lets anonymous requests through otherwise.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.resolve(c)
		if err != nil {
			a.logger.Debug("Ignoring invalid session on public route", "error", err)
		}
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

// CurrentUser returns the claims set by AuthMiddleware or OptionalAuth.
func CurrentUser(c *gin.Context) *helpers.EnhancedClaims {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*helpers.EnhancedClaims)
	return claims
}
