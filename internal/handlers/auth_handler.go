package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gigs/internal/middleware"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
)

func SignUp(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.SignUpInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		session, err := u.SignUp(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}

		if !session.Active() {
			c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{"user": session.User}, "Check your email to confirm your account"))
			return
		}
		middleware.SetAuthCookies(c, session, secure)
		c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{"user": session.User}, "Account created"))
	}
}

func SignIn(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.SignInInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		session, err := u.SignIn(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		middleware.SetAuthCookies(c, session, secure)
		// Tokens go in cookies; the body only carries the user.
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"user": session.User}, "Signed in"))
	}
}

// SignOut clears the cookies even when the auth server call fails.
func SignOut(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(middleware.AccessTokenCookie)
		err := u.SignOut(c.Request.Context(), token)
		middleware.ClearAuthCookies(c, secure)
		if err != nil {
			_ = c.Error(err)
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Signed out"))
	}
}
