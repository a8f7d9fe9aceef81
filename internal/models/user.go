package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the auth account as reported by the auth server.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Profile struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SignUpInput struct {
	Name     string `json:"name" binding:"required" validate:"required,max=100"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=6" validate:"required,min=6"`
}

type SignInInput struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// AuthSession is a signed-in session as returned by sign-in, sign-up and
// refresh. AccessToken is empty when sign-up still needs email confirmation.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

func (s *AuthSession) Active() bool {
	return s != nil && s.AccessToken != ""
}
