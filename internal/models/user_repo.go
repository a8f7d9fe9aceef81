package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

type UserRepo interface {
	SignUp(ctx context.Context, input *SignUpInput) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error)
	GetAuthUser(ctx context.Context, accessToken string) (*User, error)
	GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*Profile, error)
}

func userFromAuth(u types.User) User {
	user := User{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		user.Name = name
	}
	return user
}

func sessionFromAuth(s types.Session) *AuthSession {
	out := &AuthSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		User:         userFromAuth(s.User),
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return out
}

// cleanAuthError turns auth server messages into ErrAuth with a short reason.
func cleanAuthError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already registered"), strings.Contains(msg, "already been registered"):
		return fmt.Errorf("%w: email already in use", ErrAuth)
	case strings.Contains(msg, "invalid login credentials"), strings.Contains(msg, "invalid_grant"):
		return fmt.Errorf("%w: invalid email or password", ErrAuth)
	case strings.Contains(msg, "email not confirmed"):
		return fmt.Errorf("%w: email not confirmed", ErrAuth)
	case strings.Contains(msg, "password should be"), strings.Contains(msg, "weak_password"):
		return fmt.Errorf("%w: password is too weak", ErrAuth)
	}
	return fmt.Errorf("%w: %s: %v", ErrAuth, op, err)
}

// SignUp registers the account with its display name in user metadata. When
// email confirmation is on the returned session has no access token.
func (su *SupabaseRepo) SignUp(ctx context.Context, input *SignUpInput) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    input.Email,
		Password: input.Password,
		Data: map[string]interface{}{
			"name": input.Name,
		},
	})
	if err != nil {
		return nil, cleanAuthError("sign up", err)
	}

	session := sessionFromAuth(res.Session)
	if session.User.ID == uuid.Nil {
		session.User = userFromAuth(res.User)
	}
	return session, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, cleanAuthError("sign in", err)
	}
	return sessionFromAuth(res.Session), nil
}

func (su *SupabaseRepo) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := su.supabaseClient.Auth.WithToken(accessToken).Logout(); err != nil {
		return cleanAuthError("sign out", err)
	}
	return nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, cleanAuthError("refresh token", err)
	}
	return sessionFromAuth(res.Session), nil
}

// GetAuthUser asks the auth server who owns the token.
func (su *SupabaseRepo) GetAuthUser(ctx context.Context, accessToken string) (*User, error) {
	res, err := su.supabaseClient.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, cleanAuthError("get user", err)
	}
	user := userFromAuth(res.User)
	return &user, nil
}

func (su *SupabaseRepo) GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid UUID", ErrInvalidInput)
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	raw, _, err := client.From(ProfileTable).
		Select("id,name", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, classifyStoreError(ErrQuery, "get profile", err)
	}

	// Supabase returns an array even for single results
	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal profile rows: %v", ErrQuery, err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: profile %s: %w", ErrQuery, id, ErrNotFound)
	}
	return &profiles[0], nil
}
