package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceSignUp(t *testing.T) {
	users := newFakeUsers()
	svc := NewUserService(users, discardLogger())
	ctx := context.Background()

	s, err := svc.SignUp(ctx, &models.SignUpInput{Name: " Ada ", Email: " Ada@Example.COM ", Password: "correct horse"})
	require.NoError(t, err)
	assert.True(t, s.Active())
	assert.Equal(t, "ada@example.com", users.lastUp.Email)
	assert.Equal(t, "Ada", users.lastUp.Name)

	_, err = svc.SignUp(ctx, &models.SignUpInput{Name: "Bob", Email: "not-an-email", Password: "correct horse"})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = svc.SignUp(ctx, &models.SignUpInput{Name: "Bob", Email: "bob@example.com", Password: "12345"})
	require.Error(t, err)

	_, err = svc.SignUp(ctx, &models.SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	assert.True(t, errors.Is(err, models.ErrAuth))
}

func TestUserServiceSignUpNeedsConfirmation(t *testing.T) {
	users := newFakeUsers()
	users.confirm = true
	svc := NewUserService(users, discardLogger())

	s, err := svc.SignUp(context.Background(), &models.SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.False(t, s.Active())
}

func TestUserServiceSignIn(t *testing.T) {
	users := newFakeUsers()
	svc := NewUserService(users, discardLogger())
	ctx := context.Background()
	_, err := svc.SignUp(ctx, &models.SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	s, err := svc.SignIn(ctx, "ADA@example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.User.Email)

	_, err = svc.SignIn(ctx, "nope", "x")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	_, err = svc.SignIn(ctx, "ada@example.com", "")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	_, err = svc.SignIn(ctx, "who@example.com", "x")
	assert.True(t, errors.Is(err, models.ErrAuth))
}

func TestUserServiceTokens(t *testing.T) {
	users := newFakeUsers()
	svc := NewUserService(users, discardLogger())
	ctx := context.Background()
	s, err := svc.SignUp(ctx, &models.SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID.String(), claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)

	refreshed, err := svc.RefreshToken(ctx, s.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, refreshed.User.ID)

	_, err = svc.RefreshToken(ctx, "")
	assert.True(t, errors.Is(err, models.ErrAuth))

	require.NoError(t, svc.SignOut(ctx, s.AccessToken))
	_, err = svc.VerifyToken(ctx, s.AccessToken)
	assert.True(t, errors.Is(err, models.ErrAuth))

	p, err := svc.GetProfile(ctx, s.User.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	_, err = svc.GetProfile(ctx, uuid.New(), "")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestViewService(t *testing.T) {
	views := &fakeViews{}
	svc := NewViewService(views, discardLogger())
	ctx := context.Background()
	organizer := uuid.New()
	event := &models.Event{ID: 3, Organizer: &organizer}

	svc.TrackView(ctx, event, uuid.Nil, "sess-1", "test-agent")
	svc.TrackView(ctx, event, uuid.New(), "sess-2", "test-agent")
	svc.TrackView(ctx, event, uuid.Nil, "", "test-agent")
	require.Len(t, views.tracked, 2)
	assert.Nil(t, views.tracked[0].UserID)
	assert.NotNil(t, views.tracked[1].UserID)
	assert.Equal(t, organizer.String(), views.tracked[0].OrganizerID)

	stats, err := svc.Stats(ctx, event, organizer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalViews)

	_, err = svc.Stats(ctx, event, uuid.New())
	assert.True(t, errors.Is(err, models.ErrForbidden))

	views.err = errors.New("mongo down")
	svc.TrackView(ctx, event, uuid.Nil, "sess-3", "")
	_, err = svc.Stats(ctx, event, organizer)
	assert.True(t, errors.Is(err, models.ErrQuery))
}

func TestViewServiceDisabled(t *testing.T) {
	svc := NewViewService(nil, discardLogger())
	organizer := uuid.New()
	event := &models.Event{ID: 3, Organizer: &organizer}

	assert.False(t, svc.Enabled())
	svc.TrackView(context.Background(), event, uuid.Nil, "sess", "")
	_, err := svc.Stats(context.Background(), event, organizer)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
