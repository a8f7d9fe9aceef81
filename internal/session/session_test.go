package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	user       models.User
	expiresAt  time.Time
	signOutErr error
	refreshes  int
	signOuts   int
	confirm    bool
}

func (f *fakeAuth) session(tag string) *models.AuthSession {
	return &models.AuthSession{
		AccessToken:  "access-" + tag,
		RefreshToken: "refresh-" + tag,
		ExpiresAt:    f.expiresAt,
		User:         f.user,
	}
}

func (f *fakeAuth) SignUp(ctx context.Context, input *models.SignUpInput) (*models.AuthSession, error) {
	if f.confirm {
		return &models.AuthSession{User: f.user}, nil
	}
	return f.session("signup"), nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if password != "secret1" {
		return nil, models.ErrAuth
	}
	return f.session("signin"), nil
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	f.signOuts++
	return f.signOutErr
}

func (f *fakeAuth) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	if refreshToken == "" {
		return nil, models.ErrAuth
	}
	f.refreshes++
	s := f.session("refreshed")
	// The refresh endpoint may omit the user.
	s.User = models.User{}
	return s, nil
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		user:      models.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada"},
		expiresAt: time.Now().Add(time.Hour),
	}
}

type recorded struct {
	event   Event
	session *Session
}

func TestHolderSignInNotifiesListeners(t *testing.T) {
	auth := newFakeAuth()
	h := NewHolder(auth)
	var got []recorded
	unsubscribe := h.Subscribe(func(e Event, s *Session) { got = append(got, recorded{e, s}) })

	_, ok := h.Current()
	assert.False(t, ok)

	s, err := h.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "access-signin", s.AccessToken)
	assert.Equal(t, auth.user.ID, s.UserID)

	require.Len(t, got, 1)
	assert.Equal(t, EventSignedIn, got[0].event)
	assert.Equal(t, "Ada", got[0].session.Name)

	// Listeners receive copies.
	got[0].session.AccessToken = "tampered"
	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "access-signin", cur.AccessToken)

	unsubscribe()
	unsubscribe()
	require.NoError(t, h.SignOut(context.Background()))
	assert.Len(t, got, 1)
}

func TestHolderSignInFailureKeepsState(t *testing.T) {
	h := NewHolder(newFakeAuth())
	_, err := h.SignIn(context.Background(), "ada@example.com", "wrong")
	assert.True(t, errors.Is(err, models.ErrAuth))
	_, ok := h.Current()
	assert.False(t, ok)
}

func TestHolderSignUp(t *testing.T) {
	auth := newFakeAuth()
	h := NewHolder(auth)
	_, ok, err := h.SignUp(context.Background(), &models.SignUpInput{})
	require.NoError(t, err)
	assert.True(t, ok)

	auth.confirm = true
	h = NewHolder(auth)
	_, ok, err = h.SignUp(context.Background(), &models.SignUpInput{})
	require.NoError(t, err)
	assert.False(t, ok)
	_, signedIn := h.Current()
	assert.False(t, signedIn)
}

func TestHolderSignOutClearsLocallyOnRemoteFailure(t *testing.T) {
	auth := newFakeAuth()
	auth.signOutErr = errors.New("network unreachable")
	h := NewHolder(auth)
	var events []Event
	h.Subscribe(func(e Event, s *Session) {
		events = append(events, e)
		if e == EventSignedOut {
			assert.Nil(t, s)
		}
	})
	_, err := h.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	err = h.SignOut(context.Background())
	require.Error(t, err)
	_, ok := h.Current()
	assert.False(t, ok)
	assert.Equal(t, []Event{EventSignedIn, EventSignedOut}, events)

	// Signing out again is a no-op.
	require.NoError(t, h.SignOut(context.Background()))
	assert.Equal(t, 1, auth.signOuts)
}

func TestHolderTokenRefreshesNearExpiry(t *testing.T) {
	auth := newFakeAuth()
	h := NewHolder(auth)
	_, err := h.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	token, id, err := h.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-signin", token)
	assert.Equal(t, auth.user.ID, id)
	assert.Equal(t, 0, auth.refreshes)

	h.now = func() time.Time { return auth.expiresAt.Add(-10 * time.Second) }
	var events []Event
	h.Subscribe(func(e Event, s *Session) { events = append(events, e) })
	token, id, err = h.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-refreshed", token)
	assert.Equal(t, auth.user.ID, id, "identity survives a refresh without user")
	assert.Equal(t, 1, auth.refreshes)
	assert.Equal(t, []Event{EventTokenRefreshed}, events)

	cur, _ := h.Current()
	assert.Equal(t, "Ada", cur.Name)
}

func TestHolderTokenSignedOut(t *testing.T) {
	h := NewHolder(newFakeAuth())
	_, _, err := h.Token(context.Background())
	assert.True(t, errors.Is(err, ErrSignedOut))
	_, err = h.Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrSignedOut))
}

func TestHolderRestore(t *testing.T) {
	h := NewHolder(newFakeAuth())
	var events []Event
	h.Subscribe(func(e Event, s *Session) { events = append(events, e) })

	h.Restore(nil)
	h.Restore(&Session{})
	_, ok := h.Current()
	assert.False(t, ok)

	h.Restore(&Session{AccessToken: "a", UserID: uuid.New()})
	_, ok = h.Current()
	assert.True(t, ok)
	assert.Equal(t, []Event{EventInitialSession}, events)

	h.Close()
	require.NoError(t, h.SignOut(context.Background()))
	assert.Len(t, events, 1)
}

func TestSessionExpiredAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, (&Session{}).ExpiredAt(now), "no expiry recorded")
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Hour)}).ExpiredAt(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(10 * time.Second)}).ExpiredAt(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Minute)}).ExpiredAt(now))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStore(path)

	s, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	want := &Session{
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		UserID:       uuid.New(),
		Email:        "ada@example.com",
	}
	require.NoError(t, fs.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, want.UserID, got.UserID)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, want.RefreshToken, got.RefreshToken)

	require.NoError(t, fs.Save(nil))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	require.NoError(t, fs.Save(nil))
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestFileStoreListener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fs := NewFileStore(path)
	h := NewHolder(newFakeAuth())
	h.Subscribe(fs.Listener(slog.New(slog.NewTextHandler(io.Discard, nil))))

	h.Restore(&Session{AccessToken: "restored"})
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "restoring does not rewrite the file")

	_, err = h.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	saved, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-signin", saved.AccessToken)

	require.NoError(t, h.SignOut(context.Background()))
	saved, err = fs.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}
