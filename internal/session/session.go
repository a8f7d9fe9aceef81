// Package session owns the signed-in identity of a client process. Holder is
// the only writer; everyone else reads copies or listens through Subscribe.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/models"
)

var ErrSignedOut = errors.New("not signed in")

type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// refreshSkew renews tokens slightly before they expire.
const refreshSkew = 30 * time.Second

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
}

func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Add(refreshSkew).Before(s.ExpiresAt)
}

func fromAuth(a *models.AuthSession) *Session {
	return &Session{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		ExpiresAt:    a.ExpiresAt,
		UserID:       a.User.ID,
		Email:        a.User.Email,
		Name:         a.User.Name,
	}
}

// Authenticator is the identity provider surface the holder drives.
// services.UserService implements it.
type Authenticator interface {
	SignUp(ctx context.Context, input *models.SignUpInput) (*models.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error)
}

// Listener receives every session change. session is nil after sign-out.
type Listener func(event Event, session *Session)

type Holder struct {
	auth Authenticator
	now  func() time.Time

	mu        sync.RWMutex
	current   *Session
	listeners map[int]Listener
	nextID    int
}

func NewHolder(auth Authenticator) *Holder {
	return &Holder{
		auth:      auth,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// Current returns a copy of the signed-in session.
func (h *Holder) Current() (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return Session{}, false
	}
	return *h.current, true
}

// Subscribe registers fn and returns the func that removes it. Calling the
// returned func more than once is harmless.
func (h *Holder) Subscribe(fn Listener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Close drops every listener.
func (h *Holder) Close() {
	h.mu.Lock()
	h.listeners = make(map[int]Listener)
	h.mu.Unlock()
}

func (h *Holder) set(event Event, s *Session) {
	h.mu.Lock()
	h.current = s
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, h.listeners[id])
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		if s == nil {
			fn(event, nil)
			continue
		}
		cp := *s
		fn(event, &cp)
	}
}

// Restore installs a previously persisted session.
func (h *Holder) Restore(s *Session) {
	if s == nil || s.AccessToken == "" {
		return
	}
	cp := *s
	h.set(EventInitialSession, &cp)
}

func (h *Holder) SignIn(ctx context.Context, email, password string) (Session, error) {
	res, err := h.auth.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	s := fromAuth(res)
	h.set(EventSignedIn, s)
	return *s, nil
}

// SignUp signs the new account in when the auth server returns a session
// right away. With email confirmation on, it returns ok=false and the holder
// stays signed out.
func (h *Holder) SignUp(ctx context.Context, input *models.SignUpInput) (Session, bool, error) {
	res, err := h.auth.SignUp(ctx, input)
	if err != nil {
		return Session{}, false, err
	}
	if !res.Active() {
		return Session{}, false, nil
	}
	s := fromAuth(res)
	h.set(EventSignedIn, s)
	return *s, true, nil
}

// SignOut always clears the local session; the remote error is still
// returned.
func (h *Holder) SignOut(ctx context.Context) error {
	cur, ok := h.Current()
	if !ok {
		return nil
	}
	err := h.auth.SignOut(ctx, cur.AccessToken)
	h.set(EventSignedOut, nil)
	if err != nil {
		return fmt.Errorf("signed out locally, remote sign out failed: %w", err)
	}
	return nil
}

func (h *Holder) Refresh(ctx context.Context) (Session, error) {
	cur, ok := h.Current()
	if !ok {
		return Session{}, ErrSignedOut
	}
	res, err := h.auth.RefreshToken(ctx, cur.RefreshToken)
	if err != nil {
		return Session{}, err
	}
	s := fromAuth(res)
	if s.UserID == uuid.Nil {
		s.UserID, s.Email, s.Name = cur.UserID, cur.Email, cur.Name
	}
	h.set(EventTokenRefreshed, s)
	return *s, nil
}

// Token returns a usable access token, refreshing it first when it is about
// to expire.
func (h *Holder) Token(ctx context.Context) (string, uuid.UUID, error) {
	cur, ok := h.Current()
	if !ok {
		return "", uuid.Nil, ErrSignedOut
	}
	if cur.ExpiredAt(h.now()) {
		refreshed, err := h.Refresh(ctx)
		if err != nil {
			return "", uuid.Nil, fmt.Errorf("session expired: %w", err)
		}
		cur = refreshed
	}
	return cur.AccessToken, cur.UserID, nil
}
