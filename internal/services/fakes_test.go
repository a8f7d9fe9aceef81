package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory events and event_attendees table pair with the
// same uniqueness and foreign key rules as the real schema.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	events    map[int64]*models.EventRow
	attendees map[int64]map[uuid.UUID]bool

	insertEventErr error
	updateEventErr error
	deleteAttErr   error

	// beforeInsertAttendance runs outside the lock, before the row is written.
	beforeInsertAttendance func()
	// afterWrite runs outside the lock after an attendance insert or delete.
	afterWrite func()

	insertAttendanceCalls int
	duplicateInserts      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		events:    make(map[int64]*models.EventRow),
		attendees: make(map[int64]map[uuid.UUID]bool),
	}
}

// seed stores an event with display date and time as given.
func (s *fakeStore) seed(name, date, clock string, category models.Category, organizer uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	row := &models.EventRow{
		ID:          id,
		Title:       name,
		Date:        date,
		Time:        clock,
		Location:    "Austin",
		Venue:       "Mohawk",
		Category:    category,
		Description: name + ".",
	}
	if organizer != uuid.Nil {
		o := organizer
		row.Organizer = &o
	}
	s.events[id] = row
	return id
}

func (s *fakeStore) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	delete(s.attendees, id)
}

func (s *fakeStore) count(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendees[id])
}

func (s *fakeStore) toEvent(row *models.EventRow) *models.Event {
	cp := *row
	cp.EventAttendees = nil
	e := cp.ToEvent()
	e.AttendeeCount = len(s.attendees[row.ID])
	return e
}

// listLocked orders by the raw date string, like the store does.
func (s *fakeStore) listLocked(keep func(*models.EventRow) bool) []*models.Event {
	out := make([]*models.Event, 0, len(s.events))
	for _, row := range s.events {
		if keep(row) {
			out = append(out, s.toEvent(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *fakeStore) ListEvents(ctx context.Context) ([]*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(func(*models.EventRow) bool { return true }), nil
}

func (s *fakeStore) ListEventsByOrganizer(ctx context.Context, organizer uuid.UUID) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(func(r *models.EventRow) bool {
		return r.Organizer != nil && *r.Organizer == organizer
	}), nil
}

func (s *fakeStore) ListAttendingEvents(ctx context.Context, userID uuid.UUID, accessToken string) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(func(r *models.EventRow) bool {
		return s.attendees[r.ID][userID]
	}), nil
}

func (s *fakeStore) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: event %d: %w", models.ErrQuery, id, models.ErrNotFound)
	}
	return s.toEvent(row), nil
}

func (s *fakeStore) InsertEvent(ctx context.Context, row *models.EventRow, accessToken string) (*models.Event, error) {
	if s.insertEventErr != nil {
		return nil, s.insertEventErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *row
	cp.ID = s.nextID
	s.nextID++
	s.events[cp.ID] = &cp
	return s.toEvent(&cp), nil
}

func (s *fakeStore) UpdateEvent(ctx context.Context, id int64, update map[string]interface{}, accessToken string) error {
	if s.updateEventErr != nil {
		return s.updateEventErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.events[id]
	if !ok {
		return fmt.Errorf("%w: event %d: %w", models.ErrPersist, id, models.ErrNotFound)
	}

	// Apply the partial update the way PostgREST does: only the sent columns.
	raw, _ := json.Marshal(row)
	var cols map[string]interface{}
	_ = json.Unmarshal(raw, &cols)
	for k, v := range update {
		cols[k] = v
	}
	raw, _ = json.Marshal(cols)
	var updated models.EventRow
	if err := json.Unmarshal(raw, &updated); err != nil {
		return err
	}
	updated.ID = id
	s.events[id] = &updated
	return nil
}

func (s *fakeStore) DeleteEvent(ctx context.Context, id int64, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("%w: event %d: %w", models.ErrPersist, id, models.ErrNotFound)
	}
	delete(s.events, id)
	delete(s.attendees, id)
	return nil
}

func (s *fakeStore) IsAttending(ctx context.Context, eventID int64, userID uuid.UUID, accessToken string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attendees[eventID][userID], nil
}

func (s *fakeStore) CountAttendees(ctx context.Context, eventID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.count(eventID), nil
}

func (s *fakeStore) InsertAttendance(ctx context.Context, a *models.Attendance, accessToken string) error {
	if s.beforeInsertAttendance != nil {
		s.beforeInsertAttendance()
	}
	defer s.wrote()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertAttendanceCalls++
	if _, ok := s.events[a.EventID]; !ok {
		return fmt.Errorf("%w: insert attendance: referenced row does not exist: %w", models.ErrPersist, models.ErrNotFound)
	}
	if s.attendees[a.EventID] == nil {
		s.attendees[a.EventID] = make(map[uuid.UUID]bool)
	}
	if s.attendees[a.EventID][a.UserID] {
		s.duplicateInserts++
		return fmt.Errorf("%w: event %d", models.ErrDuplicateAttendance, a.EventID)
	}
	s.attendees[a.EventID][a.UserID] = true
	return nil
}

func (s *fakeStore) DeleteAttendance(ctx context.Context, eventID int64, userID uuid.UUID, accessToken string) error {
	if s.deleteAttErr != nil {
		return s.deleteAttErr
	}
	defer s.wrote()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attendees[eventID], userID)
	return nil
}

func (s *fakeStore) wrote() {
	if s.afterWrite != nil {
		s.afterWrite()
	}
}

type fakeImages struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (f *fakeImages) Upload(ctx context.Context, objectPath string, img *models.ImageUpload, accessToken string) (*models.StoredImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, objectPath)
	if f.err != nil {
		return nil, f.err
	}
	return &models.StoredImage{URL: "https://cdn.example.com/" + objectPath, Path: objectPath}, nil
}

func (f *fakeImages) Remove(ctx context.Context, objectPath string, accessToken string) error {
	return nil
}

func (f *fakeImages) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakeUsers struct {
	users    map[string]*models.User
	lastUp   *models.SignUpInput
	confirm  bool
	tokens   map[string]uuid.UUID
	profiles map[uuid.UUID]*models.Profile
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:    make(map[string]*models.User),
		tokens:   make(map[string]uuid.UUID),
		profiles: make(map[uuid.UUID]*models.Profile),
	}
}

func (f *fakeUsers) session(u *models.User) *models.AuthSession {
	token := "access-" + u.ID.String()
	f.tokens[token] = u.ID
	return &models.AuthSession{AccessToken: token, RefreshToken: "refresh-" + u.ID.String(), User: *u}
}

func (f *fakeUsers) SignUp(ctx context.Context, input *models.SignUpInput) (*models.AuthSession, error) {
	f.lastUp = input
	if _, ok := f.users[input.Email]; ok {
		return nil, fmt.Errorf("%w: email already in use", models.ErrAuth)
	}
	u := &models.User{ID: uuid.New(), Email: input.Email, Name: input.Name}
	f.users[input.Email] = u
	f.profiles[u.ID] = &models.Profile{ID: u.ID, Name: u.Name}
	if f.confirm {
		return &models.AuthSession{User: *u}, nil
	}
	return f.session(u), nil
}

func (f *fakeUsers) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, fmt.Errorf("%w: invalid email or password", models.ErrAuth)
	}
	return f.session(u), nil
}

func (f *fakeUsers) SignOut(ctx context.Context, accessToken string) error {
	delete(f.tokens, accessToken)
	return nil
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	for _, u := range f.users {
		if "refresh-"+u.ID.String() == refreshToken {
			return f.session(u), nil
		}
	}
	return nil, fmt.Errorf("%w: invalid refresh token", models.ErrAuth)
}

func (f *fakeUsers) GetAuthUser(ctx context.Context, accessToken string) (*models.User, error) {
	id, ok := f.tokens[accessToken]
	if !ok {
		return nil, fmt.Errorf("%w: invalid token", models.ErrAuth)
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user gone", models.ErrAuth)
}

func (f *fakeUsers) GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s: %w", models.ErrQuery, id, models.ErrNotFound)
	}
	return p, nil
}

type fakeViews struct {
	tracked []*models.EventView
	err     error
}

func (f *fakeViews) TrackEventView(ctx context.Context, view *models.EventView) error {
	if f.err != nil {
		return f.err
	}
	f.tracked = append(f.tracked, view)
	return nil
}

func (f *fakeViews) GetEventViewStats(ctx context.Context, eventID int64) (*models.EventViewStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	var n int64
	for _, v := range f.tracked {
		if v.EventID == eventID {
			n++
		}
	}
	return &models.EventViewStats{EventID: eventID, TotalViews: n, UniqueViews: n}, nil
}

func (f *fakeViews) EnsureIndexes(ctx context.Context) error {
	return nil
}
