// Package memory is an in-process implementation of the portal and article stores,
// used when no database DSN is configured and throughout the tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"confportal.org/internal/article"
	"confportal.org/internal/auth"
	"confportal.org/internal/portal"
)

var (
	_ portal.Store  = (*Store)(nil)
	_ article.Store = (*Store)(nil)
)

type userRow struct {
	user portal.User
	hash string
}

// Store keeps every entity in maps guarded by one lock. Slices of ids keep
// insertion order for listings.
type Store struct {
	mu sync.RWMutex

	users       map[string]*userRow
	userOrder   []string
	emailIndex  map[string]string
	events      map[string]*portal.Event
	eventOrder  []string
	apps        map[string]*portal.Application
	appOrder    []string
	comments    []portal.Comment
	notes       map[string]*portal.Notification
	noteOrder   []string
	articles    map[string]*article.Submission
	articleRank []string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:      make(map[string]*userRow),
		emailIndex: make(map[string]string),
		events:     make(map[string]*portal.Event),
		apps:       make(map[string]*portal.Application),
		notes:      make(map[string]*portal.Notification),
		articles:   make(map[string]*article.Submission),
	}
}

// Ping always succeeds; it lets the store stand in as a readiness probe.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CredentialByEmail(_ context.Context, email string) (auth.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[auth.NormalizeEmail(email)]
	if !ok {
		return auth.Credential{}, fmt.Errorf("%w: %s", auth.ErrCredentialNotFound, email)
	}
	row := s.users[id]
	return auth.Credential{Principal: row.user.Principal(), PasswordHash: row.hash}, nil
}

func (s *Store) CreateUser(_ context.Context, u portal.User, passwordHash string) (portal.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := auth.NormalizeEmail(u.Email)
	if _, taken := s.emailIndex[email]; taken {
		return portal.User{}, fmt.Errorf("%w: email %s already registered", portal.ErrIntegrity, email)
	}
	if _, taken := s.users[u.ID]; taken {
		return portal.User{}, fmt.Errorf("%w: user %s exists", portal.ErrIntegrity, u.ID)
	}
	u.Email = email
	s.users[u.ID] = &userRow{user: u, hash: passwordHash}
	s.userOrder = append(s.userOrder, u.ID)
	s.emailIndex[email] = u.ID
	return u, nil
}

func (s *Store) UserByID(_ context.Context, id string) (portal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.users[id]
	if !ok {
		return portal.User{}, fmt.Errorf("%w: user %s", portal.ErrNotFound, id)
	}
	return row.user, nil
}

func (s *Store) ActiveManagers(context.Context) ([]portal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []portal.User{}
	for _, id := range s.userOrder {
		u := s.users[id].user
		if u.Active && u.Role == auth.RoleManager {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, upd portal.ProfileUpdate) (portal.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[id]
	if !ok || !row.user.Active {
		return portal.User{}, fmt.Errorf("%w: user %s", portal.ErrNotFound, id)
	}
	email := auth.NormalizeEmail(upd.Email)
	if owner, taken := s.emailIndex[email]; taken && owner != id {
		return portal.User{}, fmt.Errorf("%w: email %s already registered", portal.ErrIntegrity, email)
	}
	delete(s.emailIndex, row.user.Email)
	row.user.Name = upd.Name
	row.user.Surname = upd.Surname
	row.user.Email = email
	s.emailIndex[email] = id
	return row.user, nil
}

func (s *Store) DeactivateUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[id]
	if !ok || !row.user.Active {
		return fmt.Errorf("%w: user %s", portal.ErrNotFound, id)
	}
	row.user.Active = false
	return nil
}

func (s *Store) SetRole(_ context.Context, id string, role auth.Role) (portal.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[id]
	if !ok || !row.user.Active {
		return portal.User{}, fmt.Errorf("%w: user %s", portal.ErrNotFound, id)
	}
	row.user.Role = role
	return row.user, nil
}

func (s *Store) CreateEvent(_ context.Context, e portal.Event) (portal.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.events[e.ID]; taken {
		return portal.Event{}, fmt.Errorf("%w: event %s exists", portal.ErrIntegrity, e.ID)
	}
	ev := e
	s.events[e.ID] = &ev
	s.eventOrder = append(s.eventOrder, e.ID)
	return ev, nil
}

func (s *Store) ActiveEvents(context.Context) ([]portal.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []portal.Event{}
	for _, id := range s.eventOrder {
		if ev := s.events[id]; ev.Active {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (s *Store) EventByID(_ context.Context, id string) (portal.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return portal.Event{}, fmt.Errorf("%w: event %s", portal.ErrNotFound, id)
	}
	return *ev, nil
}

func (s *Store) UpdateEvent(_ context.Context, id string, in portal.EventInput) (portal.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || !ev.Active {
		return portal.Event{}, fmt.Errorf("%w: event %s", portal.ErrNotFound, id)
	}
	ev.Name = in.Name
	ev.Content = in.Content
	return *ev, nil
}

func (s *Store) DeactivateEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || !ev.Active {
		return fmt.Errorf("%w: event %s", portal.ErrNotFound, id)
	}
	ev.Active = false
	return nil
}

func (s *Store) CreateApplication(_ context.Context, a portal.Application) (portal.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[a.EventID]; !ok {
		return portal.Application{}, fmt.Errorf("%w: unknown event %s", portal.ErrIntegrity, a.EventID)
	}
	if _, ok := s.users[a.UserID]; !ok {
		return portal.Application{}, fmt.Errorf("%w: unknown user %s", portal.ErrIntegrity, a.UserID)
	}
	app := a
	s.apps[a.ID] = &app
	s.appOrder = append(s.appOrder, a.ID)
	return app, nil
}

func (s *Store) ApplicationsByUser(_ context.Context, userID string) ([]portal.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []portal.Application{}
	for _, id := range s.appOrder {
		if a := s.apps[id]; a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) ApplicationByID(_ context.Context, id string) (portal.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[id]
	if !ok {
		return portal.Application{}, fmt.Errorf("%w: application %s", portal.ErrNotFound, id)
	}
	return *a, nil
}

func (s *Store) ApplicationsByStatus(_ context.Context, status portal.ApplicationStatus, exclude bool) ([]portal.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []portal.Application{}
	for _, id := range s.appOrder {
		a := s.apps[id]
		if (a.Status == status) != exclude {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) UpdateApplicationStatus(_ context.Context, id string, status portal.ApplicationStatus, n portal.Notification) (portal.Application, portal.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return portal.Application{}, portal.Notification{}, fmt.Errorf("%w: application %s", portal.ErrNotFound, id)
	}
	a.Status = status
	n = s.addNotificationLocked(n, a)
	return *a, n, nil
}

func (s *Store) CreateComment(_ context.Context, c portal.Comment, n portal.Notification) (portal.Comment, portal.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[c.ApplicationID]
	if !ok {
		return portal.Comment{}, portal.Notification{}, fmt.Errorf("%w: application %s", portal.ErrNotFound, c.ApplicationID)
	}
	s.comments = append(s.comments, c)
	n = s.addNotificationLocked(n, a)
	return c, n, nil
}

func (s *Store) addNotificationLocked(n portal.Notification, a *portal.Application) portal.Notification {
	n.ApplicationID = a.ID
	n.ApplicationName = a.ApplicationName
	n.UserID = a.UserID
	note := n
	s.notes[n.ID] = &note
	s.noteOrder = append(s.noteOrder, n.ID)
	return note
}

func (s *Store) CommentsByApplication(_ context.Context, applicationID string) ([]portal.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []portal.Comment{}
	for _, c := range s.comments {
		if c.ApplicationID == applicationID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ActiveNotifications(_ context.Context, userID string) ([]portal.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []portal.Notification{}
	for _, id := range s.noteOrder {
		if n, ok := s.notes[id]; ok && n.UserID == userID && n.Active {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *Store) NotificationByID(_ context.Context, id string) (portal.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return portal.Notification{}, fmt.Errorf("%w: notification %s", portal.ErrNotFound, id)
	}
	return *n, nil
}

func (s *Store) DeactivateNotification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("%w: notification %s", portal.ErrNotFound, id)
	}
	n.Active = false
	return nil
}

func (s *Store) DeleteNotifications(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	kept := s.noteOrder[:0]
	for _, id := range s.noteOrder {
		if s.notes[id].UserID == userID {
			delete(s.notes, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.noteOrder = kept
	return removed, nil
}

func (s *Store) CreateArticle(_ context.Context, sub article.Submission) (article.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(sub.Document) == 0 {
		return article.Submission{}, fmt.Errorf("%w: article document is empty", portal.ErrIntegrity)
	}
	if _, taken := s.articles[sub.ID]; taken {
		return article.Submission{}, fmt.Errorf("%w: article %s exists", portal.ErrIntegrity, sub.ID)
	}
	if _, ok := s.users[sub.AuthorID]; !ok {
		return article.Submission{}, fmt.Errorf("%w: unknown author %s", portal.ErrIntegrity, sub.AuthorID)
	}
	row := sub
	row.Document = append([]byte(nil), sub.Document...)
	s.articles[sub.ID] = &row
	s.articleRank = append(s.articleRank, sub.ID)
	return sub, nil
}

func (s *Store) ArticleByID(_ context.Context, id string) (article.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return article.Submission{}, fmt.Errorf("%w: article %s", portal.ErrNotFound, id)
	}
	return metadata(a), nil
}

func (s *Store) ArticlesByAuthor(_ context.Context, authorID string) ([]article.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []article.Submission{}
	for _, id := range s.articleRank {
		if a := s.articles[id]; a.AuthorID == authorID {
			out = append(out, metadata(a))
		}
	}
	return out, nil
}

func (s *Store) Articles(context.Context) ([]article.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]article.Submission, 0, len(s.articleRank))
	for _, id := range s.articleRank {
		out = append(out, metadata(s.articles[id]))
	}
	return out, nil
}

func (s *Store) ArticleDocument(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("%w: article %s", portal.ErrNotFound, id)
	}
	return append([]byte(nil), a.Document...), nil
}

func metadata(a *article.Submission) article.Submission {
	out := *a
	out.Document = nil
	return out
}
