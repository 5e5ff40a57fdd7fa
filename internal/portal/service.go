package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"confportal.org/internal/auth"
	"confportal.org/internal/ids"
)

// Service implements the portal workflows on top of a Store. Every mutating
// method checks the role policy before it touches the store.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes committed notifications to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides time.Now for created-at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, notifier: nopNotifier{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) stamp() time.Time { return s.now().UTC() }

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, in NewUser) (User, error) {
	return s.createUser(ctx, in, auth.RoleUser)
}

// CreateManager creates a manager account on behalf of an administrator.
func (s *Service) CreateManager(ctx context.Context, actor auth.Principal, in NewUser) (User, error) {
	if err := auth.Require(actor, auth.ActionCreateManager); err != nil {
		return User{}, err
	}
	return s.createUser(ctx, in, auth.RoleManager)
}

// CreateSuperAdmin bootstraps a superadmin account. It is only reachable from the
// migrate CLI, never from HTTP.
func (s *Service) CreateSuperAdmin(ctx context.Context, in NewUser) (User, error) {
	return s.createUser(ctx, in, auth.RoleSuperAdmin)
}

func (s *Service) createUser(ctx context.Context, in NewUser, role auth.Role) (User, error) {
	if err := in.normalize(); err != nil {
		return User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("portal: hash password: %w", err)
	}
	u := User{
		ID:        ids.NewEntityID(),
		Name:      in.Name,
		Surname:   in.Surname,
		Email:     in.Email,
		Age:       in.Age,
		Role:      role,
		Active:    true,
		CreatedAt: s.stamp(),
	}
	return s.store.CreateUser(ctx, u, hash)
}

func (s *Service) User(ctx context.Context, id string) (User, error) {
	return s.store.UserByID(ctx, id)
}

// Managers lists active manager accounts.
func (s *Service) Managers(ctx context.Context) ([]User, error) {
	return s.store.ActiveManagers(ctx)
}

// UpdateProfile edits name, surname and email. Users may edit themselves; editing
// someone else needs edit_user. Tokens carry the email as subject, so changing it
// invalidates the user's outstanding tokens and a fresh login is required.
func (s *Service) UpdateProfile(ctx context.Context, actor auth.Principal, id string, upd ProfileUpdate) (User, error) {
	if err := auth.RequireSelf(actor, id, auth.ActionEditUser); err != nil {
		return User{}, err
	}
	if err := upd.normalize(); err != nil {
		return User{}, err
	}
	return s.store.UpdateUser(ctx, id, upd)
}

// DeleteUser soft-deletes an account. A second call reports ErrNotFound.
func (s *Service) DeleteUser(ctx context.Context, actor auth.Principal, id string) error {
	if err := auth.Require(actor, auth.ActionDeleteUser); err != nil {
		return err
	}
	return s.store.DeactivateUser(ctx, id)
}

func (s *Service) GrantAdmin(ctx context.Context, actor auth.Principal, id string) (User, error) {
	return s.setRole(ctx, actor, id, auth.RoleAdmin)
}

func (s *Service) RevokeAdmin(ctx context.Context, actor auth.Principal, id string) (User, error) {
	return s.setRole(ctx, actor, id, auth.RoleUser)
}

func (s *Service) GrantManager(ctx context.Context, actor auth.Principal, id string) (User, error) {
	return s.setRole(ctx, actor, id, auth.RoleManager)
}

func (s *Service) setRole(ctx context.Context, actor auth.Principal, id string, role auth.Role) (User, error) {
	if err := auth.Require(actor, auth.ActionManageRoles); err != nil {
		return User{}, err
	}
	if actor.ID == id {
		return User{}, fmt.Errorf("%w: cannot change own role", ErrInvalidInput)
	}
	target, err := s.store.UserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !target.Active {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if target.Role == auth.RoleSuperAdmin {
		return User{}, fmt.Errorf("%w: superadmin role is not managed here", auth.ErrForbidden)
	}
	return s.store.SetRole(ctx, id, role)
}

func (s *Service) CreateEvent(ctx context.Context, actor auth.Principal, in EventInput) (Event, error) {
	if err := auth.Require(actor, auth.ActionCreateEvent); err != nil {
		return Event{}, err
	}
	in = trimEvent(in)
	if err := required(map[string]string{"name": in.Name, "content": in.Content, "date": in.Date}); err != nil {
		return Event{}, err
	}
	return s.store.CreateEvent(ctx, Event{
		ID:      ids.NewEntityID(),
		Name:    in.Name,
		Content: in.Content,
		Date:    in.Date,
		Active:  true,
	})
}

// Events lists active events.
func (s *Service) Events(ctx context.Context) ([]Event, error) {
	return s.store.ActiveEvents(ctx)
}

func (s *Service) Event(ctx context.Context, id string) (Event, error) {
	return s.store.EventByID(ctx, id)
}

func (s *Service) UpdateEvent(ctx context.Context, actor auth.Principal, id string, in EventInput) (Event, error) {
	if err := auth.Require(actor, auth.ActionEditEvent); err != nil {
		return Event{}, err
	}
	in = trimEvent(in)
	if err := required(map[string]string{"name": in.Name, "content": in.Content}); err != nil {
		return Event{}, err
	}
	return s.store.UpdateEvent(ctx, id, in)
}

// DeleteEvent soft-deletes an event.
func (s *Service) DeleteEvent(ctx context.Context, actor auth.Principal, id string) error {
	if err := auth.Require(actor, auth.ActionDeleteEvent); err != nil {
		return err
	}
	return s.store.DeactivateEvent(ctx, id)
}

func trimEvent(in EventInput) EventInput {
	return EventInput{
		Name:    strings.TrimSpace(in.Name),
		Content: strings.TrimSpace(in.Content),
		Date:    strings.TrimSpace(in.Date),
	}
}

// CreateApplication files an application by actor for an active event.
func (s *Service) CreateApplication(ctx context.Context, actor auth.Principal, in ApplicationInput) (Application, error) {
	in.ApplicationName = strings.TrimSpace(in.ApplicationName)
	in.Content = strings.TrimSpace(in.Content)
	if err := required(map[string]string{"event_id": in.EventID, "application_name": in.ApplicationName, "content": in.Content}); err != nil {
		return Application{}, err
	}
	ev, err := s.store.EventByID(ctx, in.EventID)
	if err != nil {
		return Application{}, err
	}
	if !ev.Active {
		return Application{}, fmt.Errorf("%w: event %s", ErrNotFound, in.EventID)
	}
	return s.store.CreateApplication(ctx, Application{
		ID:              ids.NewEntityID(),
		EventID:         ev.ID,
		UserID:          actor.ID,
		EventName:       ev.Name,
		ApplicationName: in.ApplicationName,
		Content:         in.Content,
		Status:          StatusUnreviewed,
		CreatedAt:       s.stamp(),
	})
}

func (s *Service) ApplicationsByUser(ctx context.Context, userID string) ([]Application, error) {
	return s.store.ApplicationsByUser(ctx, userID)
}

func (s *Service) Application(ctx context.Context, id string) (Application, error) {
	return s.store.ApplicationByID(ctx, id)
}

// NewApplications lists applications nobody has reviewed yet.
func (s *Service) NewApplications(ctx context.Context) ([]Application, error) {
	return s.store.ApplicationsByStatus(ctx, StatusUnreviewed, false)
}

// ReviewedApplications lists applications in any state but UNREVIEWED.
func (s *Service) ReviewedApplications(ctx context.Context) ([]Application, error) {
	return s.store.ApplicationsByStatus(ctx, StatusUnreviewed, true)
}

// UpdateApplicationStatus moves an application to status and notifies its author.
func (s *Service) UpdateApplicationStatus(ctx context.Context, actor auth.Principal, id string, status ApplicationStatus) (Application, error) {
	if err := auth.Require(actor, auth.ActionUpdateApplicationStatus); err != nil {
		return Application{}, err
	}
	parsed, ok := ParseStatus(string(status))
	if !ok {
		return Application{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	app, n, err := s.store.UpdateApplicationStatus(ctx, id, parsed, s.newNotification(id))
	if err != nil {
		return Application{}, err
	}
	s.notifier.Publish(n)
	return app, nil
}

// CreateComment records a manager comment and notifies the application author.
func (s *Service) CreateComment(ctx context.Context, actor auth.Principal, applicationID, content string) (Comment, error) {
	if err := auth.Require(actor, auth.ActionCreateComment); err != nil {
		return Comment{}, err
	}
	content = strings.TrimSpace(content)
	if err := required(map[string]string{"application_id": applicationID, "content": content}); err != nil {
		return Comment{}, err
	}
	c, n, err := s.store.CreateComment(ctx, Comment{
		ID:             ids.NewEntityID(),
		ApplicationID:  applicationID,
		ManagerID:      actor.ID,
		ManagerName:    actor.Name,
		ManagerSurname: actor.Surname,
		Content:        content,
		CreatedAt:      s.stamp(),
	}, s.newNotification(applicationID))
	if err != nil {
		return Comment{}, err
	}
	s.notifier.Publish(n)
	return c, nil
}

func (s *Service) Comments(ctx context.Context, applicationID string) ([]Comment, error) {
	return s.store.CommentsByApplication(ctx, applicationID)
}

func (s *Service) newNotification(applicationID string) Notification {
	return Notification{
		ID:            ids.NewEntityID(),
		ApplicationID: applicationID,
		Active:        true,
		CreatedAt:     s.stamp(),
	}
}

// Notifications lists the active notifications of userID. Users read their own;
// administrators may read anyone's.
func (s *Service) Notifications(ctx context.Context, actor auth.Principal, userID string) ([]Notification, error) {
	if err := auth.RequireSelf(actor, userID, auth.ActionEditUser); err != nil {
		return nil, err
	}
	return s.store.ActiveNotifications(ctx, userID)
}

// DeactivateNotification marks one notification as read. The row is kept.
func (s *Service) DeactivateNotification(ctx context.Context, actor auth.Principal, id string) error {
	n, err := s.store.NotificationByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireSelf(actor, n.UserID, auth.ActionEditUser); err != nil {
		return err
	}
	return s.store.DeactivateNotification(ctx, id)
}

// DeleteNotifications removes every notification of userID.
func (s *Service) DeleteNotifications(ctx context.Context, actor auth.Principal, userID string) (int64, error) {
	if err := auth.RequireSelf(actor, userID, auth.ActionEditUser); err != nil {
		return 0, err
	}
	return s.store.DeleteNotifications(ctx, userID)
}
