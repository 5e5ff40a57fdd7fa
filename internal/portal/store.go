package portal

import (
	"context"

	"confportal.org/internal/auth"
)

// UserStore persists accounts. CredentialByEmail makes every UserStore usable by
// the auth gate.
type UserStore interface {
	auth.CredentialStore
	CreateUser(ctx context.Context, u User, passwordHash string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	ActiveManagers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, upd ProfileUpdate) (User, error)
	// DeactivateUser fails with ErrNotFound when the user is absent or already inactive.
	DeactivateUser(ctx context.Context, id string) error
	SetRole(ctx context.Context, id string, role auth.Role) (User, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, e Event) (Event, error)
	ActiveEvents(ctx context.Context) ([]Event, error)
	EventByID(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, id string, in EventInput) (Event, error)
	DeactivateEvent(ctx context.Context, id string) error
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, a Application) (Application, error)
	ApplicationsByUser(ctx context.Context, userID string) ([]Application, error)
	ApplicationByID(ctx context.Context, id string) (Application, error)
	// ApplicationsByStatus lists applications whose status equals status, or
	// differs from it when exclude is true.
	ApplicationsByStatus(ctx context.Context, status ApplicationStatus, exclude bool) ([]Application, error)
	// UpdateApplicationStatus changes the status and records n for the application
	// author in the same transaction. n.UserID and n.ApplicationName are filled in
	// from the stored application.
	UpdateApplicationStatus(ctx context.Context, id string, status ApplicationStatus, n Notification) (Application, Notification, error)
}

type CommentStore interface {
	// CreateComment stores c and a notification for the application author in one
	// transaction.
	CreateComment(ctx context.Context, c Comment, n Notification) (Comment, Notification, error)
	CommentsByApplication(ctx context.Context, applicationID string) ([]Comment, error)
}

type NotificationStore interface {
	ActiveNotifications(ctx context.Context, userID string) ([]Notification, error)
	NotificationByID(ctx context.Context, id string) (Notification, error)
	DeactivateNotification(ctx context.Context, id string) error
	DeleteNotifications(ctx context.Context, userID string) (int64, error)
}

// Store is everything the portal service needs from persistence.
type Store interface {
	UserStore
	EventStore
	ApplicationStore
	CommentStore
	NotificationStore
}

// Notifier receives notifications after they are committed.
type Notifier interface {
	Publish(n Notification)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Notification) {}
