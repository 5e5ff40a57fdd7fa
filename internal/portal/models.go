package portal

import (
	"time"

	"confportal.org/internal/auth"
)

// User is a registered portal account.
type User struct {
	ID        string
	Name      string
	Surname   string
	Email     string
	Age       int
	Role      auth.Role
	Active    bool
	CreatedAt time.Time
}

// Principal projects the user onto the identity used by the policy.
func (u User) Principal() auth.Principal {
	return auth.Principal{ID: u.ID, Name: u.Name, Surname: u.Surname, Email: u.Email, Role: u.Role, Active: u.Active}
}

// NewUser is the registration payload.
type NewUser struct {
	Name     string
	Surname  string
	Email    string
	Age      int
	Password string
}

// ProfileUpdate replaces the editable profile fields.
type ProfileUpdate struct {
	Name    string
	Surname string
	Email   string
}

// Event is a conference or portal event users apply to.
type Event struct {
	ID      string
	Name    string
	Content string
	Date    string
	Active  bool
}

// EventInput carries create and edit payloads. Date is ignored on edit.
type EventInput struct {
	Name    string
	Content string
	Date    string
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusUnreviewed    ApplicationStatus = "UNREVIEWED"
	StatusAccepted      ApplicationStatus = "ACCEPTED"
	StatusRejected      ApplicationStatus = "REJECTED"
	StatusNeedsRevision ApplicationStatus = "NEEDS_REVISION"
)

// ParseStatus accepts a status in any letter case.
func ParseStatus(raw string) (ApplicationStatus, bool) {
	switch s := ApplicationStatus(upperTrim(raw)); s {
	case StatusUnreviewed, StatusAccepted, StatusRejected, StatusNeedsRevision:
		return s, true
	}
	return "", false
}

// Application is a user's request to take part in an event.
type Application struct {
	ID              string
	EventID         string
	UserID          string
	EventName       string
	ApplicationName string
	Content         string
	Status          ApplicationStatus
	CreatedAt       time.Time
}

// ApplicationInput is the create payload.
type ApplicationInput struct {
	EventID         string
	ApplicationName string
	Content         string
}

// Notification tells an application author that something happened to it.
type Notification struct {
	ID              string
	ApplicationID   string
	ApplicationName string
	UserID          string
	Active          bool
	CreatedAt       time.Time
}

// Comment is a manager's remark on an application.
type Comment struct {
	ID             string
	ApplicationID  string
	ManagerID      string
	ManagerName    string
	ManagerSurname string
	Content        string
	CreatedAt      time.Time
}
