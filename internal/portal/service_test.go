package portal_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"confportal.org/internal/auth"
	"confportal.org/internal/portal"
	"confportal.org/internal/store/memory"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []portal.Notification
}

func (r *recordingNotifier) Publish(n portal.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type fixture struct {
	svc      *portal.Service
	store    *memory.Store
	notifier *recordingNotifier
	user     auth.Principal
	admin    auth.Principal
	super    auth.Principal
	manager  auth.Principal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	rec := &recordingNotifier{}
	svc := portal.NewService(store, portal.WithNotifier(rec))
	ctx := context.Background()

	super, err := svc.CreateSuperAdmin(ctx, portal.NewUser{Name: "Root", Surname: "Admin", Email: "root@example.com", Age: 40, Password: "pw"})
	if err != nil {
		t.Fatalf("CreateSuperAdmin: %v", err)
	}
	user, err := svc.Register(ctx, portal.NewUser{Name: "Анна", Surname: "Петрова-Иванова", Email: "Anna@Example.com", Age: 25, Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	adminUser, err := svc.Register(ctx, portal.NewUser{Name: "Boris", Surname: "Admin", Email: "boris@example.com", Age: 35, Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	admin, err := svc.GrantAdmin(ctx, super.Principal(), adminUser.ID)
	if err != nil {
		t.Fatalf("GrantAdmin: %v", err)
	}
	manager, err := svc.CreateManager(ctx, admin.Principal(), portal.NewUser{Name: "Mila", Surname: "Manager", Email: "mila@example.com", Age: 30, Password: "pw"})
	if err != nil {
		t.Fatalf("CreateManager: %v", err)
	}
	return fixture{
		svc: svc, store: store, notifier: rec,
		user: user.Principal(), admin: admin.Principal(), super: super.Principal(), manager: manager.Principal(),
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]portal.NewUser{
		"digits in name":   {Name: "Ann4", Surname: "Smith", Email: "a1@example.com", Age: 20, Password: "pw"},
		"space in surname": {Name: "Ann", Surname: "Van Dyke", Email: "a2@example.com", Age: 20, Password: "pw"},
		"bad email":        {Name: "Ann", Surname: "Smith", Email: "not-an-email", Age: 20, Password: "pw"},
		"zero age":         {Name: "Ann", Surname: "Smith", Email: "a3@example.com", Age: 0, Password: "pw"},
		"empty password":   {Name: "Ann", Surname: "Smith", Email: "a4@example.com", Age: 20},
		"long password":    {Name: "Ann", Surname: "Smith", Email: "a5@example.com", Age: 20, Password: strings.Repeat("x", 73)},
	}
	for name, in := range cases {
		if _, err := f.svc.Register(ctx, in); !errors.Is(err, portal.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}

	dup := portal.NewUser{Name: "Anna", Surname: "Copy", Email: "anna@example.com", Age: 20, Password: "pw"}
	if _, err := f.svc.Register(ctx, dup); !errors.Is(err, portal.ErrIntegrity) {
		t.Fatalf("duplicate email: expected ErrIntegrity, got %v", err)
	}
}

func TestRegisteredUserCanAuthenticate(t *testing.T) {
	f := newFixture(t)
	cred, err := f.store.CredentialByEmail(context.Background(), "anna@example.com")
	if err != nil {
		t.Fatalf("CredentialByEmail: %v", err)
	}
	if cred.Role != auth.RoleUser || !cred.Active {
		t.Fatalf("unexpected principal %+v", cred.Principal)
	}
	if err := auth.VerifyPassword(cred.PasswordHash, "pw"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestDeleteUserTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.DeleteUser(ctx, f.user, f.admin.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("user deleting admin: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteUser(ctx, f.admin, f.user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := f.svc.DeleteUser(ctx, f.admin, f.user.ID); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	u, err := f.svc.User(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if u.Active {
		t.Fatalf("user still active after soft delete")
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	upd := portal.ProfileUpdate{Name: "Анна", Surname: "Смирнова", Email: "anna.s@example.com"}

	got, err := f.svc.UpdateProfile(ctx, f.user, f.user.ID, upd)
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if got.Surname != "Смирнова" || got.Email != "anna.s@example.com" {
		t.Fatalf("profile not updated: %+v", got)
	}
	if _, err := f.svc.UpdateProfile(ctx, f.user, f.manager.ID, upd); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("editing another user: expected ErrForbidden, got %v", err)
	}
	upd.Email = "mila.new@example.com"
	if _, err := f.svc.UpdateProfile(ctx, f.admin, f.manager.ID, upd); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestRoleManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GrantManager(ctx, f.admin, f.user.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("admin granting roles: expected ErrForbidden, got %v", err)
	}
	u, err := f.svc.GrantManager(ctx, f.super, f.user.ID)
	if err != nil {
		t.Fatalf("GrantManager: %v", err)
	}
	if u.Role != auth.RoleManager {
		t.Fatalf("role = %s", u.Role)
	}
	managers, err := f.svc.Managers(ctx)
	if err != nil {
		t.Fatalf("Managers: %v", err)
	}
	if len(managers) != 2 {
		t.Fatalf("expected 2 managers, got %d", len(managers))
	}
	u, err = f.svc.RevokeAdmin(ctx, f.super, f.admin.ID)
	if err != nil {
		t.Fatalf("RevokeAdmin: %v", err)
	}
	if u.Role != auth.RoleUser {
		t.Fatalf("role after revoke = %s", u.Role)
	}
	if _, err := f.svc.GrantAdmin(ctx, f.super, f.super.ID); !errors.Is(err, portal.ErrInvalidInput) {
		t.Fatalf("self grant: expected ErrInvalidInput, got %v", err)
	}
}

func TestEventLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := portal.EventInput{Name: "Конференция", Content: "Описание", Date: "2026-11-20"}

	if _, err := f.svc.CreateEvent(ctx, f.user, in); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("user creating event: expected ErrForbidden, got %v", err)
	}
	ev, err := f.svc.CreateEvent(ctx, f.admin, in)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := f.svc.UpdateEvent(ctx, f.super, ev.ID, portal.EventInput{Name: "x", Content: "y"}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("superadmin editing event: expected ErrForbidden, got %v", err)
	}
	ev, err = f.svc.UpdateEvent(ctx, f.admin, ev.ID, portal.EventInput{Name: "Симпозиум", Content: "Новое"})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if ev.Name != "Симпозиум" || ev.Date != "2026-11-20" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if err := f.svc.DeleteEvent(ctx, f.user, ev.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("user deleting event: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteEvent(ctx, f.super, ev.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	events, err := f.svc.Events(ctx)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("deleted event still listed")
	}
	if _, err := f.svc.CreateApplication(ctx, f.user, portal.ApplicationInput{EventID: ev.ID, ApplicationName: "a", Content: "b"}); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("applying to a deleted event: expected ErrNotFound, got %v", err)
	}
}

func TestApplicationReviewNotifiesAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev, err := f.svc.CreateEvent(ctx, f.admin, portal.EventInput{Name: "Conf", Content: "c", Date: "2026-12-01"})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	app, err := f.svc.CreateApplication(ctx, f.user, portal.ApplicationInput{EventID: ev.ID, ApplicationName: "Доклад", Content: "Тезисы"})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if app.Status != portal.StatusUnreviewed || app.UserID != f.user.ID || app.EventName != "Conf" {
		t.Fatalf("unexpected application %+v", app)
	}

	if _, err := f.svc.UpdateApplicationStatus(ctx, f.user, app.ID, portal.StatusAccepted); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("user reviewing: expected ErrForbidden, got %v", err)
	}
	unchanged, err := f.svc.Application(ctx, app.ID)
	if err != nil {
		t.Fatalf("Application: %v", err)
	}
	if unchanged.Status != portal.StatusUnreviewed {
		t.Fatalf("denied update changed status to %s", unchanged.Status)
	}
	if _, err := f.svc.UpdateApplicationStatus(ctx, f.manager, app.ID, "maybe"); !errors.Is(err, portal.ErrInvalidInput) {
		t.Fatalf("unknown status: expected ErrInvalidInput, got %v", err)
	}

	updated, err := f.svc.UpdateApplicationStatus(ctx, f.manager, app.ID, "accepted")
	if err != nil {
		t.Fatalf("UpdateApplicationStatus: %v", err)
	}
	if updated.Status != portal.StatusAccepted {
		t.Fatalf("status = %s", updated.Status)
	}
	fresh, _ := f.svc.NewApplications(ctx)
	reviewed, _ := f.svc.ReviewedApplications(ctx)
	if len(fresh) != 0 || len(reviewed) != 1 {
		t.Fatalf("new=%d reviewed=%d", len(fresh), len(reviewed))
	}

	notes, err := f.svc.Notifications(ctx, f.user, f.user.ID)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].ApplicationName != "Доклад" {
		t.Fatalf("unexpected notifications %+v", notes)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != f.user.ID {
		t.Fatalf("notification not published: %+v", f.notifier.sent)
	}
}

func TestCommentCreatesNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev, _ := f.svc.CreateEvent(ctx, f.admin, portal.EventInput{Name: "Conf", Content: "c", Date: "2026-12-01"})
	app, err := f.svc.CreateApplication(ctx, f.user, portal.ApplicationInput{EventID: ev.ID, ApplicationName: "Доклад", Content: "Тезисы"})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	if _, err := f.svc.CreateComment(ctx, f.user, app.ID, "self praise"); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("user commenting: expected ErrForbidden, got %v", err)
	}
	c, err := f.svc.CreateComment(ctx, f.manager, app.ID, "Исправьте введение")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.ManagerName != "Mila" || c.ManagerSurname != "Manager" {
		t.Fatalf("comment author not taken from principal: %+v", c)
	}
	comments, err := f.svc.Comments(ctx, app.ID)
	if err != nil || len(comments) != 1 {
		t.Fatalf("Comments: %v %d", err, len(comments))
	}
	if _, err := f.svc.CreateComment(ctx, f.manager, "missing", "x"); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("comment on missing application: expected ErrNotFound, got %v", err)
	}
	notes, _ := f.svc.Notifications(ctx, f.user, f.user.ID)
	if len(notes) != 1 || notes[0].ApplicationID != app.ID {
		t.Fatalf("unexpected notifications %+v", notes)
	}
}

func TestNotificationDeactivateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev, _ := f.svc.CreateEvent(ctx, f.admin, portal.EventInput{Name: "Conf", Content: "c", Date: "2026-12-01"})
	app, _ := f.svc.CreateApplication(ctx, f.user, portal.ApplicationInput{EventID: ev.ID, ApplicationName: "A", Content: "B"})
	for _, text := range []string{"one", "two"} {
		if _, err := f.svc.CreateComment(ctx, f.manager, app.ID, text); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}
	notes, _ := f.svc.Notifications(ctx, f.user, f.user.ID)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notes))
	}

	if _, err := f.svc.Notifications(ctx, f.manager, f.user.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("reading foreign notifications: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeactivateNotification(ctx, f.manager, notes[0].ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("deactivating foreign notification: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeactivateNotification(ctx, f.user, notes[0].ID); err != nil {
		t.Fatalf("DeactivateNotification: %v", err)
	}
	left, _ := f.svc.Notifications(ctx, f.user, f.user.ID)
	if len(left) != 1 {
		t.Fatalf("expected 1 active notification, got %d", len(left))
	}
	// the deactivated row still exists until hard delete
	if _, err := f.store.NotificationByID(ctx, notes[0].ID); err != nil {
		t.Fatalf("soft-deactivated notification vanished: %v", err)
	}

	removed, err := f.svc.DeleteNotifications(ctx, f.admin, f.user.ID)
	if err != nil {
		t.Fatalf("DeleteNotifications: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed %d, want 2", removed)
	}
	if _, err := f.store.NotificationByID(ctx, notes[0].ID); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("hard delete kept the row: %v", err)
	}
}
