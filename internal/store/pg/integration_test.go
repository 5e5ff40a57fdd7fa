package pg_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"confportal.org/internal/article"
	"confportal.org/internal/auth"
	"confportal.org/internal/migrate"
	"confportal.org/internal/portal"
	"confportal.org/internal/render"
	"confportal.org/internal/store/pg"
)

func setupStore(t *testing.T) *pg.Store {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("integration test skipped: TEST_INTEGRATION is not set")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("portal_test"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	store, err := pg.Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mgr := migrate.NewManager(store.DB())
	if err := mgr.Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if err := mgr.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st, err := mgr.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Version != st.Latest || st.Dirty || len(st.Seeds) == 0 {
		t.Fatalf("unexpected migration status: %+v", st)
	}
	return store
}

type pdfRenderer struct{}

func (pdfRenderer) Render(_ context.Context, doc render.Document) ([]byte, error) {
	return []byte("%PDF-1.4\n" + doc.Title), nil
}

func TestPortalFlowOnPostgres(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	svc := portal.NewService(store)

	admin, err := svc.CreateSuperAdmin(ctx, portal.NewUser{Name: "Админ", Surname: "Главный", Email: "root@example.com", Age: 40, Password: "s3cret"})
	if err != nil {
		t.Fatalf("superadmin: %v", err)
	}
	user, err := svc.Register(ctx, portal.NewUser{Name: "Анна", Surname: "Петрова", Email: "Anna@Example.com", Age: 25, Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, portal.NewUser{Name: "Анна", Surname: "Петрова", Email: "anna@example.com", Age: 25, Password: "pw"}); !errors.Is(err, portal.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity on duplicate email, got %v", err)
	}

	cred, err := store.CredentialByEmail(ctx, "anna@example.com")
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if err := auth.VerifyPassword(cred.PasswordHash, "pw"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	events, err := svc.Events(ctx)
	if err != nil || len(events) == 0 {
		t.Fatalf("seeded events missing: %v %d", err, len(events))
	}
	app, err := svc.CreateApplication(ctx, user.Principal(), portal.ApplicationInput{EventID: events[0].ID, ApplicationName: "Доклад", Content: "Тезисы"})
	if err != nil {
		t.Fatalf("application: %v", err)
	}
	mgr, err := svc.GrantManager(ctx, admin.Principal(), user.ID)
	if err != nil || mgr.Role != auth.RoleManager {
		t.Fatalf("grant manager: %v %s", err, mgr.Role)
	}
	if _, err := svc.RevokeAdmin(ctx, admin.Principal(), user.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	reviewer, err := svc.CreateManager(ctx, admin.Principal(), portal.NewUser{Name: "Олег", Surname: "Смирнов", Email: "oleg@example.com", Age: 35, Password: "pw"})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if _, err := svc.UpdateApplicationStatus(ctx, reviewer.Principal(), app.ID, portal.StatusAccepted); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := svc.CreateComment(ctx, reviewer.Principal(), app.ID, "Отлично"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	notes, err := svc.Notifications(ctx, user.Principal(), user.ID)
	if err != nil || len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d (%v)", len(notes), err)
	}
	if err := svc.DeactivateNotification(ctx, user.Principal(), notes[0].ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n, err := svc.DeleteNotifications(ctx, user.Principal(), user.ID); err != nil || n != 2 {
		t.Fatalf("delete notifications: %d %v", n, err)
	}

	if err := svc.DeleteUser(ctx, admin.Principal(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteUser(ctx, admin.Principal(), user.ID); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestArticleDocumentRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	author, err := portal.NewService(store).Register(ctx, portal.NewUser{Name: "Анна", Surname: "Петрова", Email: "anna@example.com", Age: 25, Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	svc := article.NewService(store, pdfRenderer{})
	fields := article.Fields{}
	for _, nf := range fields.Named() {
		*nf.Value = "значение " + nf.Name
	}

	sub, err := svc.Submit(ctx, author.ID, fields)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	doc, err := svc.Document(ctx, sub.ID)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if string(doc) != "%PDF-1.4\nзначение article_name" {
		t.Fatalf("unexpected document %q", doc)
	}
	got, err := svc.Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Fields.ListOfSources != "значение list_of_sources" || len(got.Document) != 0 {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	list, err := svc.ByAuthor(ctx, author.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("by author: %d %v", len(list), err)
	}

	if _, err := svc.Submit(ctx, "0b6b1c8e-5d7f-4a51-9a2e-999999999999", fields); !errors.Is(err, portal.ErrIntegrity) {
		t.Fatalf("expected integrity failure for unknown author, got %v", err)
	}
}
