package migrate

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEmbeddedMigrationsHaveDownFiles(t *testing.T) {
	m := NewManager(nil)
	latest, err := m.latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != 1 {
		t.Fatalf("expected latest version 1, got %d", latest)
	}
	files, err := collectSQL(m.migrations)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	ups, downs := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups++
		case strings.HasSuffix(f, ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("unbalanced migrations: %d up, %d down (%v)", ups, downs, files)
	}
}

func TestEmbeddedSeedsAreListed(t *testing.T) {
	files, err := collectSQL(NewManager(nil).seeds)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(files) == 0 || files[0] != "0001_events.sql" {
		t.Fatalf("unexpected seeds: %v", files)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("insert into t values ('a;b');\ninsert into t values ('c');\n  ")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "insert into t values ('a;b');" {
		t.Fatalf("quoted semicolon split: %q", stmts[0])
	}
}

func TestSeedSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	seeds := fstest.MapFS{
		"0001_a.sql": {Data: []byte("insert into a values (1);")},
		"0002_b.sql": {Data: []byte("insert into b values (1); insert into b values (2);")},
		"README.md":  {Data: []byte("ignored")},
	}
	m := NewManager(db, WithSeeds(seeds))

	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_seeds").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_a.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("insert into b values \\(1\\)").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into b values \\(2\\)").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into schema_seeds").
		WithArgs("0002_b.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := m.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSeedRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	seeds := fstest.MapFS{"0001_a.sql": {Data: []byte("insert into a values (1);")}}
	m := NewManager(db, WithSeeds(seeds), WithSeedsTable("demo_seeds"))

	mock.ExpectExec("create table if not exists demo_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from demo_seeds").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("insert into a").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := m.Seed(context.Background()); err == nil {
		t.Fatal("expected seed error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
