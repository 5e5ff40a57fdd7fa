// Package migrate applies the embedded schema migrations and demo seed data.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"confportal.org/internal/obs"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

//go:embed seeds/*.sql
var seedsFS embed.FS

const (
	defaultMigrationsTable = "schema_migrations"
	defaultSeedsTable      = "schema_seeds"
)

// Manager runs golang-migrate over the embedded migrations and keeps its own
// bookkeeping table for seeds, which are applied at most once each.
type Manager struct {
	db              *sql.DB
	migrations      fs.FS
	seeds           fs.FS
	migrationsTable string
	seedsTable      string
}

// Option configures Manager.
type Option func(*Manager)

// WithMigrationsTable overrides the default migrations bookkeeping table.
func WithMigrationsTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.migrationsTable = name
		}
	}
}

// WithSeedsTable overrides the default seeds bookkeeping table.
func WithSeedsTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.seedsTable = name
		}
	}
}

// WithSeeds replaces the embedded seed files. fsys must hold *.sql files at its root.
func WithSeeds(fsys fs.FS) Option {
	return func(m *Manager) {
		if fsys != nil {
			m.seeds = fsys
		}
	}
}

func NewManager(db *sql.DB, opts ...Option) *Manager {
	migrations, _ := fs.Sub(migrationsFS, "sql")
	seeds, _ := fs.Sub(seedsFS, "seeds")
	m := &Manager{
		db:              db,
		migrations:      migrations,
		seeds:           seeds,
		migrationsTable: defaultMigrationsTable,
		seedsTable:      defaultSeedsTable,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status describes the schema version and applied seeds.
type Status struct {
	Version uint
	Latest  uint
	Dirty   bool
	Seeds   []string
}

// Up applies all pending migrations.
func (m *Manager) Up(ctx context.Context) error {
	return m.run(ctx, func(mg *migrate.Migrate) error {
		if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	})
}

// Down rolls back the most recent applied migration.
func (m *Manager) Down(ctx context.Context) error {
	return m.run(ctx, func(mg *migrate.Migrate) error {
		if _, _, err := mg.Version(); errors.Is(err, migrate.ErrNilVersion) {
			return errors.New("no migrations applied")
		}
		return mg.Steps(-1)
	})
}

// Force marks version as applied and clears the dirty flag after a failed run.
func (m *Manager) Force(ctx context.Context, version int) error {
	return m.run(ctx, func(mg *migrate.Migrate) error {
		return mg.Force(version)
	})
}

// Status reports the current and latest schema versions and the applied seeds.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	var st Status
	err := m.run(ctx, func(mg *migrate.Migrate) error {
		v, dirty, err := mg.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return err
		}
		st.Version, st.Dirty = v, dirty
		return nil
	})
	if err != nil {
		return Status{}, err
	}
	if st.Latest, err = m.latest(); err != nil {
		return Status{}, err
	}
	if err := m.ensureSeedsTable(ctx); err != nil {
		return Status{}, err
	}
	st.Seeds, err = m.history(ctx)
	if err != nil {
		return Status{}, err
	}
	return st, nil
}

// Seed applies seed files idempotently, each in its own transaction together
// with its bookkeeping row.
func (m *Manager) Seed(ctx context.Context) error {
	if err := m.ensureSeedsTable(ctx); err != nil {
		return err
	}
	executed, err := m.listExecuted(ctx)
	if err != nil {
		return err
	}
	files, err := collectSQL(m.seeds)
	if err != nil {
		return err
	}
	for _, name := range files {
		if executed[name] {
			continue
		}
		if err := m.apply(ctx, name); err != nil {
			return fmt.Errorf("apply seed %s: %w", name, err)
		}
		obs.Logger().Info("seed_applied", "name", name)
	}
	return nil
}

func (m *Manager) run(ctx context.Context, fn func(*migrate.Migrate) error) error {
	src, err := iofs.New(m.migrations, ".")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	conn, err := m.db.Conn(ctx)
	if err != nil {
		_ = src.Close()
		return err
	}
	drv, err := pgxmigrate.WithConnection(ctx, conn, &pgxmigrate.Config{MigrationsTable: m.migrationsTable})
	if err != nil {
		_ = src.Close()
		_ = conn.Close()
		return fmt.Errorf("migrations driver: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", src, "pgx5", drv)
	if err != nil {
		_ = src.Close()
		_ = drv.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	defer mg.Close()
	mg.Log = migrateLogger{}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			mg.GracefulStop <- true
		case <-done:
		}
	}()
	return fn(mg)
}

func (m *Manager) latest() (uint, error) {
	src, err := iofs.New(m.migrations, ".")
	if err != nil {
		return 0, err
	}
	defer src.Close()
	v, err := src.First()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, err
		}
		v = next
	}
}

func (m *Manager) ensureSeedsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`
		create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		)`, m.seedsTable))
	return err
}

func (m *Manager) apply(ctx context.Context, name string) error {
	body, err := fs.ReadFile(m.seeds, name)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(body)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, m.seedsTable),
		name, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Manager) listExecuted(ctx context.Context) (map[string]bool, error) {
	names, err := m.history(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(names))
	for _, name := range names {
		result[name] = true
	}
	return result, nil
}

func (m *Manager) history(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s order by applied_at asc, name asc`, m.seedsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

func collectSQL(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements splits SQL on semicolons outside single-quoted literals.
func splitStatements(sql string) []string {
	var stmts []string
	var current strings.Builder
	var inString bool
	for _, r := range sql {
		current.WriteRune(r)
		switch r {
		case '\'':
			inString = !inString
		case ';':
			if !inString {
				stmts = append(stmts, current.String())
				current.Reset()
			}
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		stmts = append(stmts, current.String())
	}
	return stmts
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	obs.Logger().Info("migrate", "message", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (migrateLogger) Verbose() bool { return false }
