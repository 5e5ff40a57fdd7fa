package pg

import (
	"context"
	"database/sql"

	"confportal.org/internal/portal"
)

const applicationColumns = `id, event_id, user_id, event_name, application_name, content, status, created_at`

func scanApplication(row scanner) (portal.Application, error) {
	var a portal.Application
	var status string
	if err := row.Scan(&a.ID, &a.EventID, &a.UserID, &a.EventName, &a.ApplicationName, &a.Content, &status, &a.CreatedAt); err != nil {
		return portal.Application{}, err
	}
	a.Status = portal.ApplicationStatus(status)
	return a, nil
}

func (s *Store) listApplications(ctx context.Context, query string, args ...any) ([]portal.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "applications")
	}
	defer rows.Close()

	out := []portal.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateApplication(ctx context.Context, a portal.Application) (portal.Application, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into applications(id, event_id, user_id, event_name, application_name, content, status, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ID, a.EventID, a.UserID, a.EventName, a.ApplicationName, a.Content, string(a.Status), a.CreatedAt)
	if err != nil {
		return portal.Application{}, mapErr(err, "application "+a.ID)
	}
	return a, nil
}

func (s *Store) ApplicationsByUser(ctx context.Context, userID string) ([]portal.Application, error) {
	return s.listApplications(ctx, `
		select `+applicationColumns+`
		from applications
		where user_id = $1
		order by created_at, id
	`, userID)
}

func (s *Store) ApplicationByID(ctx context.Context, id string) (portal.Application, error) {
	a, err := scanApplication(s.db.QueryRowContext(ctx, `select `+applicationColumns+` from applications where id = $1`, id))
	if err != nil {
		return portal.Application{}, mapErr(err, "application "+id)
	}
	return a, nil
}

func (s *Store) ApplicationsByStatus(ctx context.Context, status portal.ApplicationStatus, exclude bool) ([]portal.Application, error) {
	op := "="
	if exclude {
		op = "<>"
	}
	return s.listApplications(ctx, `
		select `+applicationColumns+`
		from applications
		where status `+op+` $1
		order by created_at, id
	`, string(status))
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, status portal.ApplicationStatus, n portal.Notification) (portal.Application, portal.Notification, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portal.Application{}, portal.Notification{}, err
	}
	defer func() { _ = tx.Rollback() }()

	a, err := scanApplication(tx.QueryRowContext(ctx, `
		update applications set status = $2
		where id = $1
		returning `+applicationColumns,
		id, string(status)))
	if err != nil {
		return portal.Application{}, portal.Notification{}, mapErr(err, "application "+id)
	}
	n, err = insertNotification(ctx, tx, n, a.ID, a.ApplicationName, a.UserID)
	if err != nil {
		return portal.Application{}, portal.Notification{}, err
	}
	if err := tx.Commit(); err != nil {
		return portal.Application{}, portal.Notification{}, err
	}
	return a, n, nil
}

func insertNotification(ctx context.Context, tx *sql.Tx, n portal.Notification, applicationID, applicationName, userID string) (portal.Notification, error) {
	n.ApplicationID = applicationID
	n.ApplicationName = applicationName
	n.UserID = userID
	_, err := tx.ExecContext(ctx, `
		insert into notifications(id, application_id, application_name, user_id, is_active, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, n.ID, n.ApplicationID, n.ApplicationName, n.UserID, n.Active, n.CreatedAt)
	if err != nil {
		return portal.Notification{}, mapErr(err, "notification "+n.ID)
	}
	return n, nil
}
