package pg

import (
	"context"

	"confportal.org/internal/portal"
)

func (s *Store) CreateComment(ctx context.Context, c portal.Comment, n portal.Notification) (portal.Comment, portal.Notification, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portal.Comment{}, portal.Notification{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var authorID, applicationName string
	err = tx.QueryRowContext(ctx, `
		select user_id, application_name from applications where id = $1 for share
	`, c.ApplicationID).Scan(&authorID, &applicationName)
	if err != nil {
		return portal.Comment{}, portal.Notification{}, mapErr(err, "application "+c.ApplicationID)
	}
	if _, err := tx.ExecContext(ctx, `
		insert into comments(id, application_id, manager_id, manager_name, manager_surname, content, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, c.ID, c.ApplicationID, c.ManagerID, c.ManagerName, c.ManagerSurname, c.Content, c.CreatedAt); err != nil {
		return portal.Comment{}, portal.Notification{}, mapErr(err, "comment "+c.ID)
	}
	n, err = insertNotification(ctx, tx, n, c.ApplicationID, applicationName, authorID)
	if err != nil {
		return portal.Comment{}, portal.Notification{}, err
	}
	if err := tx.Commit(); err != nil {
		return portal.Comment{}, portal.Notification{}, err
	}
	return c, n, nil
}

func (s *Store) CommentsByApplication(ctx context.Context, applicationID string) ([]portal.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, application_id, manager_id, manager_name, manager_surname, content, created_at
		from comments
		where application_id = $1
		order by created_at, id
	`, applicationID)
	if err != nil {
		return nil, mapErr(err, "comments")
	}
	defer rows.Close()

	out := []portal.Comment{}
	for rows.Next() {
		var c portal.Comment
		if err := rows.Scan(&c.ID, &c.ApplicationID, &c.ManagerID, &c.ManagerName, &c.ManagerSurname, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
