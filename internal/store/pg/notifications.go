package pg

import (
	"context"

	"confportal.org/internal/portal"
)

const notificationColumns = `id, application_id, application_name, user_id, is_active, created_at`

func scanNotification(row scanner) (portal.Notification, error) {
	var n portal.Notification
	err := row.Scan(&n.ID, &n.ApplicationID, &n.ApplicationName, &n.UserID, &n.Active, &n.CreatedAt)
	return n, err
}

func (s *Store) ActiveNotifications(ctx context.Context, userID string) ([]portal.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+notificationColumns+`
		from notifications
		where user_id = $1 and is_active
		order by created_at, id
	`, userID)
	if err != nil {
		return nil, mapErr(err, "notifications")
	}
	defer rows.Close()

	out := []portal.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) NotificationByID(ctx context.Context, id string) (portal.Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx, `select `+notificationColumns+` from notifications where id = $1`, id))
	if err != nil {
		return portal.Notification{}, mapErr(err, "notification "+id)
	}
	return n, nil
}

// DeactivateNotification keeps the row and flips is_active.
func (s *Store) DeactivateNotification(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update notifications set is_active = false where id = $1`, id)
	if err != nil {
		return mapErr(err, "notification "+id)
	}
	return expectOne(res, "notification "+id)
}

// DeleteNotifications removes the rows of userID.
func (s *Store) DeleteNotifications(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from notifications where user_id = $1`, userID)
	if err != nil {
		return 0, mapErr(err, "notifications")
	}
	return res.RowsAffected()
}
