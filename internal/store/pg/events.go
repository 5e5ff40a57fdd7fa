package pg

import (
	"context"

	"confportal.org/internal/portal"
)

const eventColumns = `event_id, name, content, date, is_active`

func scanEvent(row scanner) (portal.Event, error) {
	var e portal.Event
	err := row.Scan(&e.ID, &e.Name, &e.Content, &e.Date, &e.Active)
	return e, err
}

func (s *Store) CreateEvent(ctx context.Context, e portal.Event) (portal.Event, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into events(event_id, name, content, date, is_active)
		values ($1,$2,$3,$4,$5)
	`, e.ID, e.Name, e.Content, e.Date, e.Active)
	if err != nil {
		return portal.Event{}, mapErr(err, "event "+e.ID)
	}
	return e, nil
}

func (s *Store) ActiveEvents(ctx context.Context) ([]portal.Event, error) {
	rows, err := s.db.QueryContext(ctx, `select `+eventColumns+` from events where is_active order by date, event_id`)
	if err != nil {
		return nil, mapErr(err, "events")
	}
	defer rows.Close()

	out := []portal.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EventByID(ctx context.Context, id string) (portal.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `select `+eventColumns+` from events where event_id = $1`, id))
	if err != nil {
		return portal.Event{}, mapErr(err, "event "+id)
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, in portal.EventInput) (portal.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `
		update events set name = $2, content = $3
		where event_id = $1 and is_active
		returning `+eventColumns,
		id, in.Name, in.Content))
	if err != nil {
		return portal.Event{}, mapErr(err, "event "+id)
	}
	return e, nil
}

func (s *Store) DeactivateEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update events set is_active = false where event_id = $1 and is_active`, id)
	if err != nil {
		return mapErr(err, "event "+id)
	}
	return expectOne(res, "event "+id)
}
