package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"confportal.org/internal/auth"
	"confportal.org/internal/portal"
)

const userColumns = `user_id, name, surname, email, age, roles, is_active, created_at`

func scanUser(row scanner) (portal.User, error) {
	var u portal.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Age, &role, &u.Active, &u.CreatedAt); err != nil {
		return portal.User{}, err
	}
	u.Role = auth.Role(role)
	return u, nil
}

func (s *Store) CredentialByEmail(ctx context.Context, email string) (auth.Credential, error) {
	var c auth.Credential
	var role string
	err := s.db.QueryRowContext(ctx, `
		select user_id, name, surname, email, roles, is_active, hashed_password
		from users
		where email = $1
	`, auth.NormalizeEmail(email)).Scan(&c.ID, &c.Name, &c.Surname, &c.Email, &role, &c.Active, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Credential{}, fmt.Errorf("%w: %s", auth.ErrCredentialNotFound, email)
	}
	if err != nil {
		return auth.Credential{}, fmt.Errorf("pg: credential: %w", err)
	}
	c.Role = auth.Role(role)
	return c, nil
}

func (s *Store) CreateUser(ctx context.Context, u portal.User, passwordHash string) (portal.User, error) {
	u.Email = auth.NormalizeEmail(u.Email)
	_, err := s.db.ExecContext(ctx, `
		insert into users(user_id, name, surname, email, age, roles, is_active, hashed_password, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, u.ID, u.Name, u.Surname, u.Email, u.Age, string(u.Role), u.Active, passwordHash, u.CreatedAt)
	if err != nil {
		return portal.User{}, mapErr(err, "user "+u.ID)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (portal.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where user_id = $1`, id))
	if err != nil {
		return portal.User{}, mapErr(err, "user "+id)
	}
	return u, nil
}

func (s *Store) ActiveManagers(ctx context.Context) ([]portal.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+`
		from users
		where roles = $1 and is_active
		order by created_at, user_id
	`, string(auth.RoleManager))
	if err != nil {
		return nil, mapErr(err, "managers")
	}
	defer rows.Close()

	out := []portal.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd portal.ProfileUpdate) (portal.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		update users set name = $2, surname = $3, email = $4
		where user_id = $1 and is_active
		returning `+userColumns,
		id, upd.Name, upd.Surname, auth.NormalizeEmail(upd.Email)))
	if err != nil {
		return portal.User{}, mapErr(err, "user "+id)
	}
	return u, nil
}

func (s *Store) DeactivateUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update users set is_active = false where user_id = $1 and is_active`, id)
	if err != nil {
		return mapErr(err, "user "+id)
	}
	return expectOne(res, "user "+id)
}

func (s *Store) SetRole(ctx context.Context, id string, role auth.Role) (portal.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		update users set roles = $2
		where user_id = $1 and is_active
		returning `+userColumns,
		id, string(role)))
	if err != nil {
		return portal.User{}, mapErr(err, "user "+id)
	}
	return u, nil
}
