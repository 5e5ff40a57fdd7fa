package httpapi

import (
	"context"
	"net/http"
	"time"

	"confportal.org/internal/audit"
	"confportal.org/internal/auth"
	"confportal.org/internal/portal"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Age      int    `json:"age"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

type showUser struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Age       int       `json:"age"`
	Email     string    `json:"email"`
	Roles     string    `json:"roles"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toShowUser(u portal.User) showUser {
	return showUser{
		UserID:    u.ID,
		Name:      u.Name,
		Surname:   u.Surname,
		Age:       u.Age,
		Email:     u.Email,
		Roles:     string(u.Role),
		IsActive:  u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func (req createUserRequest) newUser() portal.NewUser {
	return portal.NewUser{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Age:      req.Age,
		Password: req.Password,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := a.portal.Register(r.Context(), req.newUser())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.registered", map[string]any{"user_id": u.ID})
	writeJSON(w, http.StatusOK, toShowUser(u))
}

func (a *API) handleCreateManager(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := a.portal.CreateManager(r.Context(), principal(r), req.newUser())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.manager.created", map[string]any{"target_user_id": u.ID})
	writeJSON(w, http.StatusOK, toShowUser(u))
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := a.portal.User(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShowUser(u))
}

func (a *API) handleManagers(w http.ResponseWriter, r *http.Request) {
	users, err := a.portal.Managers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]showUser, 0, len(users))
	for _, u := range users {
		out = append(out, toShowUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleEditUser(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := a.portal.UpdateProfile(r.Context(), principal(r), id, portal.ProfileUpdate{
		Name:    req.Name,
		Surname: req.Surname,
		Email:   req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{"target_user_id": u.ID})
	writeJSON(w, http.StatusOK, map[string]any{"updated_user_id": u.ID})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.portal.DeleteUser(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{"target_user_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted_user_id": id})
}

type roleChange func(ctx context.Context, actor auth.Principal, id string) (portal.User, error)

// handleRoleChange serves grant_admin, revoke_admin and grant_manager.
func (a *API) handleRoleChange(change roleChange) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := queryID(r, "user_id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		u, err := change(r.Context(), principal(r), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.role.changed", map[string]any{
			"target_user_id": u.ID,
			"new_role":       string(u.Role),
		})
		writeJSON(w, http.StatusOK, map[string]any{"updated_user_id": u.ID})
	}
}
