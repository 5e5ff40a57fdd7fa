package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"confportal.org/internal/audit"
	"confportal.org/internal/auth"
	"confportal.org/internal/portal"
)

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Roles       string    `json:"roles"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	UserID      string    `json:"user_id"`
}

// handleLogin implements the OAuth2 password form: username is the email.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: %v", portal.ErrInvalidInput, err))
		return
	}
	username := r.PostForm.Get("username")
	res, err := a.gate.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{"email": auth.NormalizeEmail(username)})
		}
		writeServiceError(w, r, err)
		return
	}

	ctx := auth.ContextWithPrincipal(r.Context(), res.Principal)
	_ = audit.LogEvent(ctx, "auth.token.issued", map[string]any{
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
	})

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt,
		Roles:       string(res.Principal.Role),
		Name:        res.Principal.Name,
		Surname:     res.Principal.Surname,
		UserID:      res.Principal.ID,
	})
}
