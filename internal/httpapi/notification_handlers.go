package httpapi

import (
	"net/http"
	"time"

	"confportal.org/internal/audit"
	"confportal.org/internal/portal"
)

type showNotification struct {
	ID              string    `json:"id"`
	ApplicationID   string    `json:"application_id"`
	ApplicationName string    `json:"application_name"`
	UserID          string    `json:"user_id"`
	Status          bool      `json:"status"`
	Date            time.Time `json:"date"`
}

func toShowNotification(n portal.Notification) showNotification {
	return showNotification{
		ID:              n.ID,
		ApplicationID:   n.ApplicationID,
		ApplicationName: n.ApplicationName,
		UserID:          n.UserID,
		Status:          n.Active,
		Date:            n.CreatedAt,
	}
}

func (a *API) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	notes, err := a.portal.Notifications(r.Context(), principal(r), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]showNotification, 0, len(notes))
	for _, n := range notes {
		out = append(out, toShowNotification(n))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeactivateNotification marks one notification as read.
func (a *API) handleDeactivateNotification(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.portal.DeactivateNotification(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated_notification_id": id})
}

// handleDeleteNotifications removes every notification of a user.
func (a *API) handleDeleteNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	n, err := a.portal.DeleteNotifications(r.Context(), principal(r), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "notifications.deleted", map[string]any{"target_user_id": userID, "count": n})
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "deleted": n})
}
