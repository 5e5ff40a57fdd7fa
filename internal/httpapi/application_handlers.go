package httpapi

import (
	"net/http"
	"time"

	"confportal.org/internal/audit"
	"confportal.org/internal/portal"
)

// createApplicationRequest accepts user_id and event_name for older clients;
// both are derived from the caller and the event instead.
type createApplicationRequest struct {
	EventID         string `json:"event_id"`
	UserID          string `json:"user_id,omitempty"`
	EventName       string `json:"event_name,omitempty"`
	ApplicationName string `json:"application_name"`
	Content         string `json:"content"`
}

type updateApplicationRequest struct {
	Status string `json:"status"`
}

// createCommentRequest ignores the manager fields; the caller is the manager.
type createCommentRequest struct {
	ApplicationID  string `json:"application_id"`
	ManagerID      string `json:"manager_id,omitempty"`
	ManagerName    string `json:"manager_name,omitempty"`
	ManagerSurname string `json:"manager_surname,omitempty"`
	Content        string `json:"content"`
}

type showApplication struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	EventName       string    `json:"event_name"`
	ApplicationName string    `json:"application_name"`
	Content         string    `json:"content"`
	Date            time.Time `json:"date"`
	Status          string    `json:"status"`
}

type showComment struct {
	ID             string    `json:"id"`
	ApplicationID  string    `json:"application_id"`
	ManagerID      string    `json:"manager_id"`
	ManagerName    string    `json:"manager_name"`
	ManagerSurname string    `json:"manager_surname"`
	Content        string    `json:"content"`
	Date           time.Time `json:"date"`
}

func toShowApplication(app portal.Application) showApplication {
	return showApplication{
		ID:              app.ID,
		EventID:         app.EventID,
		UserID:          app.UserID,
		EventName:       app.EventName,
		ApplicationName: app.ApplicationName,
		Content:         app.Content,
		Date:            app.CreatedAt,
		Status:          string(app.Status),
	}
}

func toShowComment(c portal.Comment) showComment {
	return showComment{
		ID:             c.ID,
		ApplicationID:  c.ApplicationID,
		ManagerID:      c.ManagerID,
		ManagerName:    c.ManagerName,
		ManagerSurname: c.ManagerSurname,
		Content:        c.Content,
		Date:           c.CreatedAt,
	}
}

func writeApplications(w http.ResponseWriter, r *http.Request, apps []portal.Application, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]showApplication, 0, len(apps))
	for _, app := range apps {
		out = append(out, toShowApplication(app))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	eventID, err := parseID("event_id", req.EventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	app, err := a.portal.CreateApplication(r.Context(), principal(r), portal.ApplicationInput{
		EventID:         eventID,
		ApplicationName: req.ApplicationName,
		Content:         req.Content,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "application.created", map[string]any{"application_id": app.ID, "event_id": app.EventID})
	writeJSON(w, http.StatusOK, toShowApplication(app))
}

func (a *API) handleApplicationsByUser(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apps, err := a.portal.ApplicationsByUser(r.Context(), id)
	writeApplications(w, r, apps, err)
}

func (a *API) handleApplication(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "application_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	app, err := a.portal.Application(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShowApplication(app))
}

func (a *API) handleNewApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := a.portal.NewApplications(r.Context())
	writeApplications(w, r, apps, err)
}

func (a *API) handleReviewedApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := a.portal.ReviewedApplications(r.Context())
	writeApplications(w, r, apps, err)
}

func (a *API) handleEditApplication(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req updateApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	app, err := a.portal.UpdateApplicationStatus(r.Context(), principal(r), id, portal.ApplicationStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "application.status.changed", map[string]any{
		"application_id": app.ID,
		"status":         string(app.Status),
	})
	writeJSON(w, http.StatusOK, toShowApplication(app))
}

func (a *API) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	appID, err := parseID("application_id", req.ApplicationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := a.portal.CreateComment(r.Context(), principal(r), appID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "comment.created", map[string]any{"application_id": appID, "comment_id": c.ID})
	writeJSON(w, http.StatusOK, toShowComment(c))
}

func (a *API) handleComments(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "application_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	comments, err := a.portal.Comments(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]showComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, toShowComment(c))
	}
	writeJSON(w, http.StatusOK, out)
}
