package httpapi

import (
	"net/http"

	"confportal.org/internal/audit"
	"confportal.org/internal/portal"
)

type createEventRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

type updateEventRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type showEvent struct {
	EventID  string `json:"event_id"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	IsActive bool   `json:"is_active"`
}

func toShowEvent(e portal.Event) showEvent {
	return showEvent{EventID: e.ID, Name: e.Name, Content: e.Content, Date: e.Date, IsActive: e.Active}
}

func (a *API) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	e, err := a.portal.CreateEvent(r.Context(), principal(r), portal.EventInput{
		Name:    req.Name,
		Content: req.Content,
		Date:    req.Date,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "event.created", map[string]any{"event_id": e.ID})
	writeJSON(w, http.StatusOK, toShowEvent(e))
}

func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.portal.Events(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]showEvent, 0, len(events))
	for _, e := range events {
		out = append(out, toShowEvent(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "event_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	e, err := a.portal.UpdateEvent(r.Context(), principal(r), id, portal.EventInput{Name: req.Name, Content: req.Content})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "event.updated", map[string]any{"event_id": e.ID})
	writeJSON(w, http.StatusOK, map[string]any{"updated_event_id": e.ID})
}

func (a *API) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "event_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.portal.DeleteEvent(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "event.deleted", map[string]any{"event_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted_event_id": id})
}
