package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"confportal.org/internal/article"
	"confportal.org/internal/auth"
	"confportal.org/internal/ids"
	"confportal.org/internal/obs"
	"confportal.org/internal/portal"
	"confportal.org/internal/render"
)

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", portal.ErrInvalidInput)
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return fmt.Errorf("%w: %v", portal.ErrInvalidInput, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON body", portal.ErrInvalidInput)
	}
	return nil
}

// queryID reads a UUID query parameter.
func queryID(r *http.Request, name string) (string, error) {
	return parseID(name, r.URL.Query().Get(name))
}

func parseID(name, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: %s is required", portal.ErrInvalidInput, name)
	}
	id, ok := ids.ParseEntityID(raw)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a UUID", portal.ErrInvalidInput, name)
	}
	return id, nil
}

// writeServiceError maps service errors onto HTTP statuses. Server-side failures
// are logged with the request id and reported without internals.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, portal.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "not enough privileges")
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "incorrect username or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "could not validate credentials")
	case errors.Is(err, portal.ErrIntegrity):
		logFailure(r, err)
		writeError(w, r, http.StatusServiceUnavailable, "database error: "+integrityReason(err))
	case errors.Is(err, render.ErrRenderFailure):
		logFailure(r, err)
		writeError(w, r, http.StatusBadGateway, "document rendering failed")
	case errors.Is(err, portal.ErrInvalidInput):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, article.ErrPersistFailure):
		logFailure(r, err)
		writeError(w, r, http.StatusInternalServerError, "could not store the article")
	default:
		logFailure(r, err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func integrityReason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, portal.ErrIntegrity.Error()); i >= 0 {
		return strings.TrimPrefix(msg[i+len(portal.ErrIntegrity.Error()):], ": ")
	}
	return "integrity violation"
}

func logFailure(r *http.Request, err error) {
	obs.Logger().ErrorContext(r.Context(), "request_failed",
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}
