package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"confportal.org/internal/article"
	"confportal.org/internal/auth"
	"confportal.org/internal/obs"
	"confportal.org/internal/portal"
	"confportal.org/internal/stream"
)

const serviceName = "confportal-api"

type readinessChecker interface {
	Check(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe reports readiness of the backing store.
type ReadyProbe struct {
	Store pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	return rp.Store.Ping(ctx)
}

// Deps are the services exposed over HTTP.
type Deps struct {
	Gate     *auth.Gate
	Portal   *portal.Service
	Articles *article.Service
	Stream   *stream.Hub
	Ready    readinessChecker
}

// API is the HTTP layer.
type API struct {
	gate     *auth.Gate
	portal   *portal.Service
	articles *article.Service
	stream   *stream.Hub
	ready    readinessChecker
	version  string

	maxUpload   int64
	rateBurst   int
	ratePerSec  int
	corsOrigins []string
	trusted     []netip.Prefix
}

// Option tunes limits of the API.
type Option func(*API)

// WithUploadLimit caps multipart article uploads.
func WithUploadLimit(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxUpload = n
		}
	}
}

// WithLoginRateLimit sets the per-IP token bucket of the login endpoint.
func WithLoginRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst, a.ratePerSec = burst, perSecond
		}
	}
}

// WithTrustedProxies lists the reverse proxies whose X-Forwarded-For is believed
// when keying the login rate limit.
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(a *API) { a.trusted = prefixes }
}

// WithCORSOrigins lists allowed browser origins; "*" allows any.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

func New(d Deps, version string, opts ...Option) *API {
	a := &API{
		gate:       d.Gate,
		portal:     d.Portal,
		articles:   d.Articles,
		stream:     d.Stream,
		ready:      d.Ready,
		version:    version,
		maxUpload:  20 << 20,
		rateBurst:  10,
		ratePerSec: 1,
	}
	if a.ready == nil {
		a.ready = ReadyProbe{}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler builds the router with the full middleware chain.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(SecurityHeaders)
	r.Use(CORS(a.corsOrigins))
	r.Use(func(next http.Handler) http.Handler {
		return MaxBodyBytes(next, a.maxUpload+1<<20)
	})
	r.Use(obs.Instrument)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Handle("/metrics", obs.Handler())

	loginLimit := func(next http.Handler) http.Handler {
		return RateLimit(next, a.rateBurst, a.ratePerSec, a.trusted...)
	}
	r.With(loginLimit).Post("/login/token", a.handleLogin)

	r.Route("/user", func(r chi.Router) {
		r.Post("/create", a.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)

			r.Post("/create_manager", a.handleCreateManager)
			r.Get("/this", a.handleGetUser)
			r.Get("/all", a.handleManagers)
			r.Patch("/edit", a.handleEditUser)
			r.Delete("/delete", a.handleDeleteUser)
			r.Patch("/grant_admin", a.handleRoleChange(a.portal.GrantAdmin))
			r.Patch("/revoke_admin", a.handleRoleChange(a.portal.RevokeAdmin))
			r.Patch("/grant_manager", a.handleRoleChange(a.portal.GrantManager))

			r.Post("/create_event", a.handleCreateEvent)
			r.Get("/all_events", a.handleEvents)
			r.Patch("/edit_event", a.handleEditEvent)
			r.Delete("/delete_event", a.handleDeleteEvent)

			r.Post("/create_application", a.handleCreateApplication)
			r.Get("/this_application", a.handleApplicationsByUser)
			r.Get("/this_application_by_id", a.handleApplication)
			r.Get("/this_new_application", a.handleNewApplications)
			r.Get("/this_old_application", a.handleReviewedApplications)
			r.Patch("/edit_application", a.handleEditApplication)

			r.Post("/create_comment", a.handleCreateComment)
			r.Get("/this_comment", a.handleComments)

			r.Get("/this_notification", a.handleNotifications)
			r.Patch("/edit_notifications", a.handleDeactivateNotification)
			r.Delete("/delete_notifications", a.handleDeleteNotifications)
			r.Get("/notifications/stream", a.Stream)

			r.Post("/create_article", a.handleCreateArticle)
			r.Get("/file/download", a.handleDownloadArticle)
			r.Get("/this_articles", a.handleArticles)
			r.Get("/this_article_by_id", a.handleArticlesByAuthor)
			r.Get("/this_article_by_article_id", a.handleArticle)
		})
	})
	return r
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
