// Package api exposes the HTTP interface for the user directory.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ravnco/userdemo/internal/config"
	"github.com/ravnco/userdemo/internal/directory"
	"github.com/ravnco/userdemo/internal/logging"
	"github.com/ravnco/userdemo/internal/store"
	"github.com/ravnco/userdemo/internal/usermetrics"
)

// Router handles HTTP routing.
type Router struct {
	mux       *http.ServeMux
	config    *config.Config
	store     *store.Store
	directory *directory.Cached
	metrics   *usermetrics.Service
	version   string
}

// NewRouter creates a new router instance.
func NewRouter(cfg *config.Config, s *store.Store, dir *directory.Cached, metrics *usermetrics.Service, version string) http.Handler {
	r := &Router{
		mux:       http.NewServeMux(),
		config:    cfg,
		store:     s,
		directory: dir,
		metrics:   metrics,
		version:   version,
	}

	r.setupRoutes()
	return r
}

// setupRoutes configures all routes.
func (r *Router) setupRoutes() {
	r.mux.HandleFunc("GET /api/health", r.handleHealth)
	r.mux.HandleFunc("GET /api/version", r.handleVersion)

	r.mux.HandleFunc("GET /api/users", r.handleListUsers)
	r.mux.HandleFunc("POST /api/users", r.handleCreateUser)
	r.mux.HandleFunc("GET /api/users/{id}", r.handleGetUser)
	r.mux.HandleFunc("PUT /api/users/{id}", r.handleUpdateUser)
	r.mux.HandleFunc("DELETE /api/users/{id}", r.handleDeleteUser)

	r.mux.HandleFunc("GET /api/companies", r.handleListCompanies)
	r.mux.HandleFunc("POST /api/companies", r.handleCreateCompany)
	r.mux.HandleFunc("GET /api/companies/{id}", r.handleGetCompany)
	r.mux.HandleFunc("DELETE /api/companies/{id}", r.handleDeleteCompany)
	r.mux.HandleFunc("GET /api/companies/{id}/employees", r.handleListEmployees)

	r.mux.HandleFunc("GET /api/countries", r.handleListCountries)
	r.mux.HandleFunc("POST /api/countries", r.handleCreateCountry)
	r.mux.HandleFunc("GET /api/countries/{id}", r.handleGetCountry)
	r.mux.HandleFunc("DELETE /api/countries/{id}", r.handleDeleteCountry)
}

// ServeHTTP applies common middleware and dispatches to the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	r.addSecurityHeaders(w)

	ctx, requestID := logging.WithRequestID(req.Context(), req.Header.Get("X-Request-ID"))
	w.Header().Set("X-Request-ID", requestID)
	req = req.WithContext(ctx)

	// Artificial delay to make latency visible on demo dashboards. Health
	// and version stay fast for probes.
	if r.config.RequestDelay > 0 && !isProbePath(req.URL.Path) {
		time.Sleep(r.config.RequestDelay)
	}

	r.mux.ServeHTTP(w, req)

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("requestId", requestID).
		Dur("duration", time.Since(start)).
		Msg("Handled request")
}

func (r *Router) addSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

func isProbePath(path string) bool {
	return strings.HasPrefix(path, "/api/health") || strings.HasPrefix(path, "/api/version")
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (r *Router) handleVersion(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": r.version})
}
