// Package server assembles the HTTP router and the gRPC health server.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"teamhub/backend/internal/audit"
	authhandler "teamhub/backend/internal/auth/handler"
	"teamhub/backend/internal/platform/httpx"
	"teamhub/backend/internal/server/middleware"
)

// Registrar mounts a group of authenticated routes.
type Registrar interface {
	Register(r chi.Router)
}

// RouterDeps holds what NewRouter wires together. Metrics, Health and Audit may be nil.
type RouterDeps struct {
	// BasePath prefixes every API route (e.g. /api). Probes and /metrics stay at the root.
	BasePath    string
	CookieName  string
	CORSOrigins []string

	Authn   middleware.Authenticator
	Audit   audit.AuditLogger
	Metrics *middleware.Metrics
	Health  http.Handler

	Auth *authhandler.Handler
	// Protected are mounted behind RequireAuth and Audit, in order.
	Protected []Registrar
}

// NewRouter returns the HTTP handler for the API.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ClientIP)
	r.Use(middleware.CORS(d.CORSOrigins...))
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	if d.Health != nil {
		r.Method(http.MethodGet, "/healthz", d.Health)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Message(w, http.StatusNotFound, "Route not found")
	})

	base := d.BasePath
	if base == "" {
		base = "/"
	}
	r.Route(base, func(r chi.Router) {
		if d.Auth != nil {
			d.Auth.RegisterPublic(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Authn, d.CookieName))
			r.Use(middleware.Audit(d.Audit))
			if d.Auth != nil {
				d.Auth.RegisterProtected(r)
			}
			for _, p := range d.Protected {
				p.Register(r)
			}
		})
	})
	return r
}
