// Package httptransport assembles the public HTTP surface of the ledger.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bondline/internal/authz"
	"bondline/internal/platform/middleware"
	"bondline/pkg/platform/httputil"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Options collects everything the router needs. Nil handlers are skipped.
type Options struct {
	Logger       *slog.Logger
	Validator    middleware.JWTValidator
	Authorizer   authz.Authorizer
	Modules      []Registrar
	Admin        Registrar
	Metrics      http.Handler
	HealthChecks map[string]HealthCheck
}

const healthTimeout = 2 * time.Second

// NewRouter wires the middleware chain and every module's routes. Reads are
// public; mutations find the caller in the request context and enforce
// ownership or roles in the ledger services.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))

	r.Get("/health", healthHandler(opts.HealthChecks))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(opts.Validator, opts.Logger))
		for _, m := range opts.Modules {
			m.Register(r)
		}
	})

	if opts.Admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(opts.Validator, opts.Logger))
			r.Use(middleware.RequireRole(opts.Authorizer, authz.RoleAdmin, opts.Logger))
			opts.Admin.Register(r)
		})
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
