package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/rbac"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	AuthMiddleware auth.Middleware
	RBACHandler    *rbac.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Keygate defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(AuthRateLimiter())
		params.AuthHandler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	// Management surface: super-admin only.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAuth)
		r.Use(params.AuthMiddleware.RequireSuperAdmin)
		params.RBACHandler.MountAdminRoutes(r)
	})

	// Self checks: any authenticated caller.
	r.Route("/authed", func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAuth)
		params.RBACHandler.MountAuthedRoutes(r)
	})

	return r
}
