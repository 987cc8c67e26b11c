package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/coursedesk/coursedesk/internal/assignments"
	"github.com/coursedesk/coursedesk/internal/auth"
	"github.com/coursedesk/coursedesk/internal/authz"
	"github.com/coursedesk/coursedesk/internal/submissions"
	"github.com/coursedesk/coursedesk/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Guard              authz.Middleware
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	AssignmentsHandler *assignments.Handler
	SubmissionsHandler *submissions.Handler
}

// NewRouter constructs the chi.Router with Coursedesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		// Everything below requires a verified bearer token.
		r.Group(func(r chi.Router) {
			r.Use(params.Guard.Authenticate)

			r.Route("/assignments", func(r chi.Router) {
				params.AssignmentsHandler.MountRoutes(r)
				params.SubmissionsHandler.MountAssignmentRoutes(r)
			})
			r.Route("/submissions", params.SubmissionsHandler.MountRoutes)
			r.Route("/admin", params.UsersHandler.MountRoutes)
		})
	})

	return r
}
