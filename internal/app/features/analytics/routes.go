// internal/app/features/analytics/routes.go
package analytics

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the analytics endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/summary", h.Summary)
	r.Get("/workload", h.Workload)

	return r
}
