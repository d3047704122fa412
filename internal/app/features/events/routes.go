// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the realtime endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/stream", h.Stream)
	r.Post("/subscriptions/{taskID}", h.Subscribe)
	r.Delete("/subscriptions/{taskID}", h.Unsubscribe)

	return r
}
