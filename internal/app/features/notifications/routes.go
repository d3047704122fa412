// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the notification endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Get("/unread_count", h.UnreadCount)
	r.Post("/read_all", h.MarkAllRead)
	r.Post("/{notificationID}/read", h.MarkRead)

	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences", h.UpdatePreferences)
	r.Post("/unsubscribe", h.Unsubscribe)

	return r
}
