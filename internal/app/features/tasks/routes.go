// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the task endpoints.
// Everything here requires a signed-in user; per-task access is
// enforced inside the handlers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)

		r.Get("/shares", h.ListShares)
		r.Post("/shares", h.AddShare)
		r.Delete("/shares/{userID}", h.RemoveShare)

		r.Get("/comments", h.ListComments)
		r.Post("/comments", h.AddComment)
		r.Get("/activity", h.ListActivity)

		r.Post("/assignees/me", h.AssignMe)
		r.Delete("/assignees/me", h.UnassignMe)

		r.Post("/attachments", h.AddAttachment)
		r.Delete("/attachments/{attachmentID}", h.RemoveAttachment)
	})

	return r
}
