// internal/app/features/projects/routes.go
package projects

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the project endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/members", h.ListMembers)
		r.Post("/members", h.AddMember)
		r.Patch("/members/{userID}", h.UpdateMemberRole)
		r.Delete("/members/{userID}", h.RemoveMember)
	})

	return r
}
