// internal/app/features/workspaces/routes.go
package workspaces

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the workspace endpoints.
// Everything here requires a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Post("/invites/accept", h.AcceptInvite)

	r.Route("/{workspaceID}", func(r chi.Router) {
		r.Get("/members", h.ListMembers)
		r.Patch("/members/{userID}", h.UpdateMemberRole)
		r.Delete("/members/{userID}", h.RemoveMember)

		r.Get("/invites", h.ListInvites)
		r.Post("/invites", h.CreateInvite)
		r.Delete("/invites/{inviteID}", h.RevokeInvite)
	})

	return r
}
