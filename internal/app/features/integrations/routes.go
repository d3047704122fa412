// internal/app/features/integrations/routes.go
package integrations

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the integration endpoints.
// The OAuth callback is outside the signed-in group; the consumed
// state value identifies the initiating user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/microsoft/callback", h.Callback)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/microsoft", h.Status)
		r.Delete("/microsoft", h.Disconnect)
		r.Post("/microsoft/connect", h.Connect)
		r.Get("/microsoft/lists", h.Lists)
		r.Post("/microsoft/import", h.Import)
	})

	return r
}
