// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// Routes returns a subrouter that serves the auth endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(auth.RequireSignedIn).Get("/me", h.Me)
	return r
}
