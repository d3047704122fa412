package testutil

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// AsUser attaches the user to the request context the same way the
// session middleware does, so handlers under test see a signed-in user.
func AsUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, u.ID, u.Name, u.Email)
}

// AsUserID is AsUser for tests that only care about the id.
func AsUserID(r *http.Request, id primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, id, "Test User", "test@example.com")
}
