// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/taskflow/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the signed-in user's Mongo ObjectID and a found
// flag. ok=true means a valid, authenticated user. Container roles
// are not carried on the session; the policy packages resolve them
// from the membership collections per request.
func UserCtx(r *http.Request) (userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	return user.ID, true
}
