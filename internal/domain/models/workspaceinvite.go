// internal/domain/models/workspaceinvite.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite statuses.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteRevoked  = "revoked"
	InviteExpired  = "expired"
)

// WorkspaceInvite is a pending grant of a role to an email address.
// A partial unique index on (workspace_id, email, status=pending)
// guarantees at most one live invite per address per workspace;
// creating another upserts the existing one.
type WorkspaceInvite struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID  `bson:"workspace_id" json:"workspaceId"`
	Email       string              `bson:"email" json:"email"`
	Role        Role                `bson:"role" json:"role"`
	Token       string              `bson:"token" json:"token"`
	Status      string              `bson:"status" json:"status"`
	InvitedBy   primitive.ObjectID  `bson:"invited_by" json:"invitedBy"`
	AcceptedBy  *primitive.ObjectID `bson:"accepted_by,omitempty" json:"acceptedBy,omitempty"`
	ExpiresAt   time.Time           `bson:"expires_at" json:"expiresAt"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Expired reports whether the invite's deadline has passed at the
// given instant.
func (i *WorkspaceInvite) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
