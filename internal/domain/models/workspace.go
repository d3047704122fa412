// internal/domain/models/workspace.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is a shared container for tasks. Every workspace has
// exactly one owner and at least one membership row (the owner's,
// created atomically with the workspace).
type Workspace struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"ownerId"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// WorkspaceMember is the authoritative join between users and
// workspaces. Exactly one document per (workspace_id, user_id),
// enforced by a unique index.
type WorkspaceMember struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID  `bson:"workspace_id" json:"workspaceId"`
	UserID      primitive.ObjectID  `bson:"user_id" json:"userId"`
	Role        Role                `bson:"role" json:"role"`
	InvitedBy   *primitive.ObjectID `bson:"invited_by,omitempty" json:"invitedBy,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
