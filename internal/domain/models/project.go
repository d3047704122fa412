// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a shared container for tasks, independent of workspaces.
// Membership and role semantics mirror Workspace exactly.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"ownerId"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ProjectMember joins users to projects. Exactly one document per
// (project_id, user_id), enforced by a unique index.
type ProjectMember struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProjectID primitive.ObjectID  `bson:"project_id" json:"projectId"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"userId"`
	Role      Role                `bson:"role" json:"role"`
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invitedBy,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
