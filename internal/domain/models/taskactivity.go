// internal/domain/models/taskactivity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions. The set is closed; new mutations must pick one of
// these or extend the taxonomy deliberately.
const (
	ActionTaskCreated          = "task_created"
	ActionTaskCreatedRecurring = "task_created_recurring"
	ActionTaskUpdated          = "task_updated"
	ActionTaskDeleted          = "task_deleted"
	ActionTaskAssigned         = "task_assigned"
	ActionCommentAdded         = "comment_added"
	ActionMemberAdded          = "member_added"
	ActionMemberRoleChanged    = "member_role_changed"
)

// TaskActivity is an append-only audit record of a state-changing task
// operation. No update or delete path exists for these documents.
type TaskActivity struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TaskID    primitive.ObjectID  `bson:"task_id" json:"taskId"`
	ProjectID *primitive.ObjectID `bson:"project_id,omitempty" json:"projectId,omitempty"`
	ActorID   primitive.ObjectID  `bson:"actor_id" json:"actorId"`
	Action    string              `bson:"action" json:"action"`
	Details   map[string]any      `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}

// TaskComment is a user-authored note on a task, independent of the
// activity log.
type TaskComment struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TaskID    primitive.ObjectID  `bson:"task_id" json:"taskId"`
	ProjectID *primitive.ObjectID `bson:"project_id,omitempty" json:"projectId,omitempty"`
	AuthorID  primitive.ObjectID  `bson:"author_id" json:"authorId"`
	Body      string              `bson:"body" json:"body"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}
