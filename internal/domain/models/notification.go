// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const NotificationDueSoon = "due_soon"

// Notification is a per-user reminder record. The email delivery
// fields track bounded retry state for the reminder worker; the unique
// sparse index on (user_id, type, task_id, due_at) prevents duplicate
// reminders for the same deadline.
type Notification struct {
	ID     primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID  `bson:"user_id" json:"userId"`
	TaskID *primitive.ObjectID `bson:"task_id,omitempty" json:"taskId,omitempty"`
	Type   string              `bson:"type" json:"type"`

	Title   string     `bson:"title" json:"title"`
	Message string     `bson:"message" json:"message"`
	DueAt   *time.Time `bson:"due_at,omitempty" json:"dueAt,omitempty"`
	ReadAt  *time.Time `bson:"read_at,omitempty" json:"readAt,omitempty"`

	EmailedAt          *time.Time `bson:"emailed_at,omitempty" json:"emailedAt,omitempty"`
	EmailAttemptCount  int        `bson:"email_attempt_count" json:"emailAttemptCount"`
	NextEmailAttemptAt *time.Time `bson:"next_email_attempt_at,omitempty" json:"nextEmailAttemptAt,omitempty"`
	LastEmailError     string     `bson:"last_email_error,omitempty" json:"lastEmailError,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
