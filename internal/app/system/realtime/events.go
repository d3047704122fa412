// internal/app/system/realtime/events.go
package realtime

import "go.mongodb.org/mongo-driver/bson/primitive"

// Task event types.
const (
	EventTaskCreated       = "task.created"
	EventTaskUpdated       = "task.updated"
	EventTaskDeleted       = "task.deleted"
	EventCommentCreated    = "comment.created"
	EventActivityCreated   = "activity.created"
	EventAssignmentUpdated = "assignment.updated"
)

// Notification event types.
const (
	EventNotificationCreated = "notification.created"
	EventNotificationRead    = "notification.read"
	EventNotificationReadAll = "notification.read_all"
)

// TaskEvent announces a task-related change. The payload carries ids
// only; subscribers re-fetch through the API, where read authorization
// applies.
type TaskEvent struct {
	Type        string              `json:"type"`
	TaskID      primitive.ObjectID  `json:"taskId"`
	ActorID     primitive.ObjectID  `json:"actorId"`
	WorkspaceID *primitive.ObjectID `json:"workspaceId,omitempty"`
	ProjectID   *primitive.ObjectID `json:"projectId,omitempty"`
}

// NotificationEvent announces a change on a user's notification feed.
type NotificationEvent struct {
	Type           string              `json:"type"`
	UserID         primitive.ObjectID  `json:"userId"`
	NotificationID *primitive.ObjectID `json:"notificationId,omitempty"`
}

// Broadcaster is the outbound event port. Mutation handlers publish
// through it; the hub behind it fans events out to connected clients.
// Implementations must not block the caller.
type Broadcaster interface {
	BroadcastTask(ev TaskEvent)
	NotifyUser(userID primitive.ObjectID, ev NotificationEvent)
}

// NopBroadcaster discards all events. Tests and the reminder worker's
// offline mode use it.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastTask(TaskEvent)                          {}
func (NopBroadcaster) NotifyUser(primitive.ObjectID, NotificationEvent) {}
