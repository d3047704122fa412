// internal/app/system/activitylog/activitylog.go
package activitylog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	activitystore "github.com/dalemusser/taskflow/internal/app/store/activity"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// Logger records task activity entries. Recording happens before the
// mutation's response is written, so a request that returns success
// has its activity persisted; a failed append is logged and swallowed
// rather than failing the mutation that already committed.
type Logger struct {
	store *activitystore.Store
	log   *zap.Logger
}

func New(store *activitystore.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, log: logger}
}

// NewNop returns a logger that drops everything. Tests that do not
// assert on activity use it.
func NewNop() *Logger {
	return &Logger{log: zap.NewNop()}
}

// Record appends one activity entry. Details may be nil.
func (l *Logger) Record(ctx context.Context, taskID, actorID primitive.ObjectID, projectID *primitive.ObjectID, action string, details map[string]any) {
	if l.store == nil {
		return
	}
	entry := &models.TaskActivity{
		TaskID:    taskID,
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    action,
		Details:   details,
	}
	if err := l.store.Append(ctx, entry); err != nil {
		l.log.Error("failed to record task activity",
			zap.String("task_id", taskID.Hex()),
			zap.String("action", action),
			zap.Error(err))
	}
}
