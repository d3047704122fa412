// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/policy/taskpolicy"
	activitystore "github.com/dalemusser/taskflow/internal/app/store/activity"
	commentstore "github.com/dalemusser/taskflow/internal/app/store/comments"
	projectstore "github.com/dalemusser/taskflow/internal/app/store/projects"
	taskstore "github.com/dalemusser/taskflow/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	workspacestore "github.com/dalemusser/taskflow/internal/app/store/workspaces"
	"github.com/dalemusser/taskflow/internal/app/system/activitylog"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// Handler serves the task endpoints: CRUD, shares, comments,
// activity, assignment, attachments, and import/export.
type Handler struct {
	DB          *mongo.Database
	Tasks       *taskstore.Store
	Comments    *commentstore.Store
	ActivityLog *activitystore.Store
	Users       *userstore.Store
	Workspaces  *workspacestore.Store
	Projects    *projectstore.Store
	Activity    *activitylog.Logger
	Broadcaster realtime.Broadcaster
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, activity *activitylog.Logger, broadcaster realtime.Broadcaster, logger *zap.Logger) *Handler {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &Handler{
		DB:          db,
		Tasks:       taskstore.New(db),
		Comments:    commentstore.New(db),
		ActivityLog: activitystore.New(db),
		Users:       userstore.New(db),
		Workspaces:  workspacestore.New(db),
		Projects:    projectstore.New(db),
		Activity:    activity,
		Broadcaster: broadcaster,
		Log:         logger,
	}
}

// taskResponse decorates the stored task with derived fields.
type taskResponse struct {
	*models.Task
	Progress int `json:"progress"`
}

func toTaskResponse(t *models.Task) taskResponse {
	return taskResponse{Task: t, Progress: t.ProgressPercent()}
}

// taskID pulls and validates the {taskID} URL parameter.
func taskID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	return id, err == nil
}

// loadTaskForRead fetches the task and enforces read access, writing
// the error response on failure. Tasks the user cannot see are
// reported as not found, not forbidden, so their existence leaks
// nothing.
func (h *Handler) loadTaskForRead(ctx context.Context, w http.ResponseWriter, id, userID primitive.ObjectID) (*models.Task, bool) {
	t, err := h.Tasks.ByID(ctx, id)
	if err != nil {
		if err == taskstore.ErrNotFound {
			apiutil.Error(w, http.StatusNotFound, "task not found")
			return nil, false
		}
		if err == models.ErrAmbiguousScope {
			h.Log.Error("rejecting task with ambiguous scope", zap.String("task_id", id.Hex()))
			apiutil.Error(w, http.StatusInternalServerError, "task record is invalid")
			return nil, false
		}
		h.Log.Error("task fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to load task")
		return nil, false
	}

	canRead, err := taskpolicy.CanRead(ctx, h.DB, t, userID)
	if err != nil {
		h.Log.Error("task read check failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "authorization check failed")
		return nil, false
	}
	if !canRead {
		apiutil.Error(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return t, true
}

// loadTaskForWrite fetches the task and enforces write access.
// Readable-but-not-writable tasks get 403; invisible ones get 404.
func (h *Handler) loadTaskForWrite(ctx context.Context, w http.ResponseWriter, id, userID primitive.ObjectID) (*models.Task, bool) {
	t, ok := h.loadTaskForRead(ctx, w, id, userID)
	if !ok {
		return nil, false
	}
	canWrite, err := taskpolicy.CanWrite(ctx, h.DB, t, userID)
	if err != nil {
		h.Log.Error("task write check failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "authorization check failed")
		return nil, false
	}
	if !canWrite {
		apiutil.Error(w, http.StatusForbidden, "you cannot modify this task")
		return nil, false
	}
	return t, true
}

// broadcast emits a task event tagged with the task's container ids.
func (h *Handler) broadcast(eventType string, t *models.Task, actorID primitive.ObjectID) {
	h.Broadcaster.BroadcastTask(realtime.TaskEvent{
		Type:        eventType,
		TaskID:      t.ID,
		ActorID:     actorID,
		WorkspaceID: t.WorkspaceID,
		ProjectID:   t.ProjectID,
	})
}

// containerExists verifies the scope target before a task is created
// in or moved to it.
func (h *Handler) containerExists(ctx context.Context, scope models.Scope) (bool, error) {
	switch scope.Kind {
	case models.ScopeWorkspace:
		_, err := h.Workspaces.ByID(ctx, scope.ID)
		if err == workspacestore.ErrNotFound {
			return false, nil
		}
		return err == nil, err
	case models.ScopeProject:
		_, err := h.Projects.ByID(ctx, scope.ID)
		if err == projectstore.ErrNotFound {
			return false, nil
		}
		return err == nil, err
	default:
		return true, nil
	}
}
