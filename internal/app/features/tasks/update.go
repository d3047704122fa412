// internal/app/features/tasks/update.go
package tasks

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

type updateTaskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Status      *string            `json:"status"`
	Priority    *string            `json:"priority"`
	DueDate     optionalTime       `json:"dueDate"`
	WorkspaceID optionalString     `json:"workspaceId"`
	ProjectID   optionalString     `json:"projectId"`
	AssigneeIDs *[]string          `json:"assigneeIds"`
	Subtasks    *[]subtaskPayload  `json:"subtasks"`
	Recurrence  *models.Recurrence `json:"recurrence"`
}

// Update handles PATCH /tasks/{taskID}. Absent fields are untouched;
// dueDate and the container ids accept explicit null to clear.
//
// Two transitions carry extra behavior: completing a task stamps
// completedAt and, when the task recurs, spawns the next occurrence;
// reopening clears completedAt. Moving a task to another container is
// checked against the destination before anything is written.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := taskID(r)
	if !ok {
		apiutil.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req updateTaskRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, ok := h.loadTaskForWrite(ctx, w, id, userID)
	if !ok {
		return
	}

	// Destination check runs before any field is mutated.
	if req.WorkspaceID.Set || req.ProjectID.Set {
		newScope, err := parseScope(req.WorkspaceID.Value, req.ProjectID.Value)
		if err != nil {
			if err == models.ErrAmbiguousScope {
				apiutil.Error(w, http.StatusBadRequest, "a task cannot be in both a workspace and a project")
				return
			}
			apiutil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		exists, err := h.containerExists(ctx, newScope)
		if err != nil {
			h.Log.Error("container lookup failed", zap.Error(err))
			apiutil.Error(w, http.StatusInternalServerError, "failed to update task")
			return
		}
		if !exists {
			apiutil.Error(w, http.StatusNotFound, "container not found")
			return
		}
		canMove, err := taskpolicy.CanWriteScope(ctx, h.DB, newScope, userID)
		if err != nil {
			h.Log.Error("scope write check failed", zap.Error(err))
			apiutil.Error(w, http.StatusInternalServerError, "authorization check failed")
			return
		}
		if !canMove {
			apiutil.Error(w, http.StatusForbidden, "you cannot move this task there")
			return
		}
		t.SetScope(newScope)
	}

	var updatedFields []string
	assigneesChanged := false
	oldStatus := t.Status
	oldDue := t.DueDate

	if req.Title != nil {
		title := strings.TrimSpace(htmlsanitize.StripTags(*req.Title))
		if title == "" {
			apiutil.Error(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		t.Title = title
		updatedFields = append(updatedFields, "title")
	}
	if req.Description != nil {
		t.Description = htmlsanitize.Sanitize(*req.Description)
		updatedFields = append(updatedFields, "description")
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			apiutil.Error(w, http.StatusBadRequest, "priority must be low, medium, or high")
			return
		}
		t.Priority = *req.Priority
		updatedFields = append(updatedFields, "priority")
	}
	if req.DueDate.Set {
		t.DueDate = req.DueDate.Value
		updatedFields = append(updatedFields, "dueDate")
	}
	if req.Subtasks != nil {
		t.Subtasks = normalizeSubtasks(*req.Subtasks)
		updatedFields = append(updatedFields, "subtasks")
	}
	if req.Recurrence != nil {
		rec, err := normalizeRecurrence(req.Recurrence)
		if err != nil {
			apiutil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		t.Recurrence = rec
		updatedFields = append(updatedFields, "recurrence")
	}
	if req.AssigneeIDs != nil {
		assignees, err := parseAssigneeIDs(*req.AssigneeIDs)
		if err != nil {
			apiutil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		t.AssigneeIDs = assignees
		assigneesChanged = true
		updatedFields = append(updatedFields, "assigneeIds")
	}

	var spawnRecurring bool
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			apiutil.Error(w, http.StatusBadRequest, "status must be todo, in_progress, or done")
			return
		}
		t.Status = *req.Status
		if t.Status != oldStatus {
			updatedFields = append(updatedFields, "status")
			if t.Status == models.StatusDone {
				now := time.Now().UTC()
				t.CompletedAt = &now
				spawnRecurring = t.Recurrence.Frequency != models.FreqNone
			} else if oldStatus == models.StatusDone {
				t.CompletedAt = nil
			}
		}
	}

	if err := h.Tasks.Save(ctx, t); err != nil {
		h.Log.Error("task save failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	if assigneesChanged {
		h.Activity.Record(ctx, t.ID, userID, t.ProjectID, models.ActionTaskAssigned, map[string]any{
			"assigneeIds": hexIDs(t.AssigneeIDs),
		})
	} else {
		h.Activity.Record(ctx, t.ID, userID, t.ProjectID, models.ActionTaskUpdated, map[string]any{
			"updatedFields": updatedFields,
		})
	}

	h.broadcast(realtime.EventTaskUpdated, t, userID)
	if assigneesChanged {
		h.broadcast(realtime.EventAssignmentUpdated, t, userID)
	}

	if spawnRecurring {
		h.spawnNextOccurrence(ctx, t, oldDue, userID)
	}

	apiutil.WriteJSON(w, http.StatusOK, toTaskResponse(t))
}

// spawnNextOccurrence creates the follow-up task after a recurring
// task completes. The next due date advances from the completed
// occurrence's due date, or from now when it had none. Failure to
// spawn never fails the completed update; it is logged and the client
// still gets its success response.
func (h *Handler) spawnNextOccurrence(ctx context.Context, done *models.Task, oldDue *time.Time, actorID primitive.ObjectID) {
	base := time.Now().UTC()
	if oldDue != nil {
		base = *oldDue
	}
	next := done.Recurrence.NextDue(base)

	subtasks := make([]models.Subtask, len(done.Subtasks))
	for i, s := range done.Subtasks {
		s.Done = false
		subtasks[i] = s
	}

	spawned := &models.Task{
		UserID:      done.UserID,
		WorkspaceID: done.WorkspaceID,
		ProjectID:   done.ProjectID,
		AssigneeIDs: done.AssigneeIDs,
		Title:       done.Title,
		Description: done.Description,
		Status:      models.StatusTodo,
		Priority:    done.Priority,
		DueDate:     &next,
		Subtasks:    subtasks,
		SharedWith:  done.SharedWith,
		Recurrence:  done.Recurrence,
		Linked:      done.Linked,
	}
	if err := h.Tasks.Insert(ctx, spawned); err != nil {
		h.Log.Error("recurring task spawn failed",
			zap.String("parent_task_id", done.ID.Hex()),
			zap.Error(err))
		return
	}

	h.Activity.Record(ctx, spawned.ID, actorID, spawned.ProjectID, models.ActionTaskCreatedRecurring, map[string]any{
		"parentTaskId": done.ID.Hex(),
	})
	h.broadcast(realtime.EventTaskCreated, spawned, actorID)
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

// Delete handles DELETE /tasks/{taskID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := taskID(r)
	if !ok {
		apiutil.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, ok := h.loadTaskForWrite(ctx, w, id, userID)
	if !ok {
		return
	}

	if err := h.Tasks.Delete(ctx, t.ID); err != nil {
		h.Log.Error("task delete failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.Activity.Record(ctx, t.ID, userID, t.ProjectID, models.ActionTaskDeleted, map[string]any{
		"title": t.Title,
	})
	h.broadcast(realtime.EventTaskDeleted, t, userID)

	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
