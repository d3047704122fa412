// internal/app/features/tasks/create.go
package tasks

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

type createTaskRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
	Priority    string                 `json:"priority"`
	DueDate     *time.Time             `json:"dueDate"`
	WorkspaceID string                 `json:"workspaceId"`
	ProjectID   string                 `json:"projectId"`
	AssigneeIDs []string               `json:"assigneeIds"`
	Subtasks    []subtaskPayload       `json:"subtasks"`
	Recurrence  *models.Recurrence     `json:"recurrence"`
	Linked      *models.LinkedResource `json:"linkedResource"`
}

// Create handles POST /tasks. The scope write gate runs before any
// document is written: creating into a container requires a writing
// role there, while personal tasks are open to any signed-in user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createTaskRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Title = strings.TrimSpace(htmlsanitize.StripTags(req.Title))
	if req.Title == "" {
		apiutil.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Status == "" {
		req.Status = models.StatusTodo
	}
	if !models.ValidStatus(req.Status) {
		apiutil.Error(w, http.StatusBadRequest, "status must be todo, in_progress, or done")
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(req.Priority) {
		apiutil.Error(w, http.StatusBadRequest, "priority must be low, medium, or high")
		return
	}

	scope, err := parseScope(req.WorkspaceID, req.ProjectID)
	if err != nil {
		if err == models.ErrAmbiguousScope {
			apiutil.Error(w, http.StatusBadRequest, "a task cannot be in both a workspace and a project")
			return
		}
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	recurrence, err := normalizeRecurrence(req.Recurrence)
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	assignees, err := parseAssigneeIDs(req.AssigneeIDs)
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	exists, err := h.containerExists(ctx, scope)
	if err != nil {
		h.Log.Error("container lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	if !exists {
		apiutil.Error(w, http.StatusNotFound, "container not found")
		return
	}

	canCreate, err := taskpolicy.CanWriteScope(ctx, h.DB, scope, userID)
	if err != nil {
		h.Log.Error("scope write check failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "authorization check failed")
		return
	}
	if !canCreate {
		apiutil.Error(w, http.StatusForbidden, "you cannot create tasks here")
		return
	}

	t := &models.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: htmlsanitize.Sanitize(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssigneeIDs: assignees,
		Subtasks:    normalizeSubtasks(req.Subtasks),
		Recurrence:  recurrence,
		Linked:      req.Linked,
	}
	t.SetScope(scope)
	if t.Status == models.StatusDone {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}

	if err := h.Tasks.Insert(ctx, t); err != nil {
		h.Log.Error("task insert failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.Activity.Record(ctx, t.ID, userID, t.ProjectID, models.ActionTaskCreated, map[string]any{
		"title": t.Title,
	})
	h.broadcast(realtime.EventTaskCreated, t, userID)

	apiutil.WriteJSON(w, http.StatusCreated, toTaskResponse(t))
}
