// internal/app/features/tasks/assign.go
package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/inputval"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// AssignMe handles POST /tasks/{taskID}/assignees/me: self-assignment.
// Already being assigned is not an error; the call is idempotent.
func (h *Handler) AssignMe(w http.ResponseWriter, r *http.Request) {
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

	if !t.IsAssignee(userID) {
		t.AssigneeIDs = append(t.AssigneeIDs, userID)
		if err := h.Tasks.Save(ctx, t); err != nil {
			h.Log.Error("self-assign save failed", zap.Error(err))
			apiutil.Error(w, http.StatusInternalServerError, "failed to assign task")
			return
		}
		h.Activity.Record(ctx, t.ID, userID, t.ProjectID, models.ActionTaskAssigned, map[string]any{
			"assigneeIds": hexIDs(t.AssigneeIDs),
		})
		h.broadcast(realtime.EventAssignmentUpdated, t, userID)
	}
	apiutil.WriteJSON(w, http.StatusOK, toTaskResponse(t))
}

// UnassignMe handles DELETE /tasks/{taskID}/assignees/me.
func (h *Handler) UnassignMe(w http.ResponseWriter, r *http.Request) {
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

	if t.IsAssignee(userID) {
		kept := t.AssigneeIDs[:0]
		for _, a := range t.AssigneeIDs {
			if a != userID {
				kept = append(kept, a)
			}
		}
		t.AssigneeIDs = kept
		if err := h.Tasks.Save(ctx, t); err != nil {
			h.Log.Error("self-unassign save failed", zap.Error(err))
			apiutil.Error(w, http.StatusInternalServerError, "failed to unassign task")
			return
		}
		h.Activity.Record(ctx, t.ID, userID, t.ProjectID, models.ActionTaskAssigned, map[string]any{
			"assigneeIds": hexIDs(t.AssigneeIDs),
		})
		h.broadcast(realtime.EventAssignmentUpdated, t, userID)
	}
	apiutil.WriteJSON(w, http.StatusOK, toTaskResponse(t))
}

type addAttachmentRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Provider string `json:"provider"`
}

// AddAttachment handles POST /tasks/{taskID}/attachments. Only the
// descriptor is stored; the blob lives with its provider.
func (h *Handler) AddAttachment(w http.ResponseWriter, r *http.Request) {
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

	var req addAttachmentRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = htmlsanitize.StripTags(req.Name)
	if req.Name == "" {
		apiutil.Error(w, http.StatusBadRequest, "name and url are required")
		return
	}
	if !inputval.IsValidHTTPURL(req.URL) {
		apiutil.Error(w, http.StatusBadRequest, "url must be an http or https link")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, ok := h.loadTaskForWrite(ctx, w, id, userID)
	if !ok {
		return
	}

	att := models.Attachment{
		ID:        uuid.NewString(),
		Name:      req.Name,
		URL:       req.URL,
		MimeType:  req.MimeType,
		Size:      req.Size,
		Provider:  req.Provider,
		CreatedAt: time.Now().UTC(),
	}
	t.Attachments = append(t.Attachments, att)

	if err := h.Tasks.Save(ctx, t); err != nil {
		h.Log.Error("attachment save failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to add attachment")
		return
	}
	h.broadcast(realtime.EventTaskUpdated, t, userID)

	apiutil.WriteJSON(w, http.StatusCreated, att)
}

// RemoveAttachment handles DELETE /tasks/{taskID}/attachments/{attachmentID}.
func (h *Handler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
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
	attID := chi.URLParam(r, "attachmentID")
	if attID == "" {
		apiutil.Error(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, ok := h.loadTaskForWrite(ctx, w, id, userID)
	if !ok {
		return
	}

	found := false
	kept := t.Attachments[:0]
	for _, a := range t.Attachments {
		if a.ID == attID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		apiutil.Error(w, http.StatusNotFound, "attachment not found")
		return
	}
	t.Attachments = kept

	if err := h.Tasks.Save(ctx, t); err != nil {
		h.Log.Error("attachment remove save failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to remove attachment")
		return
	}
	h.broadcast(realtime.EventTaskUpdated, t, userID)

	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
