// internal/app/features/tasks/comments.go
package tasks

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

type commentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListComments handles GET /tasks/{taskID}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, ok := h.loadTaskForRead(ctx, w, id, userID)
	if !ok {
		return
	}

	comments, err := h.Comments.ListByTask(ctx, t.ID)
	if err != nil {
		h.Log.Error("comment list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	users, err := h.Users.MapByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("comment author fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentResponse{
			ID:         c.ID.Hex(),
			AuthorID:   c.AuthorID.Hex(),
			AuthorName: users[c.AuthorID].Name,
			Body:       c.Body,
			CreatedAt:  c.CreatedAt,
		})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"comments": out})
}

type addCommentRequest struct {
	Body string `json:"body"`
}

// AddComment handles POST /tasks/{taskID}/comments. Commenting is a
// mutation, so it runs behind the write predicate.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
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

	var req addCommentRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	body := strings.TrimSpace(htmlsanitize.Sanitize(req.Body))
	if body == "" {
		apiutil.Error(w, http.StatusBadRequest, "comment body is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, ok := h.loadTaskForWrite(ctx, w, id, userID)
	if !ok {
		return
	}

	c := &models.TaskComment{
		TaskID:    t.ID,
		ProjectID: t.ProjectID,
		AuthorID:  userID,
		Body:      body,
	}
	if err := h.Comments.Insert(ctx, c); err != nil {
		h.Log.Error("comment insert failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to add comment")
		return
	}

	h.Activity.Record(ctx, t.ID, userID, t.ProjectID, models.ActionCommentAdded, map[string]any{
		"commentId": c.ID.Hex(),
	})
	h.broadcast(realtime.EventCommentCreated, t, userID)

	apiutil.WriteJSON(w, http.StatusCreated, commentResponse{
		ID:        c.ID.Hex(),
		AuthorID:  userID.Hex(),
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	})
}

type activityResponse struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actorId"`
	ActorName string         `json:"actorName"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ListActivity handles GET /tasks/{taskID}/activity: the task's audit
// trail, newest first.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, ok := h.loadTaskForRead(ctx, w, id, userID)
	if !ok {
		return
	}

	entries, err := h.ActivityLog.ListByTask(ctx, t.ID, 200)
	if err != nil {
		h.Log.Error("activity list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list activity")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ActorID)
	}
	users, err := h.Users.MapByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("activity actor fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list activity")
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse{
			ID:        e.ID.Hex(),
			ActorID:   e.ActorID.Hex(),
			ActorName: users[e.ActorID].Name,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"activity": out})
}
