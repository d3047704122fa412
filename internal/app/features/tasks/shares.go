// internal/app/features/tasks/shares.go
package tasks

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// loadPersonalTaskForShare enforces the sharing preconditions: the
// task must exist, be personal, and belong to the requester. Shares on
// container tasks are rejected outright; container access comes from
// membership roles, not per-task grants.
func (h *Handler) loadPersonalTaskForShare(ctx context.Context, w http.ResponseWriter, id, userID primitive.ObjectID) (*models.Task, bool) {
	t, ok := h.loadTaskForRead(ctx, w, id, userID)
	if !ok {
		return nil, false
	}
	scope, err := t.Scope()
	if err != nil {
		h.Log.Error("rejecting task with ambiguous scope", zap.String("task_id", id.Hex()))
		apiutil.Error(w, http.StatusInternalServerError, "task record is invalid")
		return nil, false
	}
	if scope.Kind != models.ScopePersonal {
		apiutil.Error(w, http.StatusBadRequest, "only personal tasks can be shared")
		return nil, false
	}
	if !t.IsCreator(userID) {
		apiutil.Error(w, http.StatusForbidden, "only the task creator can manage shares")
		return nil, false
	}
	return t, true
}

type shareResponse struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

// ListShares handles GET /tasks/{taskID}/shares.
func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
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

	t, ok := h.loadPersonalTaskForShare(ctx, w, id, userID)
	if !ok {
		return
	}

	ids := make([]primitive.ObjectID, 0, len(t.SharedWith))
	for _, s := range t.SharedWith {
		ids = append(ids, s.UserID)
	}
	users, err := h.Users.MapByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("share user fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list shares")
		return
	}

	out := make([]shareResponse, 0, len(t.SharedWith))
	for _, s := range t.SharedWith {
		u := users[s.UserID]
		out = append(out, shareResponse{
			UserID:     s.UserID.Hex(),
			Name:       u.Name,
			Email:      u.Email,
			Permission: s.Permission,
		})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"shares": out})
}

type addShareRequest struct {
	UserID     string `json:"userId"`
	Permission string `json:"permission"`
}

// AddShare handles POST /tasks/{taskID}/shares. Sharing with a user
// who already has a grant updates the permission in place, so the
// share list never carries two entries for one user.
func (h *Handler) AddShare(w http.ResponseWriter, r *http.Request) {
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

	var req addShareRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if req.Permission != models.ShareViewer && req.Permission != models.ShareEditor {
		apiutil.Error(w, http.StatusBadRequest, "permission must be viewer or editor")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, ok := h.loadPersonalTaskForShare(ctx, w, id, userID)
	if !ok {
		return
	}
	if targetID == t.UserID {
		apiutil.Error(w, http.StatusBadRequest, "the task creator cannot be a share target")
		return
	}
	if _, err := h.Users.ByID(ctx, targetID); err != nil {
		if err == userstore.ErrNotFound {
			apiutil.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("share user lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to share task")
		return
	}

	updated := false
	for i := range t.SharedWith {
		if t.SharedWith[i].UserID == targetID {
			t.SharedWith[i].Permission = req.Permission
			updated = true
			break
		}
	}
	if !updated {
		t.SharedWith = append(t.SharedWith, models.ShareMember{UserID: targetID, Permission: req.Permission})
	}

	if err := h.Tasks.Save(ctx, t); err != nil {
		h.Log.Error("share save failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to share task")
		return
	}
	h.broadcast(realtime.EventTaskUpdated, t, userID)

	status := http.StatusCreated
	if updated {
		status = http.StatusOK
	}
	apiutil.WriteJSON(w, status, map[string]string{
		"userId":     targetID.Hex(),
		"permission": req.Permission,
	})
}

// RemoveShare handles DELETE /tasks/{taskID}/shares/{userID}.
func (h *Handler) RemoveShare(w http.ResponseWriter, r *http.Request) {
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
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, ok := h.loadPersonalTaskForShare(ctx, w, id, userID)
	if !ok {
		return
	}

	found := false
	kept := t.SharedWith[:0]
	for _, s := range t.SharedWith {
		if s.UserID == targetID {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		apiutil.Error(w, http.StatusNotFound, "share not found")
		return
	}
	t.SharedWith = kept

	if err := h.Tasks.Save(ctx, t); err != nil {
		h.Log.Error("share remove save failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to remove share")
		return
	}
	h.broadcast(realtime.EventTaskUpdated, t, userID)

	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
