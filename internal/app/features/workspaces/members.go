// internal/app/features/workspaces/members.go
package workspaces

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	membershipstore "github.com/dalemusser/taskflow/internal/app/store/memberships"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

type memberResponse struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ListMembers handles GET /workspaces/{workspaceID}/members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	wsID, ok := workspaceID(r)
	if !ok {
		apiutil.Error(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.requireRole(ctx, w, wsID, userID, models.RoleViewer); !ok {
		return
	}

	members, err := h.Members.List(ctx, wsID)
	if err != nil {
		h.Log.Error("workspace member list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.MapByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("member user fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		u := users[m.UserID]
		out = append(out, memberResponse{
			UserID:   m.UserID.Hex(),
			Name:     u.Name,
			Email:    u.Email,
			Role:     string(m.Role),
			JoinedAt: m.CreatedAt,
		})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}

type updateMemberRequest struct {
	Role string `json:"role"`
}

// UpdateMemberRole handles PATCH /workspaces/{workspaceID}/members/{userID}.
// Requires a member-managing role. The owner role cannot be granted or
// taken away here; ownership stays with the workspace creator.
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	wsID, ok := workspaceID(r)
	if !ok {
		apiutil.Error(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateMemberRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok || role == models.RoleOwner || role == models.RoleNone {
		apiutil.Error(w, http.StatusBadRequest, "role must be viewer, member, or admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.requireRole(ctx, w, wsID, userID, models.RoleAdmin); !ok {
		return
	}

	current, err := h.Members.Get(ctx, wsID, targetID)
	if err != nil {
		if err == membershipstore.ErrNotFound {
			apiutil.Error(w, http.StatusNotFound, "membership not found")
			return
		}
		h.Log.Error("membership lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if current.Role == models.RoleOwner {
		apiutil.Error(w, http.StatusBadRequest, "the owner's role cannot be changed")
		return
	}

	updated, err := h.Members.UpdateRole(ctx, wsID, targetID, role)
	if err != nil {
		h.Log.Error("membership role update failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.Activity.Record(ctx, primitive.NilObjectID, userID, nil, models.ActionMemberRoleChanged, map[string]any{
		"workspaceId": wsID.Hex(),
		"userId":      targetID.Hex(),
		"role":        string(role),
	})

	apiutil.WriteJSON(w, http.StatusOK, map[string]string{
		"userId": updated.UserID.Hex(),
		"role":   string(updated.Role),
	})
}

// RemoveMember handles DELETE /workspaces/{workspaceID}/members/{userID}.
// The workspace owner cannot be removed.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	wsID, ok := workspaceID(r)
	if !ok {
		apiutil.Error(w, http.StatusBadRequest, "invalid workspace id")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.requireRole(ctx, w, wsID, userID, models.RoleAdmin); !ok {
		return
	}

	switch err := h.Members.Remove(ctx, wsID, targetID); err {
	case nil:
		apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	case membershipstore.ErrNotFound:
		apiutil.Error(w, http.StatusNotFound, "membership not found")
	case membershipstore.ErrOwnerImmutable:
		apiutil.Error(w, http.StatusBadRequest, "the workspace owner cannot be removed")
	default:
		h.Log.Error("membership remove failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to remove member")
	}
}
