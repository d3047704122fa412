// internal/app/features/workspaces/invites.go
package workspaces

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	invitestore "github.com/dalemusser/taskflow/internal/app/store/invites"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/auth"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/inputval"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

type inviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func toInviteResponse(inv *models.WorkspaceInvite, includeToken bool) inviteResponse {
	out := inviteResponse{
		ID:        inv.ID.Hex(),
		Email:     inv.Email,
		Role:      string(inv.Role),
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
	if includeToken {
		out.Token = inv.Token
	}
	return out
}

type createInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateInvite handles POST /workspaces/{workspaceID}/invites.
// Re-inviting an address with a pending invite refreshes it in place.
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
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

	var req createInviteRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !inputval.IsValidEmail(req.Email) {
		apiutil.Error(w, http.StatusBadRequest, "a valid email is required")
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

	inv, err := h.Invites.UpsertPending(ctx, wsID, req.Email, role, userID, h.InviteTTL)
	if err != nil {
		h.Log.Error("invite create failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to create invite")
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, toInviteResponse(inv, true))
}

// ListInvites handles GET /workspaces/{workspaceID}/invites.
func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
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

	if _, ok := h.requireRole(ctx, w, wsID, userID, models.RoleAdmin); !ok {
		return
	}

	invs, err := h.Invites.ListByWorkspace(ctx, wsID)
	if err != nil {
		h.Log.Error("invite list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list invites")
		return
	}
	out := make([]inviteResponse, 0, len(invs))
	for i := range invs {
		out = append(out, toInviteResponse(&invs[i], false))
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"invites": out})
}

// RevokeInvite handles DELETE /workspaces/{workspaceID}/invites/{inviteID}.
func (h *Handler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
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
	inviteID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "inviteID"))
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "invalid invite id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.requireRole(ctx, w, wsID, userID, models.RoleAdmin); !ok {
		return
	}

	inv, err := h.Invites.ByID(ctx, inviteID)
	if err != nil {
		if err == invitestore.ErrNotFound {
			apiutil.Error(w, http.StatusNotFound, "invite not found")
			return
		}
		h.Log.Error("invite lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to revoke invite")
		return
	}
	if inv.WorkspaceID != wsID {
		apiutil.Error(w, http.StatusNotFound, "invite not found")
		return
	}

	switch err := h.Invites.Revoke(ctx, inviteID); err {
	case nil:
		apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
	case invitestore.ErrNotFound:
		// Raced with accept/expire; the invite is no longer pending.
		apiutil.Error(w, http.StatusConflict, "invite is no longer pending")
	default:
		h.Log.Error("invite revoke failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to revoke invite")
	}
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

// AcceptInvite handles POST /workspaces/invites/accept. The signed-in
// user must be the invited address. Accepting is an upsert: a user who
// already belongs to the workspace gets the invited role.
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	sessionUser, _ := auth.CurrentUser(r)

	var req acceptInviteRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Token == "" {
		apiutil.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	inv, err := h.Invites.ByToken(ctx, req.Token)
	if err != nil {
		if err == invitestore.ErrNotFound {
			apiutil.Error(w, http.StatusNotFound, "invite not found")
			return
		}
		h.Log.Error("invite token lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to accept invite")
		return
	}

	if inv.Status != models.InvitePending {
		apiutil.Error(w, http.StatusGone, "invite is no longer valid")
		return
	}
	if inv.Expired(time.Now().UTC()) {
		if err := h.Invites.MarkExpired(ctx, inv.ID); err != nil && err != invitestore.ErrNotFound {
			h.Log.Error("invite expire mark failed", zap.Error(err))
		}
		apiutil.Error(w, http.StatusGone, "invite has expired")
		return
	}
	if text.Fold(sessionUser.Email) != inv.Email {
		apiutil.Error(w, http.StatusForbidden, "invite was issued to a different email")
		return
	}

	invitedBy := inv.InvitedBy
	if _, err := h.Members.Upsert(ctx, inv.WorkspaceID, userID, inv.Role, &invitedBy); err != nil {
		h.Log.Error("invite membership upsert failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to accept invite")
		return
	}
	if err := h.Invites.MarkAccepted(ctx, inv.ID, userID); err != nil && err != invitestore.ErrNotFound {
		h.Log.Error("invite accept mark failed", zap.Error(err))
	}

	h.Activity.Record(ctx, primitive.NilObjectID, userID, nil, models.ActionMemberAdded, map[string]any{
		"workspaceId": inv.WorkspaceID.Hex(),
		"role":        string(inv.Role),
	})

	ws, err := h.Workspaces.ByID(ctx, inv.WorkspaceID)
	if err != nil {
		h.Log.Error("workspace fetch after accept failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to accept invite")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, toWorkspaceResponse(ws, inv.Role))
}
