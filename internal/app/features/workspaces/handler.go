// internal/app/features/workspaces/handler.go
package workspaces

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	invitestore "github.com/dalemusser/taskflow/internal/app/store/invites"
	membershipstore "github.com/dalemusser/taskflow/internal/app/store/memberships"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	workspacestore "github.com/dalemusser/taskflow/internal/app/store/workspaces"
	"github.com/dalemusser/taskflow/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskflow/internal/app/system/activitylog"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// Handler serves workspace, membership and invite endpoints.
type Handler struct {
	DB         *mongo.Database
	Workspaces *workspacestore.Store
	Members    *membershipstore.Store
	Invites    *invitestore.Store
	Users      *userstore.Store
	Activity   *activitylog.Logger
	InviteTTL  time.Duration
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, activity *activitylog.Logger, logger *zap.Logger, inviteTTL time.Duration) *Handler {
	return &Handler{
		DB:         db,
		Workspaces: workspacestore.New(db),
		Members:    membershipstore.NewWorkspace(db),
		Invites:    invitestore.New(db),
		Users:      userstore.New(db),
		Activity:   activity,
		InviteTTL:  inviteTTL,
		Log:        logger,
	}
}

type workspaceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toWorkspaceResponse(ws *models.Workspace, role models.Role) workspaceResponse {
	return workspaceResponse{
		ID:        ws.ID.Hex(),
		Name:      ws.Name,
		OwnerID:   ws.OwnerID.Hex(),
		Role:      string(role),
		CreatedAt: ws.CreatedAt,
	}
}

// List handles GET /workspaces: every workspace the user belongs to,
// with their role attached.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	memberships, err := h.Members.ListByUser(ctx, userID)
	if err != nil {
		h.Log.Error("workspace membership list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list workspaces")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	roleByWS := make(map[primitive.ObjectID]models.Role, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ContainerID)
		roleByWS[m.ContainerID] = m.Role
	}

	wss, err := h.Workspaces.ByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("workspace fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list workspaces")
		return
	}

	out := make([]workspaceResponse, 0, len(wss))
	for i := range wss {
		out = append(out, toWorkspaceResponse(&wss[i], roleByWS[wss[i].ID]))
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"workspaces": out})
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

// Create handles POST /workspaces. The creator becomes the owner.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createWorkspaceRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(htmlsanitize.StripTags(req.Name))
	if req.Name == "" {
		apiutil.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ws, err := h.Workspaces.Create(ctx, req.Name, userID)
	if err != nil {
		h.Log.Error("workspace create failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to create workspace")
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, toWorkspaceResponse(ws, models.RoleOwner))
}

// workspaceID pulls and validates the {workspaceID} URL parameter.
func workspaceID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	return id, err == nil
}

// requireRole resolves the requester's role in the workspace and
// writes the error response when access is denied. The bool reports
// whether the caller may proceed.
func (h *Handler) requireRole(ctx context.Context, w http.ResponseWriter, wsID, userID primitive.ObjectID, min models.Role) (models.Role, bool) {
	role, err := workspacepolicy.RoleOf(ctx, h.DB, wsID, userID)
	if err != nil {
		h.Log.Error("workspace role lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "authorization check failed")
		return models.RoleNone, false
	}
	if !role.AtLeast(min) {
		apiutil.Error(w, http.StatusForbidden, "insufficient workspace role")
		return role, false
	}
	return role, true
}
