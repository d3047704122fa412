// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/policy/projectpolicy"
	membershipstore "github.com/dalemusser/taskflow/internal/app/store/memberships"
	projectstore "github.com/dalemusser/taskflow/internal/app/store/projects"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/activitylog"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// Handler serves project and project-membership endpoints.
type Handler struct {
	DB       *mongo.Database
	Projects *projectstore.Store
	Members  *membershipstore.Store
	Users    *userstore.Store
	Activity *activitylog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, activity *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Projects: projectstore.New(db),
		Members:  membershipstore.NewProject(db),
		Users:    userstore.New(db),
		Activity: activity,
		Log:      logger,
	}
}

type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProjectResponse(p *models.Project, role models.Role) projectResponse {
	return projectResponse{
		ID:          p.ID.Hex(),
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID.Hex(),
		Role:        string(role),
		CreatedAt:   p.CreatedAt,
	}
}

// List handles GET /projects: every project the user belongs to.
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
		h.Log.Error("project membership list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	roleByProject := make(map[primitive.ObjectID]models.Role, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ContainerID)
		roleByProject[m.ContainerID] = m.Role
	}

	ps, err := h.Projects.ByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("project fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	out := make([]projectResponse, 0, len(ps))
	for i := range ps {
		out = append(out, toProjectResponse(&ps[i], roleByProject[ps[i].ID]))
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"projects": out})
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /projects. The creator becomes the owner.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createProjectRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(htmlsanitize.StripTags(req.Name))
	req.Description = htmlsanitize.Sanitize(req.Description)
	if req.Name == "" {
		apiutil.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, err := h.Projects.Create(ctx, req.Name, req.Description, userID)
	if err != nil {
		h.Log.Error("project create failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to create project")
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, toProjectResponse(p, models.RoleOwner))
}

// projectID pulls and validates the {projectID} URL parameter.
func projectID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	return id, err == nil
}

// requireRole resolves the requester's role in the project and writes
// the error response when access is denied.
func (h *Handler) requireRole(ctx context.Context, w http.ResponseWriter, projID, userID primitive.ObjectID, min models.Role) (models.Role, bool) {
	role, err := projectpolicy.RoleOf(ctx, h.DB, projID, userID)
	if err != nil {
		h.Log.Error("project role lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "authorization check failed")
		return models.RoleNone, false
	}
	if !role.AtLeast(min) {
		apiutil.Error(w, http.StatusForbidden, "insufficient project role")
		return role, false
	}
	return role, true
}
