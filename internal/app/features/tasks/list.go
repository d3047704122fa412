// internal/app/features/tasks/list.go
package tasks

import (
	"context"
	"net/http"
	"regexp"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskflow/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/paging"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// List handles GET /tasks. Results are always intersected with the
// requester's visibility filter; the other query parameters can only
// narrow that set. Filtering by a workspace additionally requires
// membership in it and answers 403 otherwise, so a workspace listing
// is either the real page or a refusal, never a silently empty one.
//
// Supported filters: status, priority, workspace_id, project_id,
// scope=personal, assigned=me, q (title substring). Sorting: sort=
// created|due|priority with order=asc|desc. Standard paging applies.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	visible, err := taskpolicy.VisibilityFilter(ctx, h.DB, userID)
	if err != nil {
		h.Log.Error("visibility filter build failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	narrow, badParam := listFilter(r, userID)
	if badParam != "" {
		apiutil.Error(w, http.StatusBadRequest, "invalid value for "+badParam)
		return
	}

	if wsID, ok := narrow["workspace_id"].(primitive.ObjectID); ok {
		role, err := workspacepolicy.RoleOf(ctx, h.DB, wsID, userID)
		if err != nil {
			h.Log.Error("workspace role lookup failed", zap.Error(err))
			apiutil.Error(w, http.StatusInternalServerError, "failed to list tasks")
			return
		}
		if !role.CanRead() {
			apiutil.Error(w, http.StatusForbidden, "not a member of this workspace")
			return
		}
	}

	filter := bson.M{"$and": []bson.M{visible, narrow}}
	page := paging.ParsePage(r)
	pageSize := paging.ParsePageSize(r)

	tasks, total, err := h.Tasks.List(ctx, filter, listSort(r), page, pageSize)
	if err != nil {
		h.Log.Error("task list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"tasks":  out,
		"paging": paging.NewMeta(page, pageSize, total),
	})
}

// listFilter builds the narrowing clause from query parameters. The
// returned string names the first invalid parameter, or is empty.
func listFilter(r *http.Request, userID primitive.ObjectID) (bson.M, string) {
	narrow := bson.M{}

	if s := query.Get(r, "status"); s != "" {
		if !models.ValidStatus(s) {
			return nil, "status"
		}
		narrow["status"] = s
	}
	if p := query.Get(r, "priority"); p != "" {
		if !models.ValidPriority(p) {
			return nil, "priority"
		}
		narrow["priority"] = p
	}
	if ws := query.Get(r, "workspace_id"); ws != "" {
		id, err := primitive.ObjectIDFromHex(ws)
		if err != nil {
			return nil, "workspace_id"
		}
		narrow["workspace_id"] = id
	}
	if pr := query.Get(r, "project_id"); pr != "" {
		id, err := primitive.ObjectIDFromHex(pr)
		if err != nil {
			return nil, "project_id"
		}
		narrow["project_id"] = id
	}
	if query.Get(r, "scope") == "personal" {
		narrow["workspace_id"] = nil
		narrow["project_id"] = nil
	}
	if query.Get(r, "assigned") == "me" {
		narrow["assignee_ids"] = userID
	}
	if q := query.Get(r, "q"); q != "" {
		narrow["title"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}
	return narrow, ""
}

func listSort(r *http.Request) bson.D {
	dir := -1
	if query.Get(r, "order") == "asc" {
		dir = 1
	}
	switch query.Get(r, "sort") {
	case "due":
		return bson.D{{Key: "due_date", Value: dir}, {Key: "_id", Value: dir}}
	case "priority":
		return bson.D{{Key: "priority", Value: dir}, {Key: "_id", Value: dir}}
	default:
		return bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}
	}
}

// Get handles GET /tasks/{taskID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.loadTaskForRead(ctx, w, id, userID)
	if !ok {
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, toTaskResponse(t))
}
