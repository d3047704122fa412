// internal/app/features/tasks/export.go
package tasks

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
)

// Export handles GET /tasks/export?format=csv|json. The dump covers
// every task visible to the requester, same set the list endpoint
// paginates over.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	format := query.Get(r, "format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		apiutil.Error(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	visible, err := taskpolicy.VisibilityFilter(ctx, h.DB, userID)
	if err != nil {
		h.Log.Error("visibility filter build failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to export tasks")
		return
	}
	list, err := h.Tasks.Find(ctx, visible, bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if err != nil {
		h.Log.Error("export query failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to export tasks")
		return
	}

	stamp := time.Now().UTC().Format("2006-01-02")
	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="tasks-`+stamp+`.json"`)
		out := make([]taskResponse, 0, len(list))
		for i := range list {
			out = append(out, toTaskResponse(&list[i]))
		}
		_ = json.NewEncoder(w).Encode(out)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks-`+stamp+`.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"title", "description", "status", "priority", "due_date", "completed_at", "created_at"})
	for i := range list {
		t := &list[i]
		_ = cw.Write([]string{
			t.Title,
			t.Description,
			t.Status,
			t.Priority,
			formatTime(t.DueDate),
			formatTime(t.CompletedAt),
			t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Error("csv export write failed", zap.Error(err))
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
