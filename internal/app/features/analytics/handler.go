// internal/app/features/analytics/handler.go
package analytics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// Handler serves the analytics endpoints.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

type summaryResponse struct {
	Total           int64            `json:"total"`
	ByStatus        map[string]int64 `json:"byStatus"`
	ByPriority      map[string]int64 `json:"byPriority"`
	Overdue         int64            `json:"overdue"`
	DueThisWeek     int64            `json:"dueThisWeek"`
	CompletedRecent int64            `json:"completedRecent"`
	WindowDays      int              `json:"windowDays"`
}

// Summary handles GET /analytics/summary?days=N. All counts run over
// the requester's visible task set, same scope the list endpoint uses,
// so analytics never reveals tasks the user could not list. The
// completed count covers the trailing N days (default 7, max 90).
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	days := 7
	if raw := query.Get(r, "days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 90 {
			apiutil.Error(w, http.StatusBadRequest, "days must be a number between 1 and 90")
			return
		}
		days = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	visible, err := taskpolicy.VisibilityFilter(ctx, h.DB, userID)
	if err != nil {
		h.Log.Error("visibility filter build failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	now := time.Now().UTC()
	weekEnd := now.AddDate(0, 0, 7)
	windowStart := now.AddDate(0, 0, -days)

	pipeline := []bson.M{
		{"$match": visible},
		{"$facet": bson.M{
			"byStatus": []bson.M{
				{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"byPriority": []bson.M{
				{"$group": bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}},
			},
			"overdue": []bson.M{
				{"$match": bson.M{
					"status":   bson.M{"$ne": models.StatusDone},
					"due_date": bson.M{"$lt": now},
				}},
				{"$count": "count"},
			},
			"dueThisWeek": []bson.M{
				{"$match": bson.M{
					"status":   bson.M{"$ne": models.StatusDone},
					"due_date": bson.M{"$gte": now, "$lt": weekEnd},
				}},
				{"$count": "count"},
			},
			"completedRecent": []bson.M{
				{"$match": bson.M{
					"status":       models.StatusDone,
					"completed_at": bson.M{"$gte": windowStart},
				}},
				{"$count": "count"},
			},
		}},
	}

	cur, err := h.DB.Collection("tasks").Aggregate(ctx, pipeline)
	if err != nil {
		h.Log.Error("summary aggregation failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	defer cur.Close(ctx)

	type bucket struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	type counted struct {
		Count int64 `bson:"count"`
	}
	var facets struct {
		ByStatus        []bucket  `bson:"byStatus"`
		ByPriority      []bucket  `bson:"byPriority"`
		Overdue         []counted `bson:"overdue"`
		DueThisWeek     []counted `bson:"dueThisWeek"`
		CompletedRecent []counted `bson:"completedRecent"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&facets); err != nil {
			h.Log.Error("summary decode failed", zap.Error(err))
			apiutil.Error(w, http.StatusInternalServerError, "failed to compute summary")
			return
		}
	}

	resp := summaryResponse{
		ByStatus: map[string]int64{
			models.StatusTodo:       0,
			models.StatusInProgress: 0,
			models.StatusDone:       0,
		},
		ByPriority: map[string]int64{
			models.PriorityLow:    0,
			models.PriorityMedium: 0,
			models.PriorityHigh:   0,
		},
		WindowDays: days,
	}
	for _, b := range facets.ByStatus {
		resp.ByStatus[b.ID] = b.Count
		resp.Total += b.Count
	}
	for _, b := range facets.ByPriority {
		resp.ByPriority[b.ID] = b.Count
	}
	if len(facets.Overdue) > 0 {
		resp.Overdue = facets.Overdue[0].Count
	}
	if len(facets.DueThisWeek) > 0 {
		resp.DueThisWeek = facets.DueThisWeek[0].Count
	}
	if len(facets.CompletedRecent) > 0 {
		resp.CompletedRecent = facets.CompletedRecent[0].Count
	}

	apiutil.WriteJSON(w, http.StatusOK, resp)
}

type workloadRow struct {
	UserID string `json:"userId"`
	Open   int64  `json:"open"`
}

// Workload handles GET /analytics/workload: open task counts per
// assignee across the requester's visible set.
func (h *Handler) Workload(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	visible, err := taskpolicy.VisibilityFilter(ctx, h.DB, userID)
	if err != nil {
		h.Log.Error("visibility filter build failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to compute workload")
		return
	}

	pipeline := []bson.M{
		{"$match": visible},
		{"$match": bson.M{"status": bson.M{"$ne": models.StatusDone}}},
		{"$unwind": "$assignee_ids"},
		{"$group": bson.M{"_id": "$assignee_ids", "open": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"open": -1}},
	}

	cur, err := h.DB.Collection("tasks").Aggregate(ctx, pipeline)
	if err != nil {
		h.Log.Error("workload aggregation failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to compute workload")
		return
	}
	defer cur.Close(ctx)

	rows := []workloadRow{}
	for cur.Next(ctx) {
		var doc struct {
			ID   primitive.ObjectID `bson:"_id"`
			Open int64              `bson:"open"`
		}
		if err := cur.Decode(&doc); err != nil {
			h.Log.Error("workload decode failed", zap.Error(err))
			apiutil.Error(w, http.StatusInternalServerError, "failed to compute workload")
			return
		}
		rows = append(rows, workloadRow{UserID: doc.ID.Hex(), Open: doc.Open})
	}

	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"workload": rows})
}
