// internal/app/features/integrations/importing.go
package integrations

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// Lists handles GET /integrations/microsoft/lists.
func (h *Handler) Lists(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	client, connected, err := h.connectionClient(ctx, userID)
	if err != nil {
		h.Log.Error("connection client build failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to reach Microsoft To Do")
		return
	}
	if !connected {
		apiutil.Error(w, http.StatusNotFound, "Microsoft To Do is not connected")
		return
	}

	lists, err := fetchLists(ctx, client)
	if err != nil {
		h.Log.Error("list fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusBadGateway, "Microsoft To Do request failed")
		return
	}

	type listResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]listResponse, 0, len(lists))
	for _, l := range lists {
		out = append(out, listResponse{ID: l.ID, Name: l.DisplayName})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"lists": out})
}

type importRequest struct {
	ListID string `json:"listId"`
}

type importResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Import handles POST /integrations/microsoft/import. Tasks come in as
// personal tasks of the requester, keyed by their Graph id so running
// the import again updates rather than duplicates.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req importRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ListID == "" {
		apiutil.Error(w, http.StatusBadRequest, "listId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	client, connected, err := h.connectionClient(ctx, userID)
	if err != nil {
		h.Log.Error("connection client build failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to reach Microsoft To Do")
		return
	}
	if !connected {
		apiutil.Error(w, http.StatusNotFound, "Microsoft To Do is not connected")
		return
	}

	lists, err := fetchLists(ctx, client)
	if err != nil {
		h.Log.Error("list fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusBadGateway, "Microsoft To Do request failed")
		return
	}
	listTitle := ""
	for _, l := range lists {
		if l.ID == req.ListID {
			listTitle = l.DisplayName
			break
		}
	}
	if listTitle == "" {
		apiutil.Error(w, http.StatusNotFound, "list not found")
		return
	}

	graphTasks, err := fetchTasks(ctx, client, req.ListID)
	if err != nil {
		h.Log.Error("task fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusBadGateway, "Microsoft To Do request failed")
		return
	}

	var resp importResponse
	for _, gt := range graphTasks {
		title := htmlsanitize.StripTags(gt.Title)
		if title == "" {
			resp.Failed++
			continue
		}
		t := &models.Task{
			UserID:      userID,
			Title:       title,
			Description: htmlsanitize.Sanitize(gt.Body.Content),
			Status:      coerceGraphStatus(gt.Status),
			Priority:    coerceGraphImportance(gt.Importance),
			DueDate:     parseGraphTime(gt.DueDateTime),
			CompletedAt: parseGraphTime(gt.CompletedDateTime),
			Source: &models.TaskSource{
				Provider:  models.SourceMicrosoftTodo,
				ListID:    req.ListID,
				TaskID:    gt.ID,
				ListTitle: listTitle,
			},
		}
		saved, created, err := h.Tasks.UpsertImported(ctx, t)
		if err != nil {
			h.Log.Error("imported task upsert failed",
				zap.String("graph_task_id", gt.ID),
				zap.Error(err))
			resp.Failed++
			continue
		}
		if created {
			resp.Created++
			h.Broadcaster.BroadcastTask(realtime.TaskEvent{
				Type:    realtime.EventTaskCreated,
				TaskID:  saved.ID,
				ActorID: userID,
			})
		} else {
			resp.Updated++
			h.Broadcaster.BroadcastTask(realtime.TaskEvent{
				Type:    realtime.EventTaskUpdated,
				TaskID:  saved.ID,
				ActorID: userID,
			})
		}
	}

	apiutil.WriteJSON(w, http.StatusOK, resp)
}
