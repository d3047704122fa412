// internal/app/features/tasks/importing.go
package tasks

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/csvutil"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

type importedTaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type importResult struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Errors  []csvutil.RowError `json:"errors,omitempty"`
}

// Import handles POST /tasks/import. The body is either a CSV file
// (text/csv, or multipart form with a "file" field) or a JSON array of
// tasks. Imported tasks are created as personal tasks of the
// requester; bad rows are reported per line and never abort the rest
// of the file.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var rows []csvutil.TaskCSVRow
	var rowErrs []csvutil.RowError

	switch {
	case ct == "application/json":
		var payload []importedTaskPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			apiutil.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		for i, p := range payload {
			rows = append(rows, csvutil.TaskCSVRow{
				Title:       strings.TrimSpace(p.Title),
				Description: p.Description,
				Status:      csvutil.CoerceStatus(p.Status),
				Priority:    csvutil.CoercePriority(p.Priority),
				DueDate:     p.DueDate,
			})
			if rows[len(rows)-1].Title == "" {
				rows = rows[:len(rows)-1]
				rowErrs = append(rowErrs, csvutil.RowError{Line: i + 1, Reason: "missing title"})
			}
		}
	case ct == "multipart/form-data":
		file, _, err := r.FormFile("file")
		if err != nil {
			apiutil.Error(w, http.StatusBadRequest, "a CSV file is required in the \"file\" field")
			return
		}
		defer file.Close()
		rows, rowErrs, err = csvutil.ScanTasksCSV(file)
		if err != nil {
			apiutil.Error(w, http.StatusBadRequest, "CSV could not be parsed: "+err.Error())
			return
		}
	default:
		var err error
		rows, rowErrs, err = csvutil.ScanTasksCSV(r.Body)
		if err != nil {
			apiutil.Error(w, http.StatusBadRequest, "CSV could not be parsed: "+err.Error())
			return
		}
	}

	result := importResult{Errors: rowErrs, Skipped: len(rowErrs)}
	for _, row := range rows {
		status := row.Status
		if status == "" {
			status = models.StatusTodo
		}
		priority := row.Priority
		if priority == "" {
			priority = models.PriorityMedium
		}
		t := &models.Task{
			UserID:      userID,
			Title:       htmlsanitize.StripTags(row.Title),
			Description: htmlsanitize.Sanitize(row.Description),
			Status:      status,
			Priority:    priority,
			DueDate:     row.DueDate,
		}
		if t.Status == models.StatusDone {
			now := time.Now().UTC()
			t.CompletedAt = &now
		}
		if err := h.Tasks.Insert(ctx, t); err != nil {
			h.Log.Error("imported task insert failed", zap.Error(err))
			result.Skipped++
			continue
		}
		result.Created++
		h.broadcast(realtime.EventTaskCreated, t, userID)
	}

	apiutil.WriteJSON(w, http.StatusOK, result)
}
