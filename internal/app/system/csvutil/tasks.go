// internal/app/system/csvutil/tasks.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
)

// TaskCSVRow is the normalized row produced by ScanTasksCSV.
type TaskCSVRow struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
}

// RowError describes one rejected input row.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Column aliases, all matched case-insensitively after trimming.
// Exports from other tools rarely agree on header names; this map
// covers the common variants.
var headerAliases = map[string]string{
	"title":       "title",
	"name":        "title",
	"task":        "title",
	"task name":   "title",
	"description": "description",
	"notes":       "description",
	"details":     "description",
	"status":      "status",
	"state":       "status",
	"priority":    "priority",
	"importance":  "priority",
	"due":         "due_date",
	"due date":    "due_date",
	"due_date":    "due_date",
	"duedate":     "due_date",
	"deadline":    "due_date",
}

// dueDateLayouts are tried in order when parsing due dates.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04",
	"01/02/2006",
	"1/2/2006",
}

// ScanTasksCSV reads all rows from r, maps the header through the
// alias table, coerces values into the task vocabulary, and returns
// normalized rows plus per-row errors. It never writes to a DB; it's
// safe to call before any mutations. A missing or unmappable title
// column fails the whole file.
func ScanTasksCSV(r io.Reader) (rows []TaskCSVRow, rowErrs []RowError, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, herr := reader.Read()
	if herr == io.EOF {
		return nil, nil, fmt.Errorf("empty file")
	}
	if herr != nil {
		return nil, nil, herr
	}

	// column index -> canonical field
	fields := make(map[int]string, len(header))
	hasTitle := false
	for i, h := range header {
		canon, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		fields[i] = canon
		if canon == "title" {
			hasTitle = true
		}
	}
	if !hasTitle {
		return nil, nil, fmt.Errorf("no title column found (accepted headers: title, name, task)")
	}

	line := 1
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		line++
		if e != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: e.Error()})
			continue
		}
		if len(rows)+len(rowErrs) > MaxRows {
			return nil, nil, fmt.Errorf("too many rows (limit %d)", MaxRows)
		}

		var row TaskCSVRow
		var badDate string
		for i, v := range rec {
			v = strings.TrimSpace(v)
			switch fields[i] {
			case "title":
				row.Title = v
			case "description":
				row.Description = v
			case "status":
				row.Status = CoerceStatus(v)
			case "priority":
				row.Priority = CoercePriority(v)
			case "due_date":
				if v == "" {
					continue
				}
				if t, ok := parseDueDate(v); ok {
					row.DueDate = &t
				} else {
					badDate = v
				}
			}
		}
		if row.Title == "" {
			if rowEmpty(rec) {
				continue
			}
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "missing title"})
			continue
		}
		if badDate != "" {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: fmt.Sprintf("unparseable due date %q", badDate)})
			continue
		}
		if row.Status == "" {
			row.Status = models.StatusTodo
		}
		if row.Priority == "" {
			row.Priority = models.PriorityMedium
		}
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

func rowEmpty(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CoerceStatus maps loose status spellings onto the task vocabulary.
// Unknown values fall back to todo.
func CoerceStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case models.StatusDone, "complete", "completed", "finished", "closed":
		return models.StatusDone
	case models.StatusInProgress, "in progress", "in-progress", "inprogress", "doing", "started", "active":
		return models.StatusInProgress
	default:
		return models.StatusTodo
	}
}

// CoercePriority maps loose priority spellings onto the task
// vocabulary. Unknown values fall back to medium.
func CoercePriority(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case models.PriorityHigh, "urgent", "critical", "p1":
		return models.PriorityHigh
	case models.PriorityLow, "minor", "p3":
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

func parseDueDate(s string) (time.Time, bool) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
