package csvutil

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
)

func TestScanTasksCSV(t *testing.T) {
	input := strings.Join([]string{
		"Title,Notes,State,Importance,Due Date",
		"Write report,Quarterly numbers,In Progress,Urgent,2026-03-15",
		"Buy milk,,,,",
		",orphan description,,,",
		"Fix bug,See tracker,Completed,low,03/20/2026",
	}, "\n")

	rows, rowErrs, err := ScanTasksCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ScanTasksCSV() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if len(rowErrs) != 1 {
		t.Fatalf("got %d row errors, want 1", len(rowErrs))
	}
	if rowErrs[0].Line != 4 || rowErrs[0].Reason != "missing title" {
		t.Errorf("row error = %+v, want line 4 missing title", rowErrs[0])
	}

	r := rows[0]
	if r.Title != "Write report" || r.Description != "Quarterly numbers" {
		t.Errorf("row 0 text fields = %q / %q", r.Title, r.Description)
	}
	if r.Status != models.StatusInProgress {
		t.Errorf("row 0 status = %q, want in_progress", r.Status)
	}
	if r.Priority != models.PriorityHigh {
		t.Errorf("row 0 priority = %q, want high", r.Priority)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if r.DueDate == nil || !r.DueDate.Equal(want) {
		t.Errorf("row 0 due date = %v, want %v", r.DueDate, want)
	}

	// Blank status and priority get defaults.
	if rows[1].Status != models.StatusTodo || rows[1].Priority != models.PriorityMedium {
		t.Errorf("row 1 defaults = %q / %q, want todo / medium", rows[1].Status, rows[1].Priority)
	}
	if rows[1].DueDate != nil {
		t.Errorf("row 1 due date = %v, want nil", rows[1].DueDate)
	}

	// Slash date layout.
	want = time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	if rows[2].DueDate == nil || !rows[2].DueDate.Equal(want) {
		t.Errorf("row 2 due date = %v, want %v", rows[2].DueDate, want)
	}
	if rows[2].Status != models.StatusDone {
		t.Errorf("row 2 status = %q, want done", rows[2].Status)
	}
}

func TestScanTasksCSVHeaderErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		if _, _, err := ScanTasksCSV(strings.NewReader("")); err == nil {
			t.Error("expected error for empty file")
		}
	})

	t.Run("no title column", func(t *testing.T) {
		input := "description,status\nfoo,todo\n"
		if _, _, err := ScanTasksCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error when no title column is present")
		}
	})
}

func TestScanTasksCSVBadDueDate(t *testing.T) {
	input := "title,due\nLaunch,not-a-date\n"
	rows, rowErrs, err := ScanTasksCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ScanTasksCSV() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
	if len(rowErrs) != 1 || rowErrs[0].Line != 2 {
		t.Fatalf("row errors = %+v, want one error at line 2", rowErrs)
	}
	if !strings.Contains(rowErrs[0].Reason, "due date") {
		t.Errorf("reason = %q, want mention of due date", rowErrs[0].Reason)
	}
}

func TestScanTasksCSVSkipsBlankRows(t *testing.T) {
	input := "title\nFirst\n\nSecond\n"
	rows, rowErrs, err := ScanTasksCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ScanTasksCSV() error: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Errorf("row errors = %+v, want none", rowErrs)
	}
	if len(rows) != 2 || rows[0].Title != "First" || rows[1].Title != "Second" {
		t.Errorf("rows = %+v, want First and Second", rows)
	}
}

func TestCoerceStatus(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"done", models.StatusDone},
		{"Completed", models.StatusDone},
		{"CLOSED", models.StatusDone},
		{"in progress", models.StatusInProgress},
		{"In-Progress", models.StatusInProgress},
		{"doing", models.StatusInProgress},
		{"todo", models.StatusTodo},
		{"whatever", models.StatusTodo},
	}
	for _, tt := range tests {
		if got := CoerceStatus(tt.in); got != tt.want {
			t.Errorf("CoerceStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoercePriority(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"high", models.PriorityHigh},
		{"Urgent", models.PriorityHigh},
		{"P1", models.PriorityHigh},
		{"low", models.PriorityLow},
		{"minor", models.PriorityLow},
		{"medium", models.PriorityMedium},
		{"whatever", models.PriorityMedium},
	}
	for _, tt := range tests {
		if got := CoercePriority(tt.in); got != tt.want {
			t.Errorf("CoercePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
