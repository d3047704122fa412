package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTaskScope(t *testing.T) {
	wsID := primitive.NewObjectID()
	projID := primitive.NewObjectID()

	t.Run("personal", func(t *testing.T) {
		task := &Task{}
		s, err := task.Scope()
		if err != nil {
			t.Fatalf("Scope() error: %v", err)
		}
		if s.Kind != ScopePersonal || !s.ID.IsZero() {
			t.Errorf("Scope() = %+v, want personal with zero id", s)
		}
	})

	t.Run("workspace", func(t *testing.T) {
		task := &Task{WorkspaceID: &wsID}
		s, err := task.Scope()
		if err != nil {
			t.Fatalf("Scope() error: %v", err)
		}
		if s.Kind != ScopeWorkspace || s.ID != wsID {
			t.Errorf("Scope() = %+v, want workspace %s", s, wsID.Hex())
		}
	})

	t.Run("project", func(t *testing.T) {
		task := &Task{ProjectID: &projID}
		s, err := task.Scope()
		if err != nil {
			t.Fatalf("Scope() error: %v", err)
		}
		if s.Kind != ScopeProject || s.ID != projID {
			t.Errorf("Scope() = %+v, want project %s", s, projID.Hex())
		}
	})

	t.Run("both ids rejected", func(t *testing.T) {
		task := &Task{WorkspaceID: &wsID, ProjectID: &projID}
		if _, err := task.Scope(); err != ErrAmbiguousScope {
			t.Errorf("Scope() error = %v, want ErrAmbiguousScope", err)
		}
	})
}

func TestSetScope(t *testing.T) {
	wsID := primitive.NewObjectID()
	projID := primitive.NewObjectID()

	task := &Task{WorkspaceID: &wsID}
	task.SetScope(ProjectScope(projID))
	if task.WorkspaceID != nil {
		t.Error("SetScope(project) left workspace id set")
	}
	if task.ProjectID == nil || *task.ProjectID != projID {
		t.Errorf("SetScope(project) project id = %v, want %s", task.ProjectID, projID.Hex())
	}

	task.SetScope(PersonalScope())
	if task.WorkspaceID != nil || task.ProjectID != nil {
		t.Error("SetScope(personal) left a container id set")
	}
}

func TestRecurrenceNextDue(t *testing.T) {
	base := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  Recurrence
		want time.Time
	}{
		{"daily x1", Recurrence{Frequency: FreqDaily, Interval: 1}, base.AddDate(0, 0, 1)},
		{"daily x3", Recurrence{Frequency: FreqDaily, Interval: 3}, base.AddDate(0, 0, 3)},
		{"weekly x2", Recurrence{Frequency: FreqWeekly, Interval: 2}, base.AddDate(0, 0, 14)},
		// Jan 31 + 1 month normalizes to Mar 2/3 per AddDate; assert that exact behavior.
		{"monthly x1", Recurrence{Frequency: FreqMonthly, Interval: 1}, base.AddDate(0, 1, 0)},
		{"none", Recurrence{Frequency: FreqNone, Interval: 5}, base},
		{"unknown frequency", Recurrence{Frequency: "yearly", Interval: 1}, base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.NextDue(base); !got.Equal(tt.want) {
				t.Errorf("NextDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskMembershipHelpers(t *testing.T) {
	creator := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	sharee := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	task := &Task{
		UserID:      creator,
		AssigneeIDs: []primitive.ObjectID{assignee},
		SharedWith:  []ShareMember{{UserID: sharee, Permission: ShareEditor}},
	}

	if !task.IsCreator(creator) || task.IsCreator(stranger) {
		t.Error("IsCreator misidentified the creator")
	}
	if !task.IsAssignee(assignee) || task.IsAssignee(stranger) {
		t.Error("IsAssignee misidentified the assignee")
	}
	if got := task.SharePermission(sharee); got != ShareEditor {
		t.Errorf("SharePermission(sharee) = %q, want %q", got, ShareEditor)
	}
	if got := task.SharePermission(stranger); got != "" {
		t.Errorf("SharePermission(stranger) = %q, want empty", got)
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name     string
		subtasks []Subtask
		want     int
	}{
		{"no subtasks", nil, 0},
		{"none done", []Subtask{{}, {}}, 0},
		{"half done", []Subtask{{Done: true}, {}}, 50},
		{"one of three", []Subtask{{Done: true}, {}, {}}, 33},
		{"two of three", []Subtask{{Done: true}, {Done: true}, {}}, 67},
		{"all done", []Subtask{{Done: true}, {Done: true}}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Subtasks: tt.subtasks}
			if got := task.ProgressPercent(); got != tt.want {
				t.Errorf("ProgressPercent() = %d, want %d", got, tt.want)
			}
		})
	}
}
