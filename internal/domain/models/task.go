// internal/domain/models/task.go
package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Recurrence frequencies.
const (
	FreqNone    = "none"
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
)

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidFrequency reports whether f is a known recurrence frequency.
func ValidFrequency(f string) bool {
	return f == FreqNone || f == FreqDaily || f == FreqWeekly || f == FreqMonthly
}

// ScopeKind discriminates the three places a task can live.
type ScopeKind string

const (
	ScopePersonal  ScopeKind = "personal"
	ScopeWorkspace ScopeKind = "workspace"
	ScopeProject   ScopeKind = "project"
)

// Scope is the tagged variant form of a task's container association:
// personal (no container), workspace-scoped, or project-scoped. The
// stored document keeps the two-pointer layout for index compatibility;
// Scope() is the only sanctioned way to read it, and it rejects
// documents that carry both container ids.
type Scope struct {
	Kind ScopeKind
	ID   primitive.ObjectID // container id; zero for personal tasks
}

// PersonalScope returns the scope of a task with no container.
func PersonalScope() Scope { return Scope{Kind: ScopePersonal} }

// WorkspaceScope returns the scope of a workspace-scoped task.
func WorkspaceScope(id primitive.ObjectID) Scope {
	return Scope{Kind: ScopeWorkspace, ID: id}
}

// ProjectScope returns the scope of a project-scoped task.
func ProjectScope(id primitive.ObjectID) Scope {
	return Scope{Kind: ScopeProject, ID: id}
}

// ErrAmbiguousScope is returned for task documents that carry both a
// workspace id and a project id. The layout permits it; the model
// rejects it rather than silently preferring one container.
var ErrAmbiguousScope = errors.New("task has both workspace and project ids")

// Subtask is an embedded checklist item. IDs are caller-supplied
// (UUIDs) so clients can address items without a round trip.
type Subtask struct {
	ID    string `bson:"id" json:"id"`
	Title string `bson:"title" json:"title"`
	Done  bool   `bson:"done" json:"done"`
}

// Attachment is file metadata linked to a task. Blob storage is
// handled elsewhere; the task only carries the descriptor.
type Attachment struct {
	ID         string    `bson:"id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	URL        string    `bson:"url" json:"url"`
	MimeType   string    `bson:"mime_type" json:"mimeType"`
	Size       int64     `bson:"size" json:"size"`
	Provider   string    `bson:"provider" json:"provider"`
	StorageKey string    `bson:"storage_key" json:"storageKey"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// Share permissions for personal-task sharing.
const (
	ShareViewer = "viewer"
	ShareEditor = "editor"
)

// ShareMember is a per-task, per-user grant on a personal task.
// At most one entry per user; re-sharing updates the permission in
// place.
type ShareMember struct {
	UserID     primitive.ObjectID `bson:"user_id" json:"userId"`
	Permission string             `bson:"permission" json:"permission"`
}

// Recurrence describes how a completed task respawns.
type Recurrence struct {
	Frequency string `bson:"frequency" json:"frequency"`
	Interval  int    `bson:"interval" json:"interval"`
}

// NextDue advances base by Interval units of Frequency. The caller
// picks the base (the old due date, or now when there was none).
func (r Recurrence) NextDue(base time.Time) time.Time {
	switch r.Frequency {
	case FreqDaily:
		return base.AddDate(0, 0, r.Interval)
	case FreqWeekly:
		return base.AddDate(0, 0, 7*r.Interval)
	case FreqMonthly:
		return base.AddDate(0, r.Interval, 0)
	}
	return base
}

// LinkedResource is an optional external link attached to a task.
type LinkedResource struct {
	Title string `bson:"title" json:"title"`
	URL   string `bson:"url" json:"url"`
}

// TaskSource identifies the external task an import created this task
// from. A partial unique index on (user_id, source.provider,
// source.task_id) makes re-import idempotent.
type TaskSource struct {
	Provider  string `bson:"provider" json:"provider"`
	ListID    string `bson:"list_id" json:"listId"`
	TaskID    string `bson:"task_id" json:"taskId"`
	ListTitle string `bson:"list_title,omitempty" json:"listTitle,omitempty"`
}

// Source providers.
const SourceMicrosoftTodo = "microsoft_todo"

// Task is the central entity. UserID is the creator and, for personal
// tasks, the owner. WorkspaceID and ProjectID are mutually exclusive;
// use Scope() to read them.
type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID   `bson:"user_id" json:"userId"`
	WorkspaceID *primitive.ObjectID  `bson:"workspace_id,omitempty" json:"workspaceId,omitempty"`
	ProjectID   *primitive.ObjectID  `bson:"project_id,omitempty" json:"projectId,omitempty"`
	AssigneeIDs []primitive.ObjectID `bson:"assignee_ids" json:"assigneeIds"`

	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Status      string     `bson:"status" json:"status"`
	Priority    string     `bson:"priority" json:"priority"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"dueDate,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`

	Subtasks    []Subtask       `bson:"subtasks" json:"subtasks"`
	Attachments []Attachment    `bson:"attachments" json:"attachments"`
	SharedWith  []ShareMember   `bson:"shared_with" json:"sharedWith"`
	Recurrence  Recurrence      `bson:"recurrence" json:"recurrence"`
	Linked      *LinkedResource `bson:"linked_resource,omitempty" json:"linkedResource,omitempty"`
	Source      *TaskSource     `bson:"source,omitempty" json:"source,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Scope returns the task's container association as a tagged variant.
// Documents carrying both container ids are rejected with
// ErrAmbiguousScope.
func (t *Task) Scope() (Scope, error) {
	switch {
	case t.WorkspaceID != nil && t.ProjectID != nil:
		return Scope{}, ErrAmbiguousScope
	case t.WorkspaceID != nil:
		return WorkspaceScope(*t.WorkspaceID), nil
	case t.ProjectID != nil:
		return ProjectScope(*t.ProjectID), nil
	default:
		return PersonalScope(), nil
	}
}

// SetScope rewrites the stored container fields from a tagged variant.
func (t *Task) SetScope(s Scope) {
	t.WorkspaceID = nil
	t.ProjectID = nil
	switch s.Kind {
	case ScopeWorkspace:
		id := s.ID
		t.WorkspaceID = &id
	case ScopeProject:
		id := s.ID
		t.ProjectID = &id
	}
}

// IsCreator reports whether userID created the task.
func (t *Task) IsCreator(userID primitive.ObjectID) bool {
	return t.UserID == userID
}

// IsAssignee reports whether userID is among the task's assignees.
func (t *Task) IsAssignee(userID primitive.ObjectID) bool {
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SharePermission returns the share permission granted to userID, or
// "" when no share entry exists.
func (t *Task) SharePermission(userID primitive.ObjectID) string {
	for _, m := range t.SharedWith {
		if m.UserID == userID {
			return m.Permission
		}
	}
	return ""
}

// ProgressPercent is the share of subtasks marked done, rounded to the
// nearest whole percent. Zero when there are no subtasks.
func (t *Task) ProgressPercent() int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	done := 0
	for _, s := range t.Subtasks {
		if s.Done {
			done++
		}
	}
	return int(float64(done)/float64(len(t.Subtasks))*100 + 0.5)
}
