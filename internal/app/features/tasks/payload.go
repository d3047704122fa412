// internal/app/features/tasks/payload.go
package tasks

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// optionalTime distinguishes "field absent" from "field set to null"
// in update payloads, so clients can clear a due date.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// optionalString distinguishes absent from explicit-empty container
// ids in update payloads, so clients can move a task back to personal
// scope.
type optionalString struct {
	Set   bool
	Value string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// parseScope turns the payload's workspaceId/projectId pair into a
// scope, rejecting payloads that set both.
func parseScope(workspaceID, projectID string) (models.Scope, error) {
	if workspaceID != "" && projectID != "" {
		return models.Scope{}, models.ErrAmbiguousScope
	}
	if workspaceID != "" {
		id, err := primitive.ObjectIDFromHex(workspaceID)
		if err != nil {
			return models.Scope{}, errors.New("invalid workspace id")
		}
		return models.WorkspaceScope(id), nil
	}
	if projectID != "" {
		id, err := primitive.ObjectIDFromHex(projectID)
		if err != nil {
			return models.Scope{}, errors.New("invalid project id")
		}
		return models.ProjectScope(id), nil
	}
	return models.PersonalScope(), nil
}

type subtaskPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// normalizeSubtasks sanitizes titles and assigns ids to new items.
// Items with no title are dropped.
func normalizeSubtasks(in []subtaskPayload) []models.Subtask {
	out := make([]models.Subtask, 0, len(in))
	for _, s := range in {
		title := strings.TrimSpace(htmlsanitize.StripTags(s.Title))
		if title == "" {
			continue
		}
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, models.Subtask{ID: id, Title: title, Done: s.Done})
	}
	return out
}

// normalizeRecurrence validates a recurrence payload. A nil input
// means "no recurrence".
func normalizeRecurrence(in *models.Recurrence) (models.Recurrence, error) {
	if in == nil {
		return models.Recurrence{Frequency: models.FreqNone}, nil
	}
	if !models.ValidFrequency(in.Frequency) {
		return models.Recurrence{}, errors.New("recurrence frequency must be none, daily, weekly, or monthly")
	}
	r := *in
	if r.Frequency == models.FreqNone {
		r.Interval = 0
		return r, nil
	}
	if r.Interval < 1 {
		r.Interval = 1
	}
	return r, nil
}

// parseAssigneeIDs converts and deduplicates assignee id strings.
func parseAssigneeIDs(in []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(in))
	seen := make(map[primitive.ObjectID]struct{}, len(in))
	for _, s := range in {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, errors.New("invalid assignee id")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
