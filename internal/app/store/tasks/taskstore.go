// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no task matches the lookup.
var ErrNotFound = errors.New("task not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Insert writes a new task. The caller has already validated the scope;
// timestamps and the id are assigned here.
func (s *Store) Insert(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.AssigneeIDs == nil {
		t.AssigneeIDs = []primitive.ObjectID{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}
	if t.Attachments == nil {
		t.Attachments = []models.Attachment{}
	}
	if t.SharedWith == nil {
		t.SharedWith = []models.ShareMember{}
	}
	_, err := s.c.InsertOne(ctx, t)
	return err
}

// ByID returns the task with the given id. Documents carrying both
// container ids are rejected here, before any policy check can run on
// them.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := t.Scope(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Save replaces the full task document and bumps updated_at.
func (s *Store) Save(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List runs the given filter with sort and offset pagination and
// returns the page plus the total match count.
func (s *Store) List(ctx context.Context, filter bson.M, sort bson.D, page, pageSize int) ([]models.Task, int64, error) {
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Find returns every task matching the filter, unpaged. Export and
// analytics use it.
func (s *Store) Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Task, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertImported writes an externally sourced task keyed by
// (user, provider, external id). Re-importing the same external task
// updates the existing document instead of duplicating it; create-only
// fields stay untouched on the update path.
func (s *Store) UpsertImported(ctx context.Context, t *models.Task) (*models.Task, bool, error) {
	if t.Source == nil {
		return nil, false, errors.New("imported task has no source")
	}
	now := time.Now().UTC()
	filter := bson.M{
		"user_id":         t.UserID,
		"source.provider": t.Source.Provider,
		"source.task_id":  t.Source.TaskID,
	}
	update := bson.M{
		"$set": bson.M{
			"title":       t.Title,
			"description": t.Description,
			"status":      t.Status,
			"priority":    t.Priority,
			"due_date":    t.DueDate,
			"source":      t.Source,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"user_id":      t.UserID,
			"assignee_ids": []primitive.ObjectID{},
			"subtasks":     []models.Subtask{},
			"attachments":  []models.Attachment{},
			"shared_with":  []models.ShareMember{},
			"recurrence":   models.Recurrence{Frequency: models.FreqNone},
			"created_at":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Task
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, false, err
	}
	created := saved.CreatedAt.Equal(saved.UpdatedAt)
	return &saved, created, nil
}

// DueBetween returns undone tasks whose due date falls inside
// [from, to). The reminder worker scans this window.
func (s *Store) DueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	filter := bson.M{
		"status":   bson.M{"$ne": models.StatusDone},
		"due_date": bson.M{"$gte": from, "$lt": to},
	}
	return s.Find(ctx, filter, bson.D{{Key: "due_date", Value: 1}})
}
