// internal/app/store/activity/activitystore.go
package activitystore

import (
	"context"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the append-only task activity log. Entries are never
// updated or deleted.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_activities")}
}

// Append writes one activity entry.
func (s *Store) Append(ctx context.Context, a *models.TaskActivity) error {
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, a)
	return err
}

// ListByTask returns the task's activity, newest first, capped at
// limit.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID, limit int) ([]models.TaskActivity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TaskActivity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
