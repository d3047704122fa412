// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_comments")}
}

// Insert writes a new comment. The body arrives already sanitized.
func (s *Store) Insert(ctx context.Context, cm *models.TaskComment) error {
	cm.ID = primitive.NewObjectID()
	cm.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, cm)
	return err
}

// ListByTask returns the task's comments, oldest first.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.TaskComment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TaskComment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
