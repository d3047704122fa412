// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no project matches the lookup.
var ErrNotFound = errors.New("project not found")

type Store struct {
	c       *mongo.Collection
	members *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("projects"),
		members: db.Collection("project_members"),
	}
}

// Create inserts the project and the creator's owner membership. As
// with workspaces, a failed membership insert rolls the project
// document back so the at-least-one-owner invariant holds.
func (s *Store) Create(ctx context.Context, name, description string, ownerID primitive.ObjectID) (*models.Project, error) {
	now := time.Now().UTC()
	p := &models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return nil, err
	}

	member := models.ProjectMember{
		ID:        primitive.NewObjectID(),
		ProjectID: p.ID,
		UserID:    ownerID,
		Role:      models.RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.members.InsertOne(ctx, member); err != nil {
		_, _ = s.c.DeleteOne(ctx, bson.M{"_id": p.ID})
		return nil, err
	}
	return p, nil
}

// ByID returns the project with the given id.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ByIDs returns the projects for the given ids, unordered.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
