// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no workspace matches the lookup.
var ErrNotFound = errors.New("workspace not found")

type Store struct {
	c       *mongo.Collection
	members *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("workspaces"),
		members: db.Collection("workspace_members"),
	}
}

// Create inserts the workspace and the creator's owner membership.
// The store has no multi-document transaction; if the membership
// insert fails the workspace document is removed again so no
// ownerless workspace survives.
func (s *Store) Create(ctx context.Context, name string, ownerID primitive.ObjectID) (*models.Workspace, error) {
	now := time.Now().UTC()
	ws := &models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		return nil, err
	}

	member := models.WorkspaceMember{
		ID:          primitive.NewObjectID(),
		WorkspaceID: ws.ID,
		UserID:      ownerID,
		Role:        models.RoleOwner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.members.InsertOne(ctx, member); err != nil {
		_, _ = s.c.DeleteOne(ctx, bson.M{"_id": ws.ID})
		return nil, err
	}
	return ws, nil
}

// ByID returns the workspace with the given id.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// ByIDs returns the workspaces for the given ids, unordered.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Workspace, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Workspace
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
