// internal/app/policy/projectpolicy.go
package projectpolicy

import (
	"context"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoleOf returns the user's role in the project according to the
// authoritative project_members collection. No membership means
// RoleNone with a nil error; a database failure keeps the caller from
// granting anything.
func RoleOf(ctx context.Context, db *mongo.Database, projectID, userID primitive.ObjectID) (models.Role, error) {
	c := db.Collection("project_members")
	var m models.ProjectMember
	err := c.FindOne(ctx, bson.M{"project_id": projectID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	return m.Role, nil
}

// ReadableProjectIDs returns the ids of every project the user can
// read.
func ReadableProjectIDs(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	c := db.Collection("project_members")
	cur, err := c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.ProjectMember
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		if m.Role.CanRead() {
			ids = append(ids, m.ProjectID)
		}
	}
	return ids, cur.Err()
}
