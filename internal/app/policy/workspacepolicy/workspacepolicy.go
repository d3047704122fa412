// internal/app/policy/workspacepolicy.go
package workspacepolicy

import (
	"context"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoleOf returns the user's role in the workspace according to the
// authoritative workspace_members collection. A user with no
// membership gets RoleNone, not an error; callers can then distinguish
// "not authorized" (RoleNone, nil) from "database error" (_, err) and
// fail closed on the latter.
func RoleOf(ctx context.Context, db *mongo.Database, workspaceID, userID primitive.ObjectID) (models.Role, error) {
	c := db.Collection("workspace_members")
	var m models.WorkspaceMember
	err := c.FindOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	return m.Role, nil
}

// ReadableWorkspaceIDs returns the ids of every workspace the user can
// read, which is every workspace they hold any role in.
func ReadableWorkspaceIDs(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	c := db.Collection("workspace_members")
	cur, err := c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.WorkspaceMember
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		if m.Role.CanRead() {
			ids = append(ids, m.WorkspaceID)
		}
	}
	return ids, cur.Err()
}
