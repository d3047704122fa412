// internal/app/policy/taskpolicy.go
package taskpolicy

import (
	"context"

	"github.com/dalemusser/taskflow/internal/app/policy/projectpolicy"
	"github.com/dalemusser/taskflow/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoleForScope resolves the user's role in the task's container.
// Personal scope has no container and no role.
func RoleForScope(ctx context.Context, db *mongo.Database, scope models.Scope, userID primitive.ObjectID) (models.Role, error) {
	switch scope.Kind {
	case models.ScopeWorkspace:
		return workspacepolicy.RoleOf(ctx, db, scope.ID, userID)
	case models.ScopeProject:
		return projectpolicy.RoleOf(ctx, db, scope.ID, userID)
	default:
		return models.RoleNone, nil
	}
}

// CanRead reports whether the user may see the task. Creator,
// assignees and shared users always can; otherwise any role in the
// task's container grants read. Errors mean the answer is unknown and
// the caller must deny.
func CanRead(ctx context.Context, db *mongo.Database, t *models.Task, userID primitive.ObjectID) (bool, error) {
	if t.IsCreator(userID) || t.IsAssignee(userID) || t.SharePermission(userID) != "" {
		return true, nil
	}
	scope, err := t.Scope()
	if err != nil {
		return false, err
	}
	if scope.Kind == models.ScopePersonal {
		return false, nil
	}
	role, err := RoleForScope(ctx, db, scope, userID)
	if err != nil {
		return false, err
	}
	return role.CanRead(), nil
}

// CanWrite reports whether the user may mutate the task. Container
// tasks are governed by the container role alone; per-task shares do
// not widen write access there. Personal tasks are writable by the
// creator, an assignee, or an editor share.
func CanWrite(ctx context.Context, db *mongo.Database, t *models.Task, userID primitive.ObjectID) (bool, error) {
	scope, err := t.Scope()
	if err != nil {
		return false, err
	}
	if scope.Kind != models.ScopePersonal {
		role, err := RoleForScope(ctx, db, scope, userID)
		if err != nil {
			return false, err
		}
		return role.CanWrite(), nil
	}
	if t.IsCreator(userID) || t.IsAssignee(userID) {
		return true, nil
	}
	return t.SharePermission(userID) == models.ShareEditor, nil
}

// CanWriteScope reports whether the user may create a task in the
// scope, or move one into it. Anyone can create personal tasks.
func CanWriteScope(ctx context.Context, db *mongo.Database, scope models.Scope, userID primitive.ObjectID) (bool, error) {
	if scope.Kind == models.ScopePersonal {
		return true, nil
	}
	role, err := RoleForScope(ctx, db, scope, userID)
	if err != nil {
		return false, err
	}
	return role.CanWrite(), nil
}

// VisibilityFilter builds the query clause matching every task the
// user may read: created by them, assigned to them, shared with them,
// or living in a container they belong to. List endpoints AND this
// with their own filters so nothing outside it can be returned.
func VisibilityFilter(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (bson.M, error) {
	wsIDs, err := workspacepolicy.ReadableWorkspaceIDs(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	projIDs, err := projectpolicy.ReadableProjectIDs(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	or := []bson.M{
		{"user_id": userID},
		{"assignee_ids": userID},
		{"shared_with.user_id": userID},
	}
	if len(wsIDs) > 0 {
		or = append(or, bson.M{"workspace_id": bson.M{"$in": wsIDs}})
	}
	if len(projIDs) > 0 {
		or = append(or, bson.M{"project_id": bson.M{"$in": projIDs}})
	}
	return bson.M{"$or": or}, nil
}
