// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureWorkspaceMembers(ctx, db); err != nil {
		problems = append(problems, "workspace_members: "+err.Error())
	}
	if err := ensureProjectMembers(ctx, db); err != nil {
		problems = append(problems, "project_members: "+err.Error())
	}
	if err := ensureWorkspaceInvites(ctx, db); err != nil {
		problems = append(problems, "workspace_invites: "+err.Error())
	}
	if err := ensureTasks(ctx, db); err != nil {
		problems = append(problems, "tasks: "+err.Error())
	}
	if err := ensureTaskActivities(ctx, db); err != nil {
		problems = append(problems, "task_activities: "+err.Error())
	}
	if err := ensureTaskComments(ctx, db); err != nil {
		problems = append(problems, "task_comments: "+err.Error())
	}
	if err := ensureNotifications(ctx, db); err != nil {
		problems = append(problems, "notifications: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	// Load existing indexes once per collection.
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
		cur.Close(ctx)
	}

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users (case/diacritics folded)
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
	})
}

func ensureWorkspaceMembers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("workspace_members")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one membership per (workspace, user); role is scalar,
		// update the doc to change it
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_wsm_workspace_user"),
		},
		// Fast: list a user's workspaces
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("idx_wsm_user_workspace"),
		},
	})
}

func ensureProjectMembers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("project_members")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_pm_project_user"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "project_id", Value: 1}},
			Options: options.Index().SetName("idx_pm_user_project"),
		},
	})
}

func ensureWorkspaceInvites(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("workspace_invites")
	partialPending := options.Index().
		SetUnique(true).
		SetName("uniq_invites_workspace_email_pending").
		SetPartialFilterExpression(bson.M{"status": "pending"})
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Tokens are lookup keys; they must never collide
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_invites_token"),
		},
		// At most one pending invite per (workspace, email); accepted,
		// revoked and expired rows do not block a re-invite
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "email", Value: 1}},
			Options: partialPending,
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_invites_workspace_created"),
		},
	})
}

func ensureTasks(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("tasks")
	importKey := options.Index().
		SetUnique(true).
		SetName("uniq_tasks_user_source").
		SetPartialFilterExpression(bson.M{"source.provider": bson.M{"$exists": true}})
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// List pages: newest-first per creator / assignee / container
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_tasks_user_created"),
		},
		{
			Keys:    bson.D{{Key: "assignee_ids", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_tasks_assignees_created"),
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_tasks_workspace_created"),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_tasks_project_created"),
		},
		// Reminder worker scans the due window
		{
			Keys:    bson.D{{Key: "due_date", Value: 1}},
			Options: options.Index().SetName("idx_tasks_due"),
		},
		// Idempotent external import: one task per (user, provider,
		// external id); tasks without a source are exempt
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "source.provider", Value: 1},
				{Key: "source.task_id", Value: 1},
			},
			Options: importKey,
		},
	})
}

func ensureTaskActivities(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("task_activities")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activities_task_created"),
		},
	})
}

func ensureTaskComments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("task_comments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_comments_task_created"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("notifications")
	dueKey := options.Index().
		SetUnique(true).
		SetName("uniq_notifications_user_type_task_due").
		SetPartialFilterExpression(bson.M{"task_id": bson.M{"$exists": true}})
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Feed pages and unread counts
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "read_at", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_notifications_user_read_created"),
		},
		// One reminder per (user, type, task, deadline); re-running the
		// worker over the same window inserts nothing new
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "task_id", Value: 1},
				{Key: "due_at", Value: 1},
			},
			Options: dueKey,
		},
		// Email retry scan
		{
			Keys: bson.D{
				{Key: "emailed_at", Value: 1},
				{Key: "next_email_attempt_at", Value: 1},
			},
			Options: options.Index().SetName("idx_notifications_email_pending"),
		},
	})
}
