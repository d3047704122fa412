package taskpolicy_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/taskflow/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/taskflow/internal/testutil"
)

func TestCanReadPersonalTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	sharee := f.CreateUser(ctx, "Sharee", "sharee@example.com")
	assignee := f.CreateUser(ctx, "Assignee", "assignee@example.com")
	stranger := f.CreateUser(ctx, "Stranger", "stranger@example.com")

	task := f.CreatePersonalTask(ctx, owner.ID, "Private task")
	task.SharedWith = []models.ShareMember{{UserID: sharee.ID, Permission: models.ShareViewer}}
	task.AssigneeIDs = []primitive.ObjectID{assignee.ID}

	tests := []struct {
		name   string
		userID primitive.ObjectID
		want   bool
	}{
		{"creator", owner.ID, true},
		{"viewer share", sharee.ID, true},
		{"assignee", assignee.ID, true},
		{"stranger", stranger.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := taskpolicy.CanRead(ctx, db, &task, tt.userID)
			if err != nil {
				t.Fatalf("CanRead error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanRead = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanWritePersonalTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	viewer := f.CreateUser(ctx, "Viewer", "viewer@example.com")
	editor := f.CreateUser(ctx, "Editor", "editor@example.com")

	task := f.CreatePersonalTask(ctx, owner.ID, "Private task")
	task.SharedWith = []models.ShareMember{
		{UserID: viewer.ID, Permission: models.ShareViewer},
		{UserID: editor.ID, Permission: models.ShareEditor},
	}

	tests := []struct {
		name   string
		userID primitive.ObjectID
		want   bool
	}{
		{"creator", owner.ID, true},
		{"editor share", editor.ID, true},
		{"viewer share is read only", viewer.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := taskpolicy.CanWrite(ctx, db, &task, tt.userID)
			if err != nil {
				t.Fatalf("CanWrite error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanWrite = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainerTaskAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	member := f.CreateUser(ctx, "Member", "member@example.com")
	viewer := f.CreateUser(ctx, "Viewer", "viewer@example.com")
	outsider := f.CreateUser(ctx, "Outsider", "outsider@example.com")

	ws := f.CreateWorkspace(ctx, "Team", owner.ID)
	f.AddWorkspaceMember(ctx, ws.ID, member.ID, models.RoleMember)
	f.AddWorkspaceMember(ctx, ws.ID, viewer.ID, models.RoleViewer)

	task := f.CreateWorkspaceTask(ctx, owner.ID, ws.ID, "Team task")

	t.Run("member can read and write", func(t *testing.T) {
		if ok, err := taskpolicy.CanRead(ctx, db, &task, member.ID); err != nil || !ok {
			t.Errorf("CanRead(member) = %v, %v, want true", ok, err)
		}
		if ok, err := taskpolicy.CanWrite(ctx, db, &task, member.ID); err != nil || !ok {
			t.Errorf("CanWrite(member) = %v, %v, want true", ok, err)
		}
	})

	t.Run("viewer reads but cannot write", func(t *testing.T) {
		if ok, err := taskpolicy.CanRead(ctx, db, &task, viewer.ID); err != nil || !ok {
			t.Errorf("CanRead(viewer) = %v, %v, want true", ok, err)
		}
		if ok, err := taskpolicy.CanWrite(ctx, db, &task, viewer.ID); err != nil || ok {
			t.Errorf("CanWrite(viewer) = %v, %v, want false", ok, err)
		}
	})

	t.Run("outsider sees nothing", func(t *testing.T) {
		if ok, err := taskpolicy.CanRead(ctx, db, &task, outsider.ID); err != nil || ok {
			t.Errorf("CanRead(outsider) = %v, %v, want false", ok, err)
		}
	})
}

func TestAmbiguousScopeDenied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	wsID := primitive.NewObjectID()
	projID := primitive.NewObjectID()

	// A corrupt document with both container ids must fail closed,
	// even for its creator.
	task := models.Task{UserID: primitive.NewObjectID(), WorkspaceID: &wsID, ProjectID: &projID}
	if ok, err := taskpolicy.CanWrite(ctx, db, &task, owner.ID); err == nil || ok {
		t.Errorf("CanWrite(ambiguous) = %v, %v, want false with error", ok, err)
	}
}

func TestVisibilityFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)

	alice := f.CreateUser(ctx, "Alice", "alice@example.com")
	bob := f.CreateUser(ctx, "Bob", "bob@example.com")

	ws := f.CreateWorkspace(ctx, "Shared WS", alice.ID)
	f.AddWorkspaceMember(ctx, ws.ID, bob.ID, models.RoleViewer)

	mine := f.CreatePersonalTask(ctx, alice.ID, "Mine")
	_ = f.CreatePersonalTask(ctx, bob.ID, "Bob private")
	team := f.CreateWorkspaceTask(ctx, bob.ID, ws.ID, "Team task")

	filter, err := taskpolicy.VisibilityFilter(ctx, db, alice.ID)
	if err != nil {
		t.Fatalf("VisibilityFilter error: %v", err)
	}

	cur, err := db.Collection("tasks").Find(ctx, filter)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	var got []models.Task
	if err := cur.All(ctx, &got); err != nil {
		t.Fatalf("cursor error: %v", err)
	}

	ids := make(map[primitive.ObjectID]bool, len(got))
	for _, tk := range got {
		ids[tk.ID] = true
	}
	if len(got) != 2 || !ids[mine.ID] || !ids[team.ID] {
		t.Errorf("visible tasks = %d (%v), want exactly Mine and Team task", len(got), ids)
	}
}
