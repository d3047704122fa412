package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/taskflow/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with default notification preferences.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                      primitive.NewObjectID(),
		Name:                    name,
		Email:                   email,
		EmailCI:                 text.Fold(email),
		PasswordHash:            "test-hash",
		NotificationPreferences: models.DefaultNotificationPreferences(),
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateWorkspace creates a workspace and its owner membership row, the
// same pair the workspace store writes.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string, ownerID primitive.ObjectID) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("workspaces").InsertOne(ctx, ws); err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}
	f.AddWorkspaceMember(ctx, ws.ID, ownerID, models.RoleOwner)
	return ws
}

// AddWorkspaceMember inserts a workspace membership row directly.
func (f *Fixtures) AddWorkspaceMember(ctx context.Context, workspaceID, userID primitive.ObjectID, role models.Role) {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.WorkspaceMember{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("workspace_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test workspace membership: %v", err)
	}
}

// CreateProject creates a project and its owner membership row.
func (f *Fixtures) CreateProject(ctx context.Context, name string, ownerID primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	f.AddProjectMember(ctx, p.ID, ownerID, models.RoleOwner)
	return p
}

// AddProjectMember inserts a project membership row directly.
func (f *Fixtures) AddProjectMember(ctx context.Context, projectID, userID primitive.ObjectID, role models.Role) {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.ProjectMember{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("project_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test project membership: %v", err)
	}
}

// CreatePersonalTask creates a personal task owned by the given user.
func (f *Fixtures) CreatePersonalTask(ctx context.Context, userID primitive.ObjectID, title string) models.Task {
	f.t.Helper()
	return f.insertTask(ctx, models.Task{UserID: userID, Title: title})
}

// CreateWorkspaceTask creates a task inside a workspace.
func (f *Fixtures) CreateWorkspaceTask(ctx context.Context, userID, workspaceID primitive.ObjectID, title string) models.Task {
	f.t.Helper()
	return f.insertTask(ctx, models.Task{UserID: userID, WorkspaceID: &workspaceID, Title: title})
}

// CreateProjectTask creates a task inside a project.
func (f *Fixtures) CreateProjectTask(ctx context.Context, userID, projectID primitive.ObjectID, title string) models.Task {
	f.t.Helper()
	return f.insertTask(ctx, models.Task{UserID: userID, ProjectID: &projectID, Title: title})
}

func (f *Fixtures) insertTask(ctx context.Context, t models.Task) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
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
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := f.db.Collection("tasks").InsertOne(ctx, t); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return t
}
