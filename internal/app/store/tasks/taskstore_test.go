package taskstore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	taskstore "github.com/dalemusser/taskflow/internal/app/store/tasks"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/taskflow/internal/testutil"
)

func TestInsertAndByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := taskstore.New(db)

	task := &models.Task{
		UserID:   primitive.NewObjectID(),
		Title:    "Write tests",
		Status:   models.StatusTodo,
		Priority: models.PriorityMedium,
	}
	if err := store.Insert(ctx, task); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if task.ID.IsZero() {
		t.Fatal("Insert did not assign an id")
	}

	got, err := store.ByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if got.Title != "Write tests" {
		t.Errorf("title = %q, want %q", got.Title, "Write tests")
	}

	if _, err := store.ByID(ctx, primitive.NewObjectID()); err != taskstore.ErrNotFound {
		t.Errorf("ByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSaveAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := taskstore.New(db)

	task := &models.Task{UserID: primitive.NewObjectID(), Title: "Before", Status: models.StatusTodo, Priority: models.PriorityLow}
	if err := store.Insert(ctx, task); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	task.Title = "After"
	task.Status = models.StatusInProgress
	if err := store.Save(ctx, task); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := store.ByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if got.Title != "After" || got.Status != models.StatusInProgress {
		t.Errorf("saved task = %q/%q, want After/in_progress", got.Title, got.Status)
	}

	if err := store.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.ByID(ctx, task.ID); err != taskstore.ErrNotFound {
		t.Errorf("ByID after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, task.ID); err != taskstore.ErrNotFound {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestListPagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := taskstore.New(db)

	userID := primitive.NewObjectID()
	for i := 0; i < 5; i++ {
		task := &models.Task{UserID: userID, Title: "Task", Status: models.StatusTodo, Priority: models.PriorityMedium}
		if err := store.Insert(ctx, task); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}

	filter := bson.M{"user_id": userID}
	sort := bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

	page1, total, err := store.List(ctx, filter, sort, 1, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page1) != 2 {
		t.Errorf("page 1 size = %d, want 2", len(page1))
	}

	page3, _, err := store.List(ctx, filter, sort, 3, 2)
	if err != nil {
		t.Fatalf("List page 3 error: %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("page 3 size = %d, want 1", len(page3))
	}
}

func TestUpsertImportedIdempotence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := taskstore.New(db)

	userID := primitive.NewObjectID()
	imported := &models.Task{
		UserID:   userID,
		Title:    "From To Do",
		Status:   models.StatusTodo,
		Priority: models.PriorityMedium,
		Source: &models.TaskSource{
			Provider: models.SourceMicrosoftTodo,
			ListID:   "list-1",
			TaskID:   "ext-42",
		},
	}

	first, created, err := store.UpsertImported(ctx, imported)
	if err != nil {
		t.Fatalf("first UpsertImported error: %v", err)
	}
	if !created {
		t.Error("first upsert should report created")
	}

	// Re-importing the same external task updates in place.
	imported.Title = "From To Do (renamed)"
	imported.Status = models.StatusDone
	second, created, err := store.UpsertImported(ctx, imported)
	if err != nil {
		t.Fatalf("second UpsertImported error: %v", err)
	}
	if created {
		t.Error("second upsert should not report created")
	}
	if second.ID != first.ID {
		t.Errorf("second upsert made a new document: %s vs %s", second.ID.Hex(), first.ID.Hex())
	}
	if second.Title != "From To Do (renamed)" || second.Status != models.StatusDone {
		t.Errorf("second upsert did not apply updates: %q/%q", second.Title, second.Status)
	}

	n, err := db.Collection("tasks").CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if n != 1 {
		t.Errorf("task count = %d, want 1", n)
	}
}

func TestUpsertImportedRequiresSource(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := taskstore.New(db)

	task := &models.Task{UserID: primitive.NewObjectID(), Title: "No source"}
	if _, _, err := store.UpsertImported(ctx, task); err == nil {
		t.Error("expected error for task without source")
	}
}

func TestDueBetween(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := taskstore.New(db)

	userID := primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)
	soon := now.Add(30 * time.Minute)
	later := now.Add(3 * time.Hour)

	insert := func(title, status string, due *time.Time) {
		t.Helper()
		task := &models.Task{UserID: userID, Title: title, Status: status, Priority: models.PriorityMedium, DueDate: due}
		if err := store.Insert(ctx, task); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}

	insert("due soon", models.StatusTodo, &soon)
	insert("due soon but done", models.StatusDone, &soon)
	insert("due later", models.StatusTodo, &later)
	insert("no due date", models.StatusTodo, nil)

	got, err := store.DueBetween(ctx, now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("DueBetween error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "due soon" {
		t.Errorf("DueBetween = %d tasks, want only the undone task inside the window", len(got))
	}
}
