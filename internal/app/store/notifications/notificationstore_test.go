package notificationstore_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	notificationstore "github.com/dalemusser/taskflow/internal/app/store/notifications"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/taskflow/internal/testutil"
)

func insertNotification(t *testing.T, store *notificationstore.Store, userID primitive.ObjectID, title string) *models.Notification {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n := &models.Notification{
		UserID:  userID,
		Type:    models.NotificationDueSoon,
		Title:   title,
		Message: "Task is due soon",
	}
	if err := store.Insert(ctx, n); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	return n
}

func TestListAndCountUnread(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := notificationstore.New(db)

	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	insertNotification(t, store, userID, "first")
	n2 := insertNotification(t, store, userID, "second")
	insertNotification(t, store, other, "not mine")

	if _, err := store.MarkRead(ctx, n2.ID, userID); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}

	all, err := store.List(ctx, userID, false, 50)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(all) = %d, want 2", len(all))
	}

	unread, err := store.List(ctx, userID, true, 50)
	if err != nil {
		t.Fatalf("List(unread) error: %v", err)
	}
	if len(unread) != 1 || unread[0].Title != "first" {
		t.Errorf("List(unread) = %+v, want only the unread one", unread)
	}

	count, err := store.CountUnread(ctx, userID)
	if err != nil {
		t.Fatalf("CountUnread error: %v", err)
	}
	if count != 1 {
		t.Errorf("CountUnread = %d, want 1", count)
	}
}

func TestMarkReadOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := notificationstore.New(db)

	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	n := insertNotification(t, store, owner, "mine")

	// Another user cannot acknowledge someone else's notification.
	if _, err := store.MarkRead(ctx, n.ID, intruder); err != notificationstore.ErrNotFound {
		t.Errorf("MarkRead(wrong user) error = %v, want ErrNotFound", err)
	}

	got, err := store.MarkRead(ctx, n.ID, owner)
	if err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}
	if got.ReadAt == nil {
		t.Error("MarkRead did not set read_at")
	}
}

func TestMarkAllRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := notificationstore.New(db)

	userID := primitive.NewObjectID()
	insertNotification(t, store, userID, "a")
	insertNotification(t, store, userID, "b")
	insertNotification(t, store, userID, "c")

	updated, err := store.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("MarkAllRead error: %v", err)
	}
	if updated != 3 {
		t.Errorf("MarkAllRead = %d, want 3", updated)
	}

	count, err := store.CountUnread(ctx, userID)
	if err != nil {
		t.Fatalf("CountUnread error: %v", err)
	}
	if count != 0 {
		t.Errorf("CountUnread after MarkAllRead = %d, want 0", count)
	}
}

func TestPendingEmailsRetryFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := notificationstore.New(db)

	userID := primitive.NewObjectID()
	n := insertNotification(t, store, userID, "email me")
	now := time.Now().UTC()

	pending, err := store.PendingEmails(ctx, 5, now, 10)
	if err != nil {
		t.Fatalf("PendingEmails error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("PendingEmails = %d, want 1", len(pending))
	}

	// A failure schedules a backoff; the notification disappears from
	// the queue until the backoff passes.
	next := now.Add(15 * time.Minute)
	if err := store.RecordEmailFailure(ctx, n.ID, errors.New("smtp down"), next); err != nil {
		t.Fatalf("RecordEmailFailure error: %v", err)
	}
	pending, err = store.PendingEmails(ctx, 5, now, 10)
	if err != nil {
		t.Fatalf("PendingEmails error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("PendingEmails during backoff = %d, want 0", len(pending))
	}
	pending, err = store.PendingEmails(ctx, 5, next.Add(time.Second), 10)
	if err != nil {
		t.Fatalf("PendingEmails error: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("PendingEmails after backoff = %d, want 1", len(pending))
	}

	// Hitting the attempt cap drops it for good.
	pending, err = store.PendingEmails(ctx, 1, next.Add(time.Second), 10)
	if err != nil {
		t.Fatalf("PendingEmails error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("PendingEmails at attempt cap = %d, want 0", len(pending))
	}

	// Success removes it from the queue permanently.
	if err := store.RecordEmailSent(ctx, n.ID, now); err != nil {
		t.Fatalf("RecordEmailSent error: %v", err)
	}
	pending, err = store.PendingEmails(ctx, 5, next.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("PendingEmails error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("PendingEmails after send = %d, want 0", len(pending))
	}
}
