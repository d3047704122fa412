package userstore_test

import (
	"testing"

	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/indexes"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/taskflow/internal/testutil"
)

func TestCreateAndLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll error: %v", err)
	}
	store := userstore.New(db)

	u := &models.User{Name: "Alice", Email: "Alice@Example.com", PasswordHash: "hash"}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.ID.IsZero() {
		t.Fatal("Create did not assign an id")
	}

	got, err := store.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if got.Email != "Alice@Example.com" {
		t.Errorf("email = %q, original casing should be preserved", got.Email)
	}

	// Lookup is case-insensitive through the folded copy.
	got, err = store.ByEmail(ctx, "ALICE@example.COM")
	if err != nil {
		t.Fatalf("ByEmail error: %v", err)
	}
	if got.ID != u.ID {
		t.Error("ByEmail found a different user")
	}

	if _, err := store.ByEmail(ctx, "nobody@example.com"); err != userstore.ErrNotFound {
		t.Errorf("ByEmail(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll error: %v", err)
	}
	store := userstore.New(db)

	if err := store.Create(ctx, &models.User{Name: "First", Email: "dup@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Same address with different casing collides on the folded copy.
	err := store.Create(ctx, &models.User{Name: "Second", Email: "DUP@example.com", PasswordHash: "h"})
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicateEmail", err)
	}
}

func TestUpdatePreferences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := userstore.New(db)

	u := &models.User{Name: "Prefs", Email: "prefs@example.com", PasswordHash: "h",
		NotificationPreferences: models.DefaultNotificationPreferences()}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	prefs := u.NotificationPreferences
	prefs.EmailDueSoon = false
	prefs.UnsubscribedAll = true
	if err := store.UpdatePreferences(ctx, u.ID, prefs); err != nil {
		t.Fatalf("UpdatePreferences error: %v", err)
	}

	got, err := store.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if got.NotificationPreferences.EmailDueSoon || !got.NotificationPreferences.UnsubscribedAll {
		t.Errorf("preferences not persisted: %+v", got.NotificationPreferences)
	}
}
