package invitestore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	invitestore "github.com/dalemusser/taskflow/internal/app/store/invites"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/taskflow/internal/testutil"
)

func TestUpsertPendingReusesInvite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := invitestore.New(db)

	wsID := primitive.NewObjectID()
	invitedBy := primitive.NewObjectID()

	first, err := store.UpsertPending(ctx, wsID, "Invitee@Example.com", models.RoleMember, invitedBy, time.Hour)
	if err != nil {
		t.Fatalf("first UpsertPending error: %v", err)
	}
	if first.Status != models.InvitePending || first.Token == "" {
		t.Errorf("invite = %+v, want pending with a token", first)
	}
	if first.Email != "invitee@example.com" {
		t.Errorf("email = %q, want folded form", first.Email)
	}

	// Re-inviting the same address rotates the token and role on the
	// existing document instead of stacking invites.
	second, err := store.UpsertPending(ctx, wsID, "INVITEE@example.com", models.RoleAdmin, invitedBy, time.Hour)
	if err != nil {
		t.Fatalf("second UpsertPending error: %v", err)
	}
	if second.ID != first.ID {
		t.Error("second invite created a new document")
	}
	if second.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", second.Role)
	}
	if second.Token == first.Token {
		t.Error("token was not rotated")
	}

	n, err := db.Collection("workspace_invites").CountDocuments(ctx, bson.M{"workspace_id": wsID})
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if n != 1 {
		t.Errorf("invite count = %d, want 1", n)
	}
}

func TestInviteStatusTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := invitestore.New(db)

	wsID := primitive.NewObjectID()
	inv, err := store.UpsertPending(ctx, wsID, "a@example.com", models.RoleMember, primitive.NewObjectID(), time.Hour)
	if err != nil {
		t.Fatalf("UpsertPending error: %v", err)
	}

	acceptedBy := primitive.NewObjectID()
	if err := store.MarkAccepted(ctx, inv.ID, acceptedBy); err != nil {
		t.Fatalf("MarkAccepted error: %v", err)
	}

	got, err := store.ByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if got.Status != models.InviteAccepted {
		t.Errorf("status = %q, want accepted", got.Status)
	}
	if got.AcceptedBy == nil || *got.AcceptedBy != acceptedBy {
		t.Errorf("accepted_by = %v, want %s", got.AcceptedBy, acceptedBy.Hex())
	}

	// Status transitions only apply to pending invites; a second
	// transition finds nothing to change.
	if err := store.Revoke(ctx, inv.ID); err != invitestore.ErrNotFound {
		t.Errorf("Revoke(accepted) error = %v, want ErrNotFound", err)
	}
}

func TestByToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := invitestore.New(db)

	inv, err := store.UpsertPending(ctx, primitive.NewObjectID(), "b@example.com", models.RoleViewer, primitive.NewObjectID(), time.Hour)
	if err != nil {
		t.Fatalf("UpsertPending error: %v", err)
	}

	got, err := store.ByToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("ByToken error: %v", err)
	}
	if got.ID != inv.ID {
		t.Error("ByToken found a different invite")
	}

	if _, err := store.ByToken(ctx, "no-such-token"); err != invitestore.ErrNotFound {
		t.Errorf("ByToken(missing) error = %v, want ErrNotFound", err)
	}
}

func TestInviteExpired(t *testing.T) {
	now := time.Now().UTC()
	inv := models.WorkspaceInvite{ExpiresAt: now.Add(-time.Minute)}
	if !inv.Expired(now) {
		t.Error("past deadline should be expired")
	}
	inv.ExpiresAt = now.Add(time.Minute)
	if inv.Expired(now) {
		t.Error("future deadline should not be expired")
	}
}
