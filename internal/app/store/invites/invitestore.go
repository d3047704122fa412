// internal/app/store/invites/invitestore.go
package invitestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no invite matches the lookup.
var ErrNotFound = errors.New("invite not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspace_invites")}
}

// newToken returns a 48-character hex invite token.
func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// UpsertPending creates or refreshes the single pending invite for
// (workspace, email). Re-inviting the same address replaces the role,
// token and expiry rather than stacking a second pending row; the
// partial unique index on (workspace_id, email, status=pending)
// backs this up.
func (s *Store) UpsertPending(ctx context.Context, workspaceID primitive.ObjectID, email string, role models.Role, invitedBy primitive.ObjectID, ttl time.Duration) (*models.WorkspaceInvite, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	emailCI := text.Fold(email)

	filter := bson.M{
		"workspace_id": workspaceID,
		"email":        emailCI,
		"status":       models.InvitePending,
	}
	update := bson.M{
		"$set": bson.M{
			"role":       role,
			"token":      token,
			"invited_by": invitedBy,
			"expires_at": now.Add(ttl),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"workspace_id": workspaceID,
			"email":        emailCI,
			"status":       models.InvitePending,
			"created_at":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var inv models.WorkspaceInvite
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ByToken returns the invite carrying the token, whatever its status.
func (s *Store) ByToken(ctx context.Context, token string) (*models.WorkspaceInvite, error) {
	var inv models.WorkspaceInvite
	err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ByID returns the invite with the given id.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.WorkspaceInvite, error) {
	var inv models.WorkspaceInvite
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListByWorkspace returns the workspace's invites, newest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.WorkspaceInvite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.WorkspaceInvite
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) setStatus(ctx context.Context, id primitive.ObjectID, from, to string, extra bson.M) error {
	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		set[k] = v
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAccepted flips a pending invite to accepted and records who
// accepted it.
func (s *Store) MarkAccepted(ctx context.Context, id, acceptedBy primitive.ObjectID) error {
	return s.setStatus(ctx, id, models.InvitePending, models.InviteAccepted, bson.M{"accepted_by": acceptedBy})
}

// MarkExpired flips a pending invite to expired.
func (s *Store) MarkExpired(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, models.InvitePending, models.InviteExpired, nil)
}

// Revoke flips a pending invite to revoked.
func (s *Store) Revoke(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, models.InvitePending, models.InviteRevoked, nil)
}
