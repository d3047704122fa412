// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no membership matches the lookup.
	ErrNotFound = errors.New("membership not found")
	// ErrDuplicate is returned when an insert collides with the unique
	// (container, user) index.
	ErrDuplicate = errors.New("user is already a member")
	// ErrOwnerImmutable is returned when a caller tries to remove an
	// owner membership. Every container keeps at least one owner.
	ErrOwnerImmutable = errors.New("owner membership cannot be removed")
)

// Membership is the container-neutral view of a workspace or project
// membership row.
type Membership struct {
	ID          primitive.ObjectID
	ContainerID primitive.ObjectID
	UserID      primitive.ObjectID
	Role        models.Role
	InvitedBy   *primitive.ObjectID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store manages one of the two membership collections. The same code
// serves workspace_members and project_members; only the collection
// and the container field name differ.
type Store struct {
	c     *mongo.Collection
	field string // "workspace_id" or "project_id"
}

// NewWorkspace returns the store over workspace_members.
func NewWorkspace(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspace_members"), field: "workspace_id"}
}

// NewProject returns the store over project_members.
func NewProject(db *mongo.Database) *Store {
	return &Store{c: db.Collection("project_members"), field: "project_id"}
}

// doc is the persisted shape; exactly one of the container fields is
// set depending on which collection the store wraps.
type doc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	WorkspaceID *primitive.ObjectID `bson:"workspace_id,omitempty"`
	ProjectID   *primitive.ObjectID `bson:"project_id,omitempty"`
	UserID      primitive.ObjectID  `bson:"user_id"`
	Role        models.Role         `bson:"role"`
	InvitedBy   *primitive.ObjectID `bson:"invited_by,omitempty"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

func (d doc) membership() Membership {
	m := Membership{
		ID:        d.ID,
		UserID:    d.UserID,
		Role:      d.Role,
		InvitedBy: d.InvitedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	switch {
	case d.WorkspaceID != nil:
		m.ContainerID = *d.WorkspaceID
	case d.ProjectID != nil:
		m.ContainerID = *d.ProjectID
	}
	return m
}

// Upsert creates the membership or, if the (container, user) row
// already exists, updates its role and inviter in place. This backs
// both member-add and invite-accept, which are specified as idempotent
// upserts.
func (s *Store) Upsert(ctx context.Context, containerID, userID primitive.ObjectID, role models.Role, invitedBy *primitive.ObjectID) (Membership, error) {
	now := time.Now().UTC()
	filter := bson.M{s.field: containerID, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"role":       role,
			"invited_by": invitedBy,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			s.field:      containerID,
			"user_id":    userID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d doc
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d); err != nil {
		if wafflemongo.IsDup(err) {
			return Membership{}, ErrDuplicate
		}
		return Membership{}, err
	}
	return d.membership(), nil
}

// Get returns the unique membership row for (container, user).
func (s *Store) Get(ctx context.Context, containerID, userID primitive.ObjectID) (Membership, error) {
	var d doc
	err := s.c.FindOne(ctx, bson.M{s.field: containerID, "user_id": userID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return Membership{}, ErrNotFound
	}
	if err != nil {
		return Membership{}, err
	}
	return d.membership(), nil
}

// List returns every membership of the container.
func (s *Store) List(ctx context.Context, containerID primitive.ObjectID) ([]Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{s.field: containerID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Membership
	for cur.Next(ctx) {
		var d doc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.membership())
	}
	return out, cur.Err()
}

// ListByUser returns every membership the user holds across
// containers of this store's kind.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Membership
	for cur.Next(ctx) {
		var d doc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.membership())
	}
	return out, cur.Err()
}

// UpdateRole changes the role of an existing membership.
func (s *Store) UpdateRole(ctx context.Context, containerID, userID primitive.ObjectID, role models.Role) (Membership, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}}

	var d doc
	err := s.c.FindOneAndUpdate(ctx, bson.M{s.field: containerID, "user_id": userID}, update, opts).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return Membership{}, ErrNotFound
	}
	if err != nil {
		return Membership{}, err
	}
	return d.membership(), nil
}

// Remove deletes a membership. Owner rows are refused; the container
// must always keep its owner.
func (s *Store) Remove(ctx context.Context, containerID, userID primitive.ObjectID) error {
	m, err := s.Get(ctx, containerID, userID)
	if err != nil {
		return err
	}
	if m.Role == models.RoleOwner {
		return ErrOwnerImmutable
	}
	_, err = s.c.DeleteOne(ctx, bson.M{s.field: containerID, "user_id": userID})
	return err
}

// ReadableContainerIDs returns the ids of every container in which
// the user holds any role. Any membership at all grants read, so no
// role filter is needed here.
func (s *Store) ReadableContainerIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ms, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(ms))
	for _, m := range ms {
		if m.Role.CanRead() {
			ids = append(ids, m.ContainerID)
		}
	}
	return ids, nil
}
