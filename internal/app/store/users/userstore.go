// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when an insert collides with the
// unique email index.
var ErrDuplicateEmail = errors.New("email is already registered")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user. The case-folded email copy is maintained
// here so callers cannot forget it.
func (s *Store) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.EmailCI = text.Fold(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// ByID returns the user with the given id.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByEmail looks a user up by case-folded email.
func (s *Store) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MapByIDs returns the users for the given ids keyed by id. Missing
// ids are simply absent from the map.
func (s *Store) MapByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// UpdatePreferences overwrites the user's notification preferences.
func (s *Store) UpdatePreferences(ctx context.Context, id primitive.ObjectID, prefs models.NotificationPreferences) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"notification_preferences": prefs,
		"updated_at":               time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
