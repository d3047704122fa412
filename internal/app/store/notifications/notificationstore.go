// internal/app/store/notifications/notificationstore.go
package notificationstore

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
	// ErrNotFound is returned when no notification matches the lookup.
	ErrNotFound = errors.New("notification not found")
	// ErrDuplicate is returned when an insert collides with the unique
	// (user, type, task, due_at) index. The reminder worker treats it
	// as "already created" and moves on.
	ErrDuplicate = errors.New("notification already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Insert writes a new notification. Duplicate reminders for the same
// (user, type, task, due_at) are reported as ErrDuplicate.
func (s *Store) Insert(ctx context.Context, n *models.Notification) error {
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *Store) List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, limit int) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read_at"] = nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread returns the number of unread notifications for the user.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read_at": nil})
}

// MarkRead sets read_at on one of the user's notifications. The user
// filter keeps one user from acknowledging another's notifications.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"read_at": now, "updated_at": now}}

	var n models.Notification
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, update, opts).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllRead sets read_at on every unread notification of the user
// and returns how many were updated.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read_at": nil},
		bson.M{"$set": bson.M{"read_at": now, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// PendingEmails returns notifications still owed an email: never sent,
// under the attempt cap, and past their backoff time (or never tried).
func (s *Store) PendingEmails(ctx context.Context, maxAttempts int, now time.Time, limit int) ([]models.Notification, error) {
	filter := bson.M{
		"emailed_at":          nil,
		"email_attempt_count": bson.M{"$lt": maxAttempts},
		"$or": []bson.M{
			{"next_email_attempt_at": nil},
			{"next_email_attempt_at": bson.M{"$lte": now}},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordEmailSent marks the notification's email as delivered.
func (s *Store) RecordEmailSent(ctx context.Context, id primitive.ObjectID, sentAt time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"emailed_at":       sentAt,
		"last_email_error": "",
		"updated_at":       time.Now().UTC(),
	}})
	return err
}

// RecordEmailFailure bumps the attempt count, stores the error text and
// schedules the next attempt.
func (s *Store) RecordEmailFailure(ctx context.Context, id primitive.ObjectID, sendErr error, nextAttempt time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"email_attempt_count": 1},
		"$set": bson.M{
			"last_email_error":      sendErr.Error(),
			"next_email_attempt_at": nextAttempt,
			"updated_at":            time.Now().UTC(),
		},
	})
	return err
}
