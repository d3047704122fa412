// internal/app/store/integrations/integrationstore.go
package integrationstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/oauth2"
)

// ErrNotFound is returned when no connection matches the lookup.
var ErrNotFound = errors.New("integration connection not found")

// Connection is a user's link to an external task provider. The OAuth
// token is stored whole so the import path can refresh it.
type Connection struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	UserID   primitive.ObjectID `bson:"user_id"`
	Provider string             `bson:"provider"`

	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token"`
	TokenType    string    `bson:"token_type"`
	Expiry       time.Time `bson:"expiry"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Token rebuilds the oauth2 token from the stored fields.
func (c *Connection) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

type Store struct {
	connections *mongo.Collection
	states      *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		connections: db.Collection("integration_connections"),
		states:      db.Collection("oauth_states"),
	}
}

// SaveState records a pending OAuth state value for the user.
func (s *Store) SaveState(ctx context.Context, state string, userID primitive.ObjectID, expiresAt time.Time) error {
	_, err := s.states.InsertOne(ctx, bson.M{
		"state":      state,
		"user_id":    userID,
		"expires_at": expiresAt,
		"created_at": time.Now().UTC(),
	})
	return err
}

// ConsumeState validates and deletes a state value in one step, so a
// state can authorize at most one callback. It returns the user the
// state was issued to and whether it was valid and unexpired.
func (s *Store) ConsumeState(ctx context.Context, state string) (primitive.ObjectID, bool, error) {
	var doc struct {
		UserID    primitive.ObjectID `bson:"user_id"`
		ExpiresAt time.Time          `bson:"expires_at"`
	}
	err := s.states.FindOneAndDelete(ctx, bson.M{"state": state}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, false, nil
	}
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	if time.Now().UTC().After(doc.ExpiresAt) {
		return primitive.NilObjectID, false, nil
	}
	return doc.UserID, true, nil
}

// SaveConnection stores or replaces the user's connection for the
// provider.
func (s *Store) SaveConnection(ctx context.Context, userID primitive.ObjectID, provider string, tok *oauth2.Token) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"access_token":  tok.AccessToken,
			"refresh_token": tok.RefreshToken,
			"token_type":    tok.TokenType,
			"expiry":        tok.Expiry,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.connections.UpdateOne(ctx,
		bson.M{"user_id": userID, "provider": provider}, update, opts)
	return err
}

// Connection returns the user's connection for the provider.
func (s *Store) Connection(ctx context.Context, userID primitive.ObjectID, provider string) (*Connection, error) {
	var c Connection
	err := s.connections.FindOne(ctx, bson.M{"user_id": userID, "provider": provider}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteConnection removes the user's connection for the provider.
func (s *Store) DeleteConnection(ctx context.Context, userID primitive.ObjectID, provider string) error {
	res, err := s.connections.DeleteOne(ctx, bson.M{"user_id": userID, "provider": provider})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
