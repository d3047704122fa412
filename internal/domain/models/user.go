// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationPreferences controls which reminder channels a user
// receives. UnsubscribedAll overrides the individual flags.
type NotificationPreferences struct {
	InAppDueSoon    bool `bson:"in_app_due_soon" json:"inAppDueSoon"`
	EmailDueSoon    bool `bson:"email_due_soon" json:"emailDueSoon"`
	UnsubscribedAll bool `bson:"unsubscribed_all" json:"unsubscribedAll"`
}

// DefaultNotificationPreferences returns the preferences applied to new
// accounts: in-app reminders on, email reminders on.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{InAppDueSoon: true, EmailDueSoon: true}
}

// User is an account holder. Email is the login identifier; EmailCI is
// the case-folded copy backing the unique index.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	NotificationPreferences NotificationPreferences `bson:"notification_preferences" json:"notificationPreferences"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
