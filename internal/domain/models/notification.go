// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the closed set of notification categories.
type NotificationType string

const (
	NotificationMessage       NotificationType = "message"
	NotificationAssignment    NotificationType = "assignment"
	NotificationWeekComplete  NotificationType = "week_complete"
	NotificationEncouragement NotificationType = "encouragement"
	NotificationCovenant      NotificationType = "covenant"
	NotificationPairing       NotificationType = "pairing"
)

// notificationTargets maps each type to the page a notification opens.
var notificationTargets = map[NotificationType]string{
	NotificationMessage:       "/dashboard/messages",
	NotificationAssignment:    "/dashboard",
	NotificationWeekComplete:  "/dashboard",
	NotificationEncouragement: "/dashboard",
	NotificationCovenant:      "/dashboard/covenant",
	NotificationPairing:       "/dashboard",
}

// Valid reports whether t is part of the closed set.
func (t NotificationType) Valid() bool {
	_, ok := notificationTargets[t]
	return ok
}

// TargetPath returns the page a notification of type t links to.
// Message notifications deep-link into the pairing's conversation when
// the pairing is known.
func (t NotificationType) TargetPath(pairingID *primitive.ObjectID) string {
	base, ok := notificationTargets[t]
	if !ok {
		return "/dashboard"
	}
	if t == NotificationMessage && pairingID != nil && !pairingID.IsZero() {
		return base + "/" + pairingID.Hex()
	}
	return base
}

// IsProgress reports whether t belongs to the progress settings category.
func (t NotificationType) IsProgress() bool {
	return t != NotificationMessage
}

// Notification is an in-app notification addressed to one recipient.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    string              `bson:"user_id" json:"user_id"`
	PairingID *primitive.ObjectID `bson:"pairing_id,omitempty" json:"pairing_id,omitempty"`
	Type      NotificationType    `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
