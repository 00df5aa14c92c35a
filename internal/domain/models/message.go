// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one entry in a pairing's conversation. Messages are never
// edited or deleted; IsRead only moves from false to true.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairingID primitive.ObjectID `bson:"pairing_id" json:"pairing_id"`
	SenderID  string             `bson:"sender_id" json:"sender_id"`
	Content   string             `bson:"content" json:"content"`
	IsRead    bool               `bson:"is_read" json:"is_read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
