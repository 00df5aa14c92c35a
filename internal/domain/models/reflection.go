// internal/domain/models/reflection.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reflection is a journal entry written for a curriculum week. Shared
// reflections are visible to the partner.
type Reflection struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairingID      primitive.ObjectID `bson:"pairing_id" json:"pairing_id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	WeekNumber     int                `bson:"week_number" json:"week_number"`
	ReflectionText string             `bson:"reflection_text" json:"reflection_text"`
	IsShared       bool               `bson:"is_shared" json:"is_shared"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
