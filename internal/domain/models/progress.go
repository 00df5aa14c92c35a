// internal/domain/models/progress.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressStatus is a user's state on one assignment.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ProgressStatus) Valid() bool {
	return s == ProgressNotStarted || s == ProgressInProgress || s == ProgressCompleted
}

// AssignmentProgress records one user's progress on one assignment inside
// a pairing. (PairingID, AssignmentID, UserID) is unique.
//
// WeekNumber is copied from the catalog on write so week-scoped queries
// do not need a join. CompletedAt is set exactly when Status is completed.
type AssignmentProgress struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairingID    primitive.ObjectID `bson:"pairing_id" json:"pairing_id"`
	AssignmentID string             `bson:"assignment_id" json:"assignment_id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	WeekNumber   int                `bson:"week_number" json:"week_number"`
	Status       ProgressStatus     `bson:"status" json:"status"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt  *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WeekSummary is the dashboard view of one curriculum week.
type WeekSummary struct {
	WeekNumber int    `json:"week_number"`
	Title      string `json:"title"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	IsCurrent  bool   `json:"is_current"`
	IsUnlocked bool   `json:"is_unlocked"`
}
