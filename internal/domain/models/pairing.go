// internal/domain/models/pairing.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PairingStatus is the lifecycle state of a pairing.
type PairingStatus string

const (
	PairingPending   PairingStatus = "pending"
	PairingActive    PairingStatus = "active"
	PairingCompleted PairingStatus = "completed"
	PairingCancelled PairingStatus = "cancelled"
)

// Side identifies one half of a pairing.
type Side string

const (
	SideLeader  Side = "leader"
	SideLearner Side = "learner"
)

// Valid reports whether s names a side.
func (s Side) Valid() bool {
	return s == SideLeader || s == SideLearner
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideLeader {
		return SideLearner
	}
	return SideLeader
}

// FirstWeek and FinalWeek bound CurrentWeek.
const (
	FirstWeek = 1
	FinalWeek = 6
)

// Pairing links one leader with at most one learner.
//
// Invariants:
//   - LearnerID is nil exactly while Status is pending.
//   - CurrentWeek starts at FirstWeek, never decreases and never exceeds FinalWeek.
//   - Covenant flags only ever move from false to true.
//
// LearnerID is stored as an explicit null (no omitempty) so the join
// filter {learner_id: null} and the learner_id index see every row.
type Pairing struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LeaderID   string             `bson:"leader_id" json:"leader_id"`
	LearnerID  *string            `bson:"learner_id" json:"learner_id"`
	InviteCode string             `bson:"invite_code" json:"invite_code"`
	Status     PairingStatus      `bson:"status" json:"status"`

	CurrentWeek int `bson:"current_week" json:"current_week"`

	CovenantAcceptedLeader  bool `bson:"covenant_accepted_leader" json:"covenant_accepted_leader"`
	CovenantAcceptedLearner bool `bson:"covenant_accepted_learner" json:"covenant_accepted_learner"`

	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// Learner returns the learner's ID, or "" while the seat is empty.
func (p *Pairing) Learner() string {
	if p.LearnerID == nil {
		return ""
	}
	return *p.LearnerID
}

// SideOf reports which side userID sits on.
func (p *Pairing) SideOf(userID string) (Side, bool) {
	switch {
	case userID == "":
		return "", false
	case p.LeaderID == userID:
		return SideLeader, true
	case p.Learner() == userID:
		return SideLearner, true
	}
	return "", false
}

// IsParticipant reports whether userID is the leader or the learner.
func (p *Pairing) IsParticipant(userID string) bool {
	_, ok := p.SideOf(userID)
	return ok
}

// ParticipantID returns the user seated on side s ("" for an empty seat).
func (p *Pairing) ParticipantID(s Side) string {
	if s == SideLeader {
		return p.LeaderID
	}
	return p.Learner()
}

// PartnerOf returns the other participant's ID.
func (p *Pairing) PartnerOf(userID string) string {
	side, ok := p.SideOf(userID)
	if !ok {
		return ""
	}
	return p.ParticipantID(side.Other())
}

// Signed reports whether side s has accepted the covenant.
func (p *Pairing) Signed(s Side) bool {
	if s == SideLeader {
		return p.CovenantAcceptedLeader
	}
	return p.CovenantAcceptedLearner
}

// CovenantComplete reports whether both sides have signed.
func (p *Pairing) CovenantComplete() bool {
	return p.CovenantAcceptedLeader && p.CovenantAcceptedLearner
}

// CovenantField returns the document field holding side s's signature.
func CovenantField(s Side) string {
	if s == SideLeader {
		return "covenant_accepted_leader"
	}
	return "covenant_accepted_learner"
}
