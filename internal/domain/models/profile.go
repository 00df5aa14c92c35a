// internal/domain/models/profile.go
package models

import "time"

// Role is the part a user plays in a pairing.
type Role string

const (
	RoleLeader  Role = "leader"
	RoleLearner Role = "learner"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleLeader || r == RoleLearner
}

// NotificationSettings controls which notification categories are pushed
// to the user's devices. In-app notification rows are always written.
type NotificationSettings struct {
	Messages bool `bson:"message_notifications" json:"message_notifications"`
	Progress bool `bson:"progress_notifications" json:"progress_notifications"`
	Email    bool `bson:"email_notifications" json:"email_notifications"`
}

// DefaultNotificationSettings enables every category.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Messages: true, Progress: true, Email: true}
}

// Profile is a user's identity record.
//
// ID is the identity provider's subject claim, so it is a string rather
// than an ObjectID. Role is empty until onboarding completes and is not
// changed afterwards.
type Profile struct {
	ID                 string               `bson:"_id" json:"id"`
	Email              string               `bson:"email" json:"email"`
	FullName           string               `bson:"full_name" json:"full_name"`
	Role               Role                 `bson:"role,omitempty" json:"role,omitempty"`
	OnboardingComplete bool                 `bson:"onboarding_complete" json:"onboarding_complete"`
	Bio                string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Phone              string               `bson:"phone,omitempty" json:"phone,omitempty"`
	AvatarURL          string               `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Settings           NotificationSettings `bson:"settings" json:"settings"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns the name shown in notifications.
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Your partner"
	}
	if p.FullName != "" {
		return p.FullName
	}
	if p.Email != "" {
		return p.Email
	}
	return "Your partner"
}
