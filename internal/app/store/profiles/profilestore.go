// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"time"

	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

var (
	ErrNotFound = errors.New("profile not found")
	// ErrAlreadyOnboarded is returned when onboarding is attempted twice;
	// the role chosen the first time is kept.
	ErrAlreadyOnboarded = errors.New("onboarding already completed")
)

// Get loads a profile by user ID.
func (s *Store) Get(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, errors.Wrap(err, "loading profile")
	}
	return p, nil
}

// Ensure returns the profile for id, creating it from the identity
// provider's claims on first sight. Existing profiles are not modified.
func (s *Store) Ensure(ctx context.Context, id, email, fullName string) (models.Profile, error) {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"email":               email,
		"full_name":           fullName,
		"onboarding_complete": false,
		"settings":            models.DefaultNotificationSettings(),
		"created_at":          now,
		"updated_at":          now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p models.Profile
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p); err != nil {
		return models.Profile{}, errors.Wrap(err, "ensuring profile")
	}
	return p, nil
}

// Names returns full names keyed by user ID for the given IDs.
func (s *Store) Names(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"full_name": 1, "email": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "loading profile names")
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.Profile
		if err := cur.Decode(&p); err != nil {
			return nil, errors.Wrap(err, "decoding profile")
		}
		out[p.ID] = p.DisplayName()
	}
	return out, errors.Wrap(cur.Err(), "iterating profiles")
}

// ProfileUpdate holds the user-editable profile fields.
type ProfileUpdate struct {
	FullName  string
	Bio       string
	Phone     string
	AvatarURL string
}

// Update overwrites the editable fields and returns the new profile.
func (s *Store) Update(ctx context.Context, id string, upd ProfileUpdate) (models.Profile, error) {
	return s.set(ctx, bson.M{"_id": id}, bson.M{
		"full_name":  upd.FullName,
		"bio":        upd.Bio,
		"phone":      upd.Phone,
		"avatar_url": upd.AvatarURL,
	})
}

// UpdateSettings replaces the notification settings.
func (s *Store) UpdateSettings(ctx context.Context, id string, settings models.NotificationSettings) (models.Profile, error) {
	return s.set(ctx, bson.M{"_id": id}, bson.M{"settings": settings})
}

// CompleteOnboarding sets the role and marks onboarding complete. It only
// matches profiles that have not been onboarded yet.
func (s *Store) CompleteOnboarding(ctx context.Context, id string, role models.Role, fullName string) (models.Profile, error) {
	fields := bson.M{"role": role, "onboarding_complete": true}
	if fullName != "" {
		fields["full_name"] = fullName
	}
	p, err := s.set(ctx, bson.M{"_id": id, "onboarding_complete": bson.M{"$ne": true}}, fields)
	if errors.Is(err, ErrNotFound) {
		if _, getErr := s.Get(ctx, id); getErr == nil {
			return models.Profile{}, ErrAlreadyOnboarded
		}
	}
	return p, err
}

func (s *Store) set(ctx context.Context, filter, fields bson.M) (models.Profile, error) {
	fields["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Profile
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, errors.Wrap(err, "updating profile")
	}
	return p, nil
}
