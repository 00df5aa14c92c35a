// internal/app/store/reflections/reflectionstore.go
package reflectionstore

import (
	"context"
	"time"

	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reflections")}
}

// Create inserts a reflection.
func (s *Store) Create(ctx context.Context, r models.Reflection) (models.Reflection, error) {
	now := time.Now().UTC()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt, r.UpdatedAt = now, now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Reflection{}, errors.Wrap(err, "inserting reflection")
	}
	return r, nil
}

// ListVisible returns the week's reflections that viewerID may read: their
// own plus any the partner shared. Oldest first.
func (s *Store) ListVisible(ctx context.Context, pairingID primitive.ObjectID, week int, viewerID string) ([]models.Reflection, error) {
	filter := bson.M{
		"pairing_id":  pairingID,
		"week_number": week,
		"$or": []bson.M{
			{"user_id": viewerID},
			{"is_shared": true},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "listing reflections")
	}
	var out []models.Reflection
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding reflections")
	}
	return out, nil
}
