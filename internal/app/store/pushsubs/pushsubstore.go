// internal/app/store/pushsubs/pushsubstore.go
package pushsubstore

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
	return &Store{c: db.Collection("push_subscriptions")}
}

// Save registers sub, keyed by endpoint. Re-registering an endpoint moves
// it to the new user and keys.
func (s *Store) Save(ctx context.Context, sub models.PushSubscription) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"user_id": sub.UserID,
			"p256dh":  sub.P256dh,
			"auth":    sub.Auth,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"endpoint": sub.Endpoint}, update, options.Update().SetUpsert(true))
	return errors.Wrap(err, "saving push subscription")
}

// ListForUser returns every subscription registered by userID.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.Wrap(err, "listing push subscriptions")
	}
	var out []models.PushSubscription
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding push subscriptions")
	}
	return out, nil
}

// DeleteEndpoint removes a subscription, typically after the push service
// reported it gone.
func (s *Store) DeleteEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return errors.Wrap(err, "deleting push subscription")
}

// DeleteForUser removes userID's subscription for endpoint.
func (s *Store) DeleteForUser(ctx context.Context, userID, endpoint string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint})
	return errors.Wrap(err, "deleting push subscription")
}
