// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"

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
	return &Store{c: db.Collection("messages")}
}

// Insert appends a message. A zero ID is replaced with a new ObjectID.
func (s *Store) Insert(ctx context.Context, m models.Message) (models.Message, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

// List returns up to limit messages of a pairing, oldest first. Ties on
// created_at are broken by _id, which grows with insertion order. A
// non-positive limit returns the whole log.
func (s *Store) List(ctx context.Context, pairingID primitive.ObjectID, limit int64) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		// Take the newest `limit` rows, then restore ascending order below.
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"pairing_id": pairingID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "listing messages")
	}
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding messages")
	}
	if limit > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// MarkRead flags as read every unread message in the pairing that the
// viewer did not send. It returns how many messages changed.
func (s *Store) MarkRead(ctx context.Context, pairingID primitive.ObjectID, viewerID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{
		"pairing_id": pairingID,
		"sender_id":  bson.M{"$ne": viewerID},
		"is_read":    false,
	}, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, errors.Wrap(err, "marking messages read")
	}
	return res.ModifiedCount, nil
}

// UnreadCount counts unread messages addressed to viewerID in a pairing.
func (s *Store) UnreadCount(ctx context.Context, pairingID primitive.ObjectID, viewerID string) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"pairing_id": pairingID,
		"sender_id":  bson.M{"$ne": viewerID},
		"is_read":    false,
	})
	return n, errors.Wrap(err, "counting unread messages")
}
