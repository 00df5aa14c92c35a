// internal/app/store/progress/progressstore.go
package progressstore

import (
	"context"
	"time"

	"github.com/dalemusser/pathway/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("assignment_progress")}
}

var ErrNotFound = errors.New("progress not found")

// Upsert writes the progress row keyed by (pairing, assignment, user) and
// returns it as stored. CompletedAt is kept only for completed rows.
//
// Two concurrent first writes can both miss and try to insert; the unique
// index rejects one of them, which is then retried as an update.
func (s *Store) Upsert(ctx context.Context, p models.AssignmentProgress) (models.AssignmentProgress, error) {
	out, err := s.upsertOnce(ctx, p)
	if wafflemongo.IsDup(err) {
		out, err = s.upsertOnce(ctx, p)
	}
	if err != nil {
		return models.AssignmentProgress{}, errors.Wrap(err, "upserting progress")
	}
	return out, nil
}

func (s *Store) upsertOnce(ctx context.Context, p models.AssignmentProgress) (models.AssignmentProgress, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"pairing_id":    p.PairingID,
		"assignment_id": p.AssignmentID,
		"user_id":       p.UserID,
	}
	set := bson.M{
		"week_number": p.WeekNumber,
		"status":      p.Status,
		"notes":       p.Notes,
		"updated_at":  now,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
	if p.Status == models.ProgressCompleted {
		completedAt := now
		if p.CompletedAt != nil {
			completedAt = *p.CompletedAt
		}
		set["completed_at"] = completedAt
	} else {
		update["$unset"] = bson.M{"completed_at": ""}
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.AssignmentProgress
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	return out, err
}

// Get loads one user's row for an assignment.
func (s *Store) Get(ctx context.Context, pairingID primitive.ObjectID, assignmentID, userID string) (models.AssignmentProgress, error) {
	var p models.AssignmentProgress
	err := s.c.FindOne(ctx, bson.M{
		"pairing_id":    pairingID,
		"assignment_id": assignmentID,
		"user_id":       userID,
	}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.AssignmentProgress{}, ErrNotFound
	}
	if err != nil {
		return models.AssignmentProgress{}, errors.Wrap(err, "loading progress")
	}
	return p, nil
}

// ListForWeek returns every participant's rows for one week of a pairing.
func (s *Store) ListForWeek(ctx context.Context, pairingID primitive.ObjectID, week int) ([]models.AssignmentProgress, error) {
	return s.find(ctx, bson.M{"pairing_id": pairingID, "week_number": week})
}

// ListForPairing returns every row for a pairing.
func (s *Store) ListForPairing(ctx context.Context, pairingID primitive.ObjectID) ([]models.AssignmentProgress, error) {
	return s.find(ctx, bson.M{"pairing_id": pairingID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.AssignmentProgress, error) {
	opts := options.Find().SetSort(bson.D{{Key: "week_number", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "listing progress")
	}
	var out []models.AssignmentProgress
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding progress")
	}
	return out, nil
}
