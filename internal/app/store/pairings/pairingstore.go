// internal/app/store/pairings/pairingstore.go
package pairingstore

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

// Store persists pairings in the "pairings" collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pairings")}
}

var (
	// ErrNotFound is returned when no pairing matches the lookup.
	ErrNotFound = errors.New("pairing not found")
	// ErrDuplicateInviteCode is returned when the unique invite_code index rejects a write.
	ErrDuplicateInviteCode = errors.New("invite code already in use")
	// ErrStateChanged is returned when a conditional update matched nothing
	// because another writer changed the pairing first.
	ErrStateChanged = errors.New("pairing state changed")
)

// Create inserts a new pairing and returns it with its generated ID.
func (s *Store) Create(ctx context.Context, p models.Pairing) (models.Pairing, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Pairing{}, ErrDuplicateInviteCode
		}
		return models.Pairing{}, errors.Wrap(err, "inserting pairing")
	}
	return p, nil
}

// GetByID loads a pairing by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Pairing, error) {
	return s.findOne(ctx, bson.M{"_id": id}, nil)
}

// GetJoinable loads the pending, learner-less pairing holding code.
func (s *Store) GetJoinable(ctx context.Context, code string) (models.Pairing, error) {
	return s.findOne(ctx, bson.M{
		"invite_code": code,
		"status":      models.PairingPending,
		"learner_id":  nil,
	}, nil)
}

// LatestForUser returns the most recently created pairing where userID is
// either participant.
func (s *Store) LatestForUser(ctx context.Context, userID string) (models.Pairing, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.findOne(ctx, participantFilter(userID), opts)
}

// ListForUser returns every pairing userID takes part in, newest first.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]models.Pairing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, participantFilter(userID), opts)
	if err != nil {
		return nil, errors.Wrap(err, "listing pairings")
	}
	defer cur.Close(ctx)

	var out []models.Pairing
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding pairings")
	}
	return out, nil
}

// ClaimLearnerSeat seats learnerID on the pairing if, at update time, the
// seat is still empty, the pairing is pending, and code is still its
// invite code. Exactly one of several concurrent callers can succeed; the
// others get ErrStateChanged.
func (s *Store) ClaimLearnerSeat(ctx context.Context, id primitive.ObjectID, code, learnerID string, now time.Time) (models.Pairing, error) {
	filter := bson.M{
		"_id":         id,
		"invite_code": code,
		"status":      models.PairingPending,
		"learner_id":  nil,
	}
	update := bson.M{"$set": bson.M{
		"learner_id": learnerID,
		"status":     models.PairingActive,
		"started_at": now,
		"updated_at": now,
	}}
	p, err := s.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, ErrNotFound) {
		return models.Pairing{}, ErrStateChanged
	}
	return p, err
}

// SetInviteCode replaces the invite code of a pending or active pairing.
// It returns ErrStateChanged when the pairing has left those states.
func (s *Store) SetInviteCode(ctx context.Context, id primitive.ObjectID, code string, now time.Time) (models.Pairing, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": []models.PairingStatus{models.PairingPending, models.PairingActive}},
	}
	update := bson.M{"$set": bson.M{"invite_code": code, "updated_at": now}}
	p, err := s.findOneAndUpdate(ctx, filter, update)
	switch {
	case wafflemongo.IsDup(err):
		return models.Pairing{}, ErrDuplicateInviteCode
	case errors.Is(err, ErrNotFound):
		return models.Pairing{}, ErrStateChanged
	}
	return p, err
}

// SignCovenant sets side's covenant flag. The update only matches while
// the flag is still false, so flipped is true for exactly one caller per
// side. When the flag was already set the current pairing is returned
// with flipped false.
func (s *Store) SignCovenant(ctx context.Context, id primitive.ObjectID, side models.Side, now time.Time) (p models.Pairing, flipped bool, err error) {
	field := models.CovenantField(side)
	filter := bson.M{"_id": id, field: false}
	update := bson.M{"$set": bson.M{field: true, "updated_at": now}}

	p, err = s.findOneAndUpdate(ctx, filter, update)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Pairing{}, false, err
	}
	p, err = s.GetByID(ctx, id)
	if err != nil {
		return models.Pairing{}, false, err
	}
	return p, false, nil
}

// AdvanceWeek moves current_week from fromWeek to fromWeek+1. The filter
// is keyed on fromWeek, so concurrent callers that observed the same week
// advance it once; the losers get advanced=false.
func (s *Store) AdvanceWeek(ctx context.Context, id primitive.ObjectID, fromWeek int, now time.Time) (p models.Pairing, advanced bool, err error) {
	if fromWeek >= models.FinalWeek {
		return models.Pairing{}, false, nil
	}
	filter := bson.M{"_id": id, "current_week": fromWeek}
	update := bson.M{"$set": bson.M{"current_week": fromWeek + 1, "updated_at": now}}

	p, err = s.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, ErrNotFound) {
		return models.Pairing{}, false, nil
	}
	if err != nil {
		return models.Pairing{}, false, err
	}
	return p, true, nil
}

// MarkJourneyComplete stamps completed_at on a pairing at the final week.
// Only the first caller matches the {completed_at: null} filter; later or
// concurrent callers get marked=false.
func (s *Store) MarkJourneyComplete(ctx context.Context, id primitive.ObjectID, now time.Time) (p models.Pairing, marked bool, err error) {
	filter := bson.M{"_id": id, "current_week": models.FinalWeek, "completed_at": nil}
	update := bson.M{"$set": bson.M{"completed_at": now, "updated_at": now}}

	p, err = s.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, ErrNotFound) {
		return models.Pairing{}, false, nil
	}
	if err != nil {
		return models.Pairing{}, false, err
	}
	return p, true, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (models.Pairing, error) {
	var p models.Pairing
	var err error
	if opts != nil {
		err = s.c.FindOne(ctx, filter, opts).Decode(&p)
	} else {
		err = s.c.FindOne(ctx, filter).Decode(&p)
	}
	if err == mongo.ErrNoDocuments {
		return models.Pairing{}, ErrNotFound
	}
	if err != nil {
		return models.Pairing{}, errors.Wrap(err, "loading pairing")
	}
	return p, nil
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (models.Pairing, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Pairing
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Pairing{}, ErrNotFound
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Pairing{}, err
		}
		return models.Pairing{}, errors.Wrap(err, "updating pairing")
	}
	return p, nil
}

func participantFilter(userID string) bson.M {
	return bson.M{"$or": []bson.M{
		{"leader_id": userID},
		{"learner_id": userID},
	}}
}
