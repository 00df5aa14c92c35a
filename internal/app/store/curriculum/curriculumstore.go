// internal/app/store/curriculum/curriculumstore.go
package curriculumstore

import (
	"context"

	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and seeds the curriculum catalog: weekly_content holds one
// document per week, assignments one per catalog item.
type Store struct {
	weeks       *mongo.Collection
	assignments *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		weeks:       db.Collection("weekly_content"),
		assignments: db.Collection("assignments"),
	}
}

var (
	ErrWeekNotFound       = errors.New("week not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// UpsertWeek writes a week keyed by its number.
func (s *Store) UpsertWeek(ctx context.Context, w models.Week) error {
	_, err := s.weeks.ReplaceOne(ctx, bson.M{"week_number": w.WeekNumber}, w, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "seeding week %d", w.WeekNumber)
}

// UpsertAssignment writes an assignment keyed by its ID.
func (s *Store) UpsertAssignment(ctx context.Context, a models.Assignment) error {
	_, err := s.assignments.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "seeding assignment %s", a.ID)
}

// Weeks returns all weeks in order.
func (s *Store) Weeks(ctx context.Context) ([]models.Week, error) {
	cur, err := s.weeks.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "week_number", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "listing weeks")
	}
	var out []models.Week
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding weeks")
	}
	return out, nil
}

// Week loads one week's content.
func (s *Store) Week(ctx context.Context, n int) (models.Week, error) {
	var w models.Week
	err := s.weeks.FindOne(ctx, bson.M{"week_number": n}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return models.Week{}, ErrWeekNotFound
	}
	if err != nil {
		return models.Week{}, errors.Wrap(err, "loading week")
	}
	return w, nil
}

// Assignment loads one catalog assignment.
func (s *Store) Assignment(ctx context.Context, id string) (models.Assignment, error) {
	var a models.Assignment
	err := s.assignments.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return models.Assignment{}, ErrAssignmentNotFound
	}
	if err != nil {
		return models.Assignment{}, errors.Wrap(err, "loading assignment")
	}
	return a, nil
}

// AssignmentsForWeek returns a week's assignments ordered by order_index.
func (s *Store) AssignmentsForWeek(ctx context.Context, week int) ([]models.Assignment, error) {
	return s.findAssignments(ctx, bson.M{"week_number": week})
}

// AllAssignments returns the whole catalog ordered by week then order_index.
func (s *Store) AllAssignments(ctx context.Context) ([]models.Assignment, error) {
	return s.findAssignments(ctx, bson.M{})
}

func (s *Store) findAssignments(ctx context.Context, filter bson.M) ([]models.Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "week_number", Value: 1}, {Key: "order_index", Value: 1}})
	cur, err := s.assignments.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding assignments")
	}
	return out, nil
}
