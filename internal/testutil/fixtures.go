package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calling it again on the same request adds to the existing route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile inserts an onboarded profile with the given role.
func (f *Fixtures) CreateProfile(ctx context.Context, name string, role models.Role) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		ID:                 uuid.NewString(),
		Email:              name + "@example.com",
		FullName:           name,
		Role:               role,
		OnboardingComplete: true,
		Settings:           models.DefaultNotificationSettings(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreatePendingPairing inserts a pending pairing owned by leaderID.
func (f *Fixtures) CreatePendingPairing(ctx context.Context, leaderID, code string) models.Pairing {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Pairing{
		ID:          primitive.NewObjectID(),
		LeaderID:    leaderID,
		InviteCode:  code,
		Status:      models.PairingPending,
		CurrentWeek: models.FirstWeek,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("pairings").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test pairing: %v", err)
	}
	return p
}

// CreateActivePairing inserts an active pairing with both seats filled.
func (f *Fixtures) CreateActivePairing(ctx context.Context, leaderID, learnerID, code string, week int) models.Pairing {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Pairing{
		ID:          primitive.NewObjectID(),
		LeaderID:    leaderID,
		LearnerID:   &learnerID,
		InviteCode:  code,
		Status:      models.PairingActive,
		CurrentWeek: week,
		StartedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("pairings").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test pairing: %v", err)
	}
	return p
}

// CreateAssignment inserts a catalog assignment.
func (f *Fixtures) CreateAssignment(ctx context.Context, id string, week, order int) models.Assignment {
	f.t.Helper()

	a := models.Assignment{
		ID:         id,
		WeekNumber: week,
		Title:      "Assignment " + id,
		Type:       models.AssignmentReading,
		OrderIndex: order,
	}
	if _, err := f.db.Collection("assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}
