package progressstore_test

import (
	"testing"

	progressstore "github.com/dalemusser/pathway/internal/app/store/progress"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/dalemusser/pathway/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Upsert_OneRowPerKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	row := models.AssignmentProgress{
		PairingID:    pid,
		AssignmentID: "w1-read",
		UserID:       "learner-1",
		WeekNumber:   1,
		Status:       models.ProgressInProgress,
		Notes:        "started",
	}

	first, err := store.Upsert(ctx, row)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if first.CompletedAt != nil {
		t.Error("in_progress row must not have completed_at")
	}

	row.Status = models.ProgressCompleted
	second, err := store.Upsert(ctx, row)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same row, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if second.CompletedAt == nil {
		t.Error("completed row must have completed_at")
	}

	row.Status = models.ProgressInProgress
	third, err := store.Upsert(ctx, row)
	if err != nil {
		t.Fatalf("third Upsert failed: %v", err)
	}
	if third.CompletedAt != nil {
		t.Error("completed_at must be cleared when leaving completed")
	}

	n, err := db.Collection("assignment_progress").CountDocuments(ctx, bson.M{"pairing_id": pid})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestStore_ListForWeek(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	for _, r := range []models.AssignmentProgress{
		{PairingID: pid, AssignmentID: "w1-a", UserID: "learner-1", WeekNumber: 1, Status: models.ProgressCompleted},
		{PairingID: pid, AssignmentID: "w1-a", UserID: "leader-1", WeekNumber: 1, Status: models.ProgressCompleted},
		{PairingID: pid, AssignmentID: "w2-a", UserID: "learner-1", WeekNumber: 2, Status: models.ProgressInProgress},
		{PairingID: primitive.NewObjectID(), AssignmentID: "w1-a", UserID: "other", WeekNumber: 1, Status: models.ProgressCompleted},
	} {
		if _, err := store.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	rows, err := store.ListForWeek(ctx, pid, 1)
	if err != nil {
		t.Fatalf("ListForWeek failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("ListForWeek: got %d rows, want 2", len(rows))
	}

	all, err := store.ListForPairing(ctx, pid)
	if err != nil {
		t.Fatalf("ListForPairing failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListForPairing: got %d rows, want 3", len(all))
	}

	got, err := store.Get(ctx, pid, "w2-a", "learner-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.ProgressInProgress {
		t.Errorf("Get status: got %q", got.Status)
	}
}
