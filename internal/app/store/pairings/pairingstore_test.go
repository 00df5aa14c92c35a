package pairingstore_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	"github.com/dalemusser/pathway/internal/app/system/indexes"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/dalemusser/pathway/internal/testutil"
	"go.uber.org/zap"
)

func newPending(leaderID, code string) models.Pairing {
	now := time.Now().UTC()
	return models.Pairing{
		LeaderID:    leaderID,
		InviteCode:  code,
		Status:      models.PairingPending,
		CurrentWeek: models.FirstWeek,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newPending("leader-1", "AB3D9F"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LearnerID != nil {
		t.Errorf("expected nil learner, got %q", *got.LearnerID)
	}
	if got.Status != models.PairingPending || got.CurrentWeek != 1 {
		t.Errorf("unexpected pairing state: status=%q week=%d", got.Status, got.CurrentWeek)
	}

	joinable, err := store.GetJoinable(ctx, "AB3D9F")
	if err != nil {
		t.Fatalf("GetJoinable failed: %v", err)
	}
	if joinable.ID != created.ID {
		t.Errorf("GetJoinable returned %s, want %s", joinable.ID.Hex(), created.ID.Hex())
	}
}

func TestStore_Create_DuplicateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if _, err := store.Create(ctx, newPending("leader-1", "AB3D9F")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, newPending("leader-2", "AB3D9F"))
	if !errors.Is(err, pairingstore.ErrDuplicateInviteCode) {
		t.Errorf("expected ErrDuplicateInviteCode, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	p := fixtures.CreatePendingPairing(ctx, "leader-1", "ZZZZZZ")
	if _, err := db.Collection("pairings").DeleteOne(ctx, map[string]any{"_id": p.ID}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, pairingstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ClaimLearnerSeat_SingleWinner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreatePendingPairing(ctx, "leader-1", "AB3D9F")

	const joiners = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		changed int
	)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.ClaimLearnerSeat(ctx, p.ID, "AB3D9F", fmt.Sprintf("learner-%d", i), time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, pairingstore.ErrStateChanged):
				changed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
	if changed != joiners-1 {
		t.Errorf("expected %d ErrStateChanged, got %d", joiners-1, changed)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.PairingActive || got.LearnerID == nil || got.StartedAt == nil {
		t.Errorf("pairing not activated: %+v", got)
	}
}

func TestStore_SetInviteCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreatePendingPairing(ctx, "leader-1", "AB3D9F")

	updated, err := store.SetInviteCode(ctx, p.ID, "QWERTY", time.Now().UTC())
	if err != nil {
		t.Fatalf("SetInviteCode failed: %v", err)
	}
	if updated.InviteCode != "QWERTY" {
		t.Errorf("invite code: got %q, want %q", updated.InviteCode, "QWERTY")
	}
	if _, err := store.GetJoinable(ctx, "AB3D9F"); !errors.Is(err, pairingstore.ErrNotFound) {
		t.Errorf("old code should no longer be joinable, got %v", err)
	}
}

func TestStore_SignCovenant_FlipsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateActivePairing(ctx, "leader-1", "learner-1", "AB3D9F", 1)

	got, flipped, err := store.SignCovenant(ctx, p.ID, models.SideLeader, time.Now().UTC())
	if err != nil {
		t.Fatalf("SignCovenant failed: %v", err)
	}
	if !flipped || !got.CovenantAcceptedLeader {
		t.Errorf("first sign: flipped=%v leader=%v", flipped, got.CovenantAcceptedLeader)
	}

	got, flipped, err = store.SignCovenant(ctx, p.ID, models.SideLeader, time.Now().UTC())
	if err != nil {
		t.Fatalf("second SignCovenant failed: %v", err)
	}
	if flipped {
		t.Error("second sign should not flip")
	}
	if !got.CovenantAcceptedLeader || got.CovenantAcceptedLearner {
		t.Errorf("unexpected flags after re-sign: %+v", got)
	}
}

func TestStore_AdvanceWeek_KeyedOnPriorWeek(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateActivePairing(ctx, "leader-1", "learner-1", "AB3D9F", 1)

	got, advanced, err := store.AdvanceWeek(ctx, p.ID, 1, time.Now().UTC())
	if err != nil || !advanced {
		t.Fatalf("first AdvanceWeek: advanced=%v err=%v", advanced, err)
	}
	if got.CurrentWeek != 2 {
		t.Errorf("current week: got %d, want 2", got.CurrentWeek)
	}

	// A second caller that also observed week 1 must not advance again.
	_, advanced, err = store.AdvanceWeek(ctx, p.ID, 1, time.Now().UTC())
	if err != nil {
		t.Fatalf("second AdvanceWeek failed: %v", err)
	}
	if advanced {
		t.Error("stale AdvanceWeek should not advance")
	}

	final := fixtures.CreateActivePairing(ctx, "leader-2", "learner-2", "QWERTY", models.FinalWeek)
	_, advanced, err = store.AdvanceWeek(ctx, final.ID, models.FinalWeek, time.Now().UTC())
	if err != nil || advanced {
		t.Errorf("AdvanceWeek past final week: advanced=%v err=%v", advanced, err)
	}
}

func TestStore_MarkJourneyComplete_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	early := fixtures.CreateActivePairing(ctx, "leader-1", "learner-1", "AB3D9F", 3)
	if _, marked, err := store.MarkJourneyComplete(ctx, early.ID, time.Now().UTC()); err != nil || marked {
		t.Errorf("week 3 pairing: marked=%v err=%v", marked, err)
	}

	p := fixtures.CreateActivePairing(ctx, "leader-2", "learner-2", "QWERTY", models.FinalWeek)
	got, marked, err := store.MarkJourneyComplete(ctx, p.ID, time.Now().UTC())
	if err != nil || !marked {
		t.Fatalf("first MarkJourneyComplete: marked=%v err=%v", marked, err)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if got.Status != models.PairingActive {
		t.Errorf("status: got %q, want %q", got.Status, models.PairingActive)
	}

	_, marked, err = store.MarkJourneyComplete(ctx, p.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("second MarkJourneyComplete failed: %v", err)
	}
	if marked {
		t.Error("second MarkJourneyComplete should not match")
	}
}

func TestStore_LatestForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pairingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	older := newPending("leader-1", "AAAAAA")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if _, err := store.Create(ctx, older); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	newer, err := store.Create(ctx, newPending("leader-1", "BBBBBB"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.LatestForUser(ctx, "leader-1")
	if err != nil {
		t.Fatalf("LatestForUser failed: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("LatestForUser returned %s, want %s", got.ID.Hex(), newer.ID.Hex())
	}

	all, err := store.ListForUser(ctx, "leader-1")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListForUser: got %d pairings, want 2", len(all))
	}

	if _, err := store.LatestForUser(ctx, "nobody"); !errors.Is(err, pairingstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}
