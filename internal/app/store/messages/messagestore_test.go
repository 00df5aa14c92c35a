package messagestore_test

import (
	"testing"
	"time"

	messagestore "github.com/dalemusser/pathway/internal/app/store/messages"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/dalemusser/pathway/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_List_OrderAndTies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	same := time.Now().UTC().Truncate(time.Millisecond)
	var ids []primitive.ObjectID
	for i, content := range []string{"first", "second", "third"} {
		m, err := store.Insert(ctx, models.Message{
			PairingID: pid,
			SenderID:  "leader-1",
			Content:   content,
			CreatedAt: same.Add(time.Duration(i/2) * time.Second),
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		ids = append(ids, m.ID)
	}

	got, err := store.List(ctx, pid, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List: got %d messages, want 3", len(got))
	}
	for i := range ids {
		if got[i].ID != ids[i] {
			t.Errorf("position %d: got %q, want insertion order", i, got[i].Content)
		}
	}

	limited, err := store.List(ctx, pid, 2)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 2 || limited[0].Content != "second" || limited[1].Content != "third" {
		t.Errorf("limited List should return the newest two ascending, got %+v", limited)
	}
}

func TestStore_MarkRead_Monotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	now := time.Now().UTC()
	for _, sender := range []string{"leader-1", "leader-1", "learner-1"} {
		if _, err := store.Insert(ctx, models.Message{PairingID: pid, SenderID: sender, Content: "hi", CreatedAt: now}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	n, err := store.MarkRead(ctx, pid, "learner-1")
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if n != 2 {
		t.Errorf("MarkRead: got %d, want 2", n)
	}

	n, err = store.MarkRead(ctx, pid, "learner-1")
	if err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second MarkRead: got %d, want 0", n)
	}

	unread, err := store.UnreadCount(ctx, pid, "leader-1")
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 1 {
		t.Errorf("leader unread: got %d, want 1", unread)
	}

	msgs, err := store.List(ctx, pid, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, m := range msgs {
		if m.SenderID == "leader-1" && !m.IsRead {
			t.Errorf("message %s should be read", m.ID.Hex())
		}
		if m.SenderID == "learner-1" && m.IsRead {
			t.Errorf("viewer's own message %s must stay unread", m.ID.Hex())
		}
	}
}
