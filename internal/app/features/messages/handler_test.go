package messages_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/pathway/internal/app/features/messages"
	"github.com/dalemusser/pathway/internal/app/services"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/dalemusser/pathway/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fixture struct {
	router          chi.Router
	leader, learner models.Profile
	outsider        models.Profile
	base            string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	f := &fixture{
		leader:   fx.CreateProfile(ctx, "Naomi", models.RoleLeader),
		learner:  fx.CreateProfile(ctx, "Ruth", models.RoleLearner),
		outsider: fx.CreateProfile(ctx, "Mara", models.RoleLearner),
	}
	p := fx.CreateActivePairing(ctx, f.leader.ID, f.learner.ID, "AB3D9F", 1)
	f.base = "/pairings/" + p.ID.Hex() + "/messages"

	svc := services.New(db, nil, nil, logger)
	r := chi.NewRouter()
	r.Mount("/pairings/{pairingID}/messages", messages.Routes(messages.NewHandler(db, svc.Messaging, logger)))
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, user models.Profile) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	f.router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, f.base+path, body, testutil.AsUser(user)))
	return rec
}

func TestConversation(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{"hello", "how was your week?"} {
		f.do(t, http.MethodPost, "/", map[string]string{"content": text}, f.leader).AssertStatus(t, http.StatusCreated)
	}
	f.do(t, http.MethodPost, "/", map[string]string{"content": "good!"}, f.learner).AssertStatus(t, http.StatusCreated)

	var list []models.Message
	rec := f.do(t, http.MethodGet, "/", nil, f.learner)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &list)
	if len(list) != 3 || list[0].Content != "hello" || list[2].Content != "good!" {
		t.Fatalf("list = %+v, want oldest first", list)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	rec = f.do(t, http.MethodGet, "/unread-count", nil, f.learner)
	rec.DecodeJSON(t, &count)
	if count.Count != 2 {
		t.Errorf("learner unread = %d, want 2", count.Count)
	}

	rec = f.do(t, http.MethodPost, "/read", nil, f.learner)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &count)
	if count.Count != 2 {
		t.Errorf("marked = %d, want 2", count.Count)
	}
	rec = f.do(t, http.MethodPost, "/read", nil, f.learner)
	rec.DecodeJSON(t, &count)
	if count.Count != 0 {
		t.Errorf("second mark = %d, want 0", count.Count)
	}

	rec = f.do(t, http.MethodGet, "/?limit=1", nil, f.leader)
	rec.DecodeJSON(t, &list)
	if len(list) != 1 || list[0].Content != "good!" {
		t.Errorf("limited list = %+v, want newest message", list)
	}
}

func TestSend_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body any
		user models.Profile
		want int
	}{
		{"blank", map[string]string{"content": "   "}, f.leader, http.StatusUnprocessableEntity},
		{"too long", map[string]string{"content": strings.Repeat("a", 4001)}, f.leader, http.StatusUnprocessableEntity},
		{"outsider", map[string]string{"content": "hi"}, f.outsider, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.do(t, http.MethodPost, "/", tt.body, tt.user).AssertStatus(t, tt.want)
		})
	}
}

func TestList_BadLimit(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/?limit=-1", nil, f.leader).AssertStatus(t, http.StatusBadRequest)
}
