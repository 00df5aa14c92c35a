package push_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/pathway/internal/app/features/push"
	pushsubstore "github.com/dalemusser/pathway/internal/app/store/pushsubs"
	"github.com/dalemusser/pathway/internal/testutil"
	"go.uber.org/zap"
)

const endpoint = "https://push.example.com/send/abc123"

func subscription() map[string]any {
	return map[string]any{
		"endpoint": endpoint,
		"keys":     map[string]string{"p256dh": "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA", "auth": "tBHItJI5svbpez7KI4CCXg"},
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := push.Routes(push.NewHandler(db, "pub", zap.NewNop()))
	store := pushsubstore.New(db)
	user := testutil.LearnerUser()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/subscriptions", subscription(), user))
		rec.AssertStatus(t, http.StatusNoContent)
	}
	subs, err := store.ListForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(subs) != 1 || subs[0].Endpoint != endpoint {
		t.Fatalf("subs = %+v, want one row per endpoint", subs)
	}

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodDelete, "/subscriptions",
		map[string]string{"endpoint": endpoint}, user))
	rec.AssertStatus(t, http.StatusNoContent)

	subs, _ = store.ListForUser(ctx, user.ID)
	if len(subs) != 0 {
		t.Errorf("subs = %+v after unsubscribe, want none", subs)
	}
}

func TestSubscribe_Invalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := push.Routes(push.NewHandler(db, "pub", zap.NewNop()))

	body := subscription()
	body["endpoint"] = "not a url"
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/subscriptions", body, testutil.LearnerUser()))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestServePublicKey(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rec := testutil.NewRecorder()
	push.Routes(push.NewHandler(db, "", zap.NewNop())).ServeHTTP(rec,
		testutil.NewAuthenticatedRequest(t, http.MethodGet, "/public-key", nil, testutil.LearnerUser()))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	push.Routes(push.NewHandler(db, "pub", zap.NewNop())).ServeHTTP(rec,
		testutil.NewAuthenticatedRequest(t, http.MethodGet, "/public-key", nil, testutil.LearnerUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"public_key":"pub"`)
}
