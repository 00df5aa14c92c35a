package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/pathway/internal/app/services"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/app/system/ratelimit"
	"github.com/dalemusser/pathway/internal/app/system/realtime"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/dalemusser/pathway/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestRouter(t *testing.T) (http.Handler, DBDeps) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	joins := ratelimit.NewJoinLimiter(10, time.Minute)
	t.Cleanup(joins.Close)

	deps := DBDeps{
		PathwayMongoClient:   db.Client(),
		PathwayMongoDatabase: db,
		Runtime: &Runtime{
			Services: services.New(db, nil, nil, logger),
			Realtime: realtime.Nop{},
			Verifier: auth.NewVerifier(testSecret, "", "", logger),
			Joins:    joins,
			Metrics:  metrics.NewRegistry(),
		},
	}
	h, err := BuildHandler(&config.CoreConfig{}, validConfig(), deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h, deps
}

func bearer(t *testing.T, u auth.SessionUser) string {
	t.Helper()
	tok, err := auth.Sign(testSecret, u, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return "Bearer " + tok
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	if _, err := BuildHandler(&config.CoreConfig{}, validConfig(), DBDeps{}, zap.NewNop()); err == nil {
		t.Fatal("BuildHandler without Runtime should fail")
	}
}

func TestRoutes_PublicAndProtected(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"profile needs token", http.MethodGet, "/profile", http.StatusUnauthorized},
		{"pairings need token", http.MethodGet, "/pairings/current", http.StatusUnauthorized},
		{"notifications need token", http.MethodGet, "/notifications", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestRoutes_PairingSubresources(t *testing.T) {
	h, deps := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, deps.PathwayMongoDatabase)
	leader := fx.CreateProfile(ctx, "Naomi", models.RoleLeader)
	learner := fx.CreateProfile(ctx, "Ruth", models.RoleLearner)
	p := fx.CreateActivePairing(ctx, leader.ID, learner.ID, "AB3D9F", 1)
	token := bearer(t, auth.SessionUser{ID: learner.ID, Name: learner.FullName, Email: learner.Email})
	base := "/pairings/" + p.ID.Hex()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"current", "/pairings/current", http.StatusOK},
		{"messages", base + "/messages", http.StatusOK},
		{"week locked until covenant", base + "/weeks/1", http.StatusForbidden},
		{"progress", base + "/progress", http.StatusOK},
		{"unknown pairing", "/pairings/" + uuid.NewString() + "/progress", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d (body: %s)", tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
