// internal/app/features/pairings/handler.go
package pairings

import (
	"github.com/dalemusser/pathway/internal/app/services"
	"github.com/dalemusser/pathway/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the pairing lifecycle and progress endpoints.
type Handler struct {
	DB       *mongo.Database
	Services *services.Set
	Joins    *ratelimit.JoinLimiter
	Log      *zap.Logger
}

// NewHandler constructs a pairings Handler. joins may be nil to disable
// invite code rate limiting.
func NewHandler(db *mongo.Database, svc *services.Set, joins *ratelimit.JoinLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Services: svc,
		Joins:    joins,
		Log:      logger,
	}
}
