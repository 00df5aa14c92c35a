// internal/app/features/profile/handler.go
package profile

import (
	"github.com/dalemusser/pathway/internal/app/services/onboarding"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the profile and onboarding endpoints.
type Handler struct {
	DB         *mongo.Database
	Onboarding *onboarding.Service
	Log        *zap.Logger
}

// NewHandler constructs a Handler bound to the given Mongo database,
// onboarding service and logger.
func NewHandler(db *mongo.Database, ob *onboarding.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Onboarding: ob,
		Log:        logger,
	}
}
