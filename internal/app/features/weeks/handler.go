// internal/app/features/weeks/handler.go
package weeks

import (
	"github.com/dalemusser/pathway/internal/app/services/progress"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves curriculum week content and reflections for a pairing.
type Handler struct {
	DB       *mongo.Database
	Progress *progress.Service
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, prog *progress.Service, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Progress: prog, Log: logger}
}
