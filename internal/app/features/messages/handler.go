// internal/app/features/messages/handler.go
package messages

import (
	"github.com/dalemusser/pathway/internal/app/services/messaging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves a pairing's conversation.
type Handler struct {
	DB        *mongo.Database
	Messaging *messaging.Service
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, svc *messaging.Service, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Messaging: svc, Log: logger}
}
