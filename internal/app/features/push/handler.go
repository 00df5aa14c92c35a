// internal/app/features/push/handler.go
package push

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler registers browser push subscriptions.
type Handler struct {
	DB *mongo.Database
	// PublicKey is the VAPID application server key handed to browsers.
	// Empty when push delivery is disabled.
	PublicKey string
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, publicKey string, logger *zap.Logger) *Handler {
	return &Handler{DB: db, PublicKey: publicKey, Log: logger}
}
