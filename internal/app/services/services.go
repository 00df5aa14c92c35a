// internal/app/services/services.go
package services

import (
	"github.com/dalemusser/pathway/internal/app/services/messaging"
	"github.com/dalemusser/pathway/internal/app/services/notify"
	"github.com/dalemusser/pathway/internal/app/services/onboarding"
	"github.com/dalemusser/pathway/internal/app/services/pairing"
	"github.com/dalemusser/pathway/internal/app/services/progress"
	curriculumstore "github.com/dalemusser/pathway/internal/app/store/curriculum"
	messagestore "github.com/dalemusser/pathway/internal/app/store/messages"
	notificationstore "github.com/dalemusser/pathway/internal/app/store/notifications"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	profilestore "github.com/dalemusser/pathway/internal/app/store/profiles"
	progressstore "github.com/dalemusser/pathway/internal/app/store/progress"
	"github.com/dalemusser/pathway/internal/app/system/realtime"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Set is the domain services wired against one database.
type Set struct {
	Notify     *notify.Emitter
	Pairing    *pairing.Service
	Progress   *progress.Service
	Messaging  *messaging.Service
	Onboarding *onboarding.Service
}

// New builds every service over db. queue and rt may be nil to disable
// push delivery and realtime events.
func New(db *mongo.Database, queue notify.Queue, rt realtime.Publisher, logger *zap.Logger) *Set {
	if rt == nil {
		rt = realtime.Nop{}
	}
	pairings := pairingstore.New(db)
	profiles := profilestore.New(db)

	emitter := notify.NewEmitter(notificationstore.New(db), profiles, queue, rt, logger)
	pairingSvc := pairing.New(pairings, profiles, emitter, rt, logger)

	return &Set{
		Notify:     emitter,
		Pairing:    pairingSvc,
		Progress:   progress.New(pairings, curriculumstore.New(db), progressstore.New(db), profiles, emitter, rt, logger),
		Messaging:  messaging.New(messagestore.New(db), pairings, profiles, emitter, rt, logger),
		Onboarding: onboarding.New(profiles, pairingSvc, logger),
	}
}
