// Package notify turns domain events into in-app notifications and
// best-effort push messages.
//
// Each recipient of an event gets exactly one persisted Notification and
// at most one push attempt. Only persistence failures are reported back;
// callers log them and carry on, so a notification problem never undoes
// the operation that raised it.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/app/system/push"
	"github.com/dalemusser/pathway/internal/app/system/realtime"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store persists notifications.
type Store interface {
	Insert(ctx context.Context, n models.Notification) (models.Notification, error)
}

// Profiles supplies recipients' notification settings.
type Profiles interface {
	Get(ctx context.Context, id string) (models.Profile, error)
}

// Queue accepts push messages for asynchronous delivery.
type Queue interface {
	Enqueue(m push.Message) bool
}

// Emitter is the single entry point services use to raise notifications.
type Emitter struct {
	store    Store
	profiles Profiles
	queue    Queue
	rt       realtime.Publisher
	log      *zap.Logger
	now      func() time.Time
}

// NewEmitter wires an Emitter. queue and rt may be nil to disable push
// and realtime events.
func NewEmitter(store Store, profiles Profiles, queue Queue, rt realtime.Publisher, logger *zap.Logger) *Emitter {
	if rt == nil {
		rt = realtime.Nop{}
	}
	return &Emitter{
		store:    store,
		profiles: profiles,
		queue:    queue,
		rt:       rt,
		log:      logger,
		now:      time.Now,
	}
}

// Emit persists one notification per recipient and schedules its push.
// Empty recipient IDs are skipped.
func (e *Emitter) Emit(ctx context.Context, ev Event) error {
	r, err := render(ev)
	if err != nil {
		return err
	}

	var pairingID *primitive.ObjectID
	if !ev.PairingID.IsZero() {
		id := ev.PairingID
		pairingID = &id
	}

	var errs []error
	for _, recipient := range ev.Recipients {
		if recipient == "" {
			continue
		}
		n, err := e.store.Insert(ctx, models.Notification{
			ID:        primitive.NewObjectID(),
			UserID:    recipient,
			PairingID: pairingID,
			Type:      r.typ,
			Title:     r.title,
			Message:   r.body,
			CreatedAt: e.now().UTC(),
		})
		if err != nil {
			metrics.NotificationFailures.Inc()
			errs = append(errs, err)
			continue
		}
		metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()

		e.rt.UserChanged(recipient, realtime.Change{
			Table: "notifications",
			Op:    "insert",
			ID:    n.ID.Hex(),
			At:    n.CreatedAt,
		})
		e.schedulePush(ctx, n)
	}
	return errors.Join(errs...)
}

func (e *Emitter) schedulePush(ctx context.Context, n models.Notification) {
	if e.queue == nil || !e.pushAllowed(ctx, n) {
		return
	}
	e.queue.Enqueue(push.Message{
		UserID: n.UserID,
		Title:  n.Title,
		Body:   n.Message,
		URL:    n.Type.TargetPath(n.PairingID),
		Tag:    "notif-" + n.ID.Hex(),
	})
}

// pushAllowed checks the recipient's settings. A missing profile or a
// lookup failure falls back to sending.
func (e *Emitter) pushAllowed(ctx context.Context, n models.Notification) bool {
	if e.profiles == nil {
		return true
	}
	p, err := e.profiles.Get(ctx, n.UserID)
	if err != nil {
		return true
	}
	if n.Type.IsProgress() {
		return p.Settings.Progress
	}
	return p.Settings.Messages
}
