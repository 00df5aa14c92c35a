// Package messaging is the conversation between a pairing's leader and
// learner, plus the leader's one-way encouragement notes.
package messaging

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/pathway/internal/app/services/notify"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	"github.com/dalemusser/pathway/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/app/system/realtime"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxContentLength is the longest message accepted, in characters.
const MaxContentLength = 4000

// MaxEncouragementLength bounds an encouragement note.
const MaxEncouragementLength = 500

// Store persists the message log.
type Store interface {
	Insert(ctx context.Context, m models.Message) (models.Message, error)
	List(ctx context.Context, pairingID primitive.ObjectID, limit int64) ([]models.Message, error)
	MarkRead(ctx context.Context, pairingID primitive.ObjectID, viewerID string) (int64, error)
	UnreadCount(ctx context.Context, pairingID primitive.ObjectID, viewerID string) (int64, error)
}

// Pairings loads the pairing a message belongs to.
type Pairings interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Pairing, error)
}

// Profiles resolves display names for notifications.
type Profiles interface {
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

// Notifier raises notifications.
type Notifier interface {
	Emit(ctx context.Context, ev notify.Event) error
}

// Service sends and reads pairing messages.
type Service struct {
	store    Store
	pairings Pairings
	profiles Profiles
	notifier Notifier
	rt       realtime.Publisher
	log      *zap.Logger
	now      func() time.Time
}

// New returns a Service. rt may be nil.
func New(store Store, pairings Pairings, profiles Profiles, notifier Notifier, rt realtime.Publisher, logger *zap.Logger) *Service {
	if rt == nil {
		rt = realtime.Nop{}
	}
	return &Service{
		store:    store,
		pairings: pairings,
		profiles: profiles,
		notifier: notifier,
		rt:       rt,
		log:      logger,
		now:      time.Now,
	}
}

// Send appends a message from senderID and notifies the other participant.
func (s *Service) Send(ctx context.Context, pairingID primitive.ObjectID, senderID, content string) (models.Message, error) {
	content = htmlsanitize.PlainText(content)
	if content == "" {
		return models.Message{}, apperr.Validation("message is empty",
			apperr.FieldError{Field: "content", Error: "is required"})
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return models.Message{}, apperr.Validation("message is too long",
			apperr.FieldError{Field: "content", Error: "must be at most 4000 characters"})
	}

	p, err := s.participant(ctx, pairingID, senderID)
	if err != nil {
		return models.Message{}, err
	}

	m, err := s.store.Insert(ctx, models.Message{
		ID:        primitive.NewObjectID(),
		PairingID: p.ID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.Message{}, apperr.Persistence("could not send message", err)
	}
	metrics.MessagesSent.Inc()
	s.rt.PairingChanged(p.ID.Hex(), realtime.Change{
		Table:  "messages",
		Op:     "insert",
		ID:     m.ID.Hex(),
		At:     m.CreatedAt,
		Fields: m,
	})

	if recipient := p.PartnerOf(senderID); recipient != "" {
		s.emit(ctx, notify.Event{
			Kind:       notify.NewMessage,
			PairingID:  p.ID,
			Recipients: []string{recipient},
			ActorName:  s.name(ctx, senderID),
			Text:       content,
		})
	}
	return m, nil
}

// List returns the conversation oldest first. A non-positive limit returns
// every message; otherwise the newest limit messages.
func (s *Service) List(ctx context.Context, pairingID primitive.ObjectID, viewerID string, limit int64) ([]models.Message, error) {
	if _, err := s.participant(ctx, pairingID, viewerID); err != nil {
		return nil, err
	}
	msgs, err := s.store.List(ctx, pairingID, limit)
	if err != nil {
		return nil, apperr.Persistence("could not load messages", err)
	}
	return msgs, nil
}

// MarkRead flags every message the viewer received in the pairing as read
// and returns how many changed. Calling it again returns 0.
func (s *Service) MarkRead(ctx context.Context, pairingID primitive.ObjectID, viewerID string) (int64, error) {
	if _, err := s.participant(ctx, pairingID, viewerID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkRead(ctx, pairingID, viewerID)
	if err != nil {
		return 0, apperr.Persistence("could not mark messages read", err)
	}
	if n > 0 {
		s.rt.PairingChanged(pairingID.Hex(), realtime.Change{
			Table: "messages",
			Op:    "update",
			At:    s.now().UTC(),
		})
	}
	return n, nil
}

// UnreadCount counts messages the viewer has not read yet.
func (s *Service) UnreadCount(ctx context.Context, pairingID primitive.ObjectID, viewerID string) (int64, error) {
	if _, err := s.participant(ctx, pairingID, viewerID); err != nil {
		return 0, err
	}
	n, err := s.store.UnreadCount(ctx, pairingID, viewerID)
	if err != nil {
		return 0, apperr.Persistence("could not count messages", err)
	}
	return n, nil
}

// Encourage sends a short note from the leader to the learner. It is
// delivered as a notification only and does not enter the message log.
func (s *Service) Encourage(ctx context.Context, pairingID primitive.ObjectID, leaderID, text string) error {
	text = htmlsanitize.PlainText(text)
	if text == "" {
		return apperr.Validation("encouragement is empty",
			apperr.FieldError{Field: "message", Error: "is required"})
	}
	if utf8.RuneCountInString(text) > MaxEncouragementLength {
		return apperr.Validation("encouragement is too long",
			apperr.FieldError{Field: "message", Error: "must be at most 500 characters"})
	}
	p, err := s.participant(ctx, pairingID, leaderID)
	if err != nil {
		return err
	}
	if p.LeaderID != leaderID {
		return apperr.Forbidden("only the leader can send encouragement")
	}
	if p.Learner() == "" {
		return apperr.Validation("no learner has joined yet")
	}
	if s.notifier == nil {
		return apperr.Persistence("could not send encouragement", errors.New("messaging: no notifier configured"))
	}
	err = s.notifier.Emit(ctx, notify.Event{
		Kind:       notify.Encouragement,
		PairingID:  p.ID,
		Recipients: []string{p.Learner()},
		ActorName:  s.name(ctx, leaderID),
		Text:       text,
	})
	if err != nil {
		// Encouragement has no other effect, so its failure is the caller's.
		return apperr.Persistence("could not send encouragement", err)
	}
	return nil
}

func (s *Service) participant(ctx context.Context, pairingID primitive.ObjectID, userID string) (models.Pairing, error) {
	p, err := s.pairings.GetByID(ctx, pairingID)
	if errors.Is(err, pairingstore.ErrNotFound) {
		return models.Pairing{}, apperr.NotFound("pairing not found")
	}
	if err != nil {
		return models.Pairing{}, apperr.Persistence("could not load pairing", err)
	}
	if !p.IsParticipant(userID) {
		return models.Pairing{}, apperr.Forbidden("you are not part of this pairing")
	}
	return p, nil
}

func (s *Service) name(ctx context.Context, id string) string {
	if s.profiles == nil {
		return ""
	}
	names, err := s.profiles.Names(ctx, []string{id})
	if err != nil {
		s.log.Warn("profile name lookup failed", zap.String("user_id", id), zap.Error(err))
		return ""
	}
	return names[id]
}

func (s *Service) emit(ctx context.Context, ev notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, ev); err != nil {
		s.log.Error("notification emit failed",
			zap.String("kind", string(ev.Kind)),
			zap.String("pairing_id", ev.PairingID.Hex()),
			zap.Error(err))
	}
}
