// Package pairing implements the pairing lifecycle: creating a pending
// pairing with an invite code, redeeming the code, and signing the
// covenant.
//
// State transitions are single conditional writes against the store, so
// concurrent callers resolve without in-process locking.
package pairing

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pathway/internal/app/services/notify"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/app/system/realtime"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxCodeAttempts bounds retries after an invite code collision.
const maxCodeAttempts = 5

// Store is the pairing persistence the service needs.
type Store interface {
	Create(ctx context.Context, p models.Pairing) (models.Pairing, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Pairing, error)
	GetJoinable(ctx context.Context, code string) (models.Pairing, error)
	ClaimLearnerSeat(ctx context.Context, id primitive.ObjectID, code, learnerID string, now time.Time) (models.Pairing, error)
	SetInviteCode(ctx context.Context, id primitive.ObjectID, code string, now time.Time) (models.Pairing, error)
	SignCovenant(ctx context.Context, id primitive.ObjectID, side models.Side, now time.Time) (models.Pairing, bool, error)
}

// Profiles resolves display names for notifications.
type Profiles interface {
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

// Notifier raises notifications.
type Notifier interface {
	Emit(ctx context.Context, ev notify.Event) error
}

// Service runs pairing lifecycle operations.
type Service struct {
	store    Store
	profiles Profiles
	notifier Notifier
	rt       realtime.Publisher
	log      *zap.Logger

	now     func() time.Time
	newCode func() (string, error)
}

// New returns a Service. rt may be nil.
func New(store Store, profiles Profiles, notifier Notifier, rt realtime.Publisher, logger *zap.Logger) *Service {
	if rt == nil {
		rt = realtime.Nop{}
	}
	return &Service{
		store:    store,
		profiles: profiles,
		notifier: notifier,
		rt:       rt,
		log:      logger,
		now:      time.Now,
		newCode:  GenerateCode,
	}
}

// CreatePairing opens a pending pairing owned by leaderID.
func (s *Service) CreatePairing(ctx context.Context, leaderID string) (models.Pairing, error) {
	if leaderID == "" {
		return models.Pairing{}, apperr.Validation("leader is required")
	}
	now := s.now().UTC()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return models.Pairing{}, apperr.Persistence("could not generate invite code", err)
		}
		p, err := s.store.Create(ctx, models.Pairing{
			ID:          primitive.NewObjectID(),
			LeaderID:    leaderID,
			InviteCode:  code,
			Status:      models.PairingPending,
			CurrentWeek: models.FirstWeek,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if errors.Is(err, pairingstore.ErrDuplicateInviteCode) {
			s.log.Debug("invite code collision, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return models.Pairing{}, apperr.Persistence("could not create pairing", err)
		}
		metrics.PairingEvents.WithLabelValues("created").Inc()
		return p, nil
	}
	return models.Pairing{}, apperr.Persistence("could not allocate a unique invite code", pairingstore.ErrDuplicateInviteCode)
}

// RegenerateInviteCode replaces the invite code of a pending or active
// pairing. The old code stops working immediately.
func (s *Service) RegenerateInviteCode(ctx context.Context, pairingID primitive.ObjectID) (models.Pairing, error) {
	p, err := s.get(ctx, pairingID)
	if err != nil {
		return models.Pairing{}, err
	}
	if p.Status != models.PairingPending && p.Status != models.PairingActive {
		return models.Pairing{}, apperr.Validation("invite codes can only be changed on pending or active pairings")
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return models.Pairing{}, apperr.Persistence("could not generate invite code", err)
		}
		updated, err := s.store.SetInviteCode(ctx, pairingID, code, s.now().UTC())
		switch {
		case errors.Is(err, pairingstore.ErrDuplicateInviteCode):
			continue
		case errors.Is(err, pairingstore.ErrStateChanged):
			return models.Pairing{}, apperr.Conflict("pairing changed while regenerating the code")
		case err != nil:
			return models.Pairing{}, apperr.Persistence("could not update invite code", err)
		}
		metrics.PairingEvents.WithLabelValues("code_regenerated").Inc()
		s.publish(updated, "update")
		return updated, nil
	}
	return models.Pairing{}, apperr.Persistence("could not allocate a unique invite code", pairingstore.ErrDuplicateInviteCode)
}

// JoinPairing seats learnerID in the pending pairing identified by code.
// Of several concurrent callers with the same code, exactly one wins; the
// rest get a Conflict.
func (s *Service) JoinPairing(ctx context.Context, code, learnerID string) (models.Pairing, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		metrics.JoinFailures.WithLabelValues("malformed").Inc()
		return models.Pairing{}, apperr.Validation("invalid invite code",
			apperr.FieldError{Field: "invite_code", Error: "must be 6 characters from the invite code alphabet"})
	}
	if learnerID == "" {
		return models.Pairing{}, apperr.Validation("learner is required")
	}

	p, err := s.store.GetJoinable(ctx, code)
	if errors.Is(err, pairingstore.ErrNotFound) {
		metrics.JoinFailures.WithLabelValues("not_found").Inc()
		return models.Pairing{}, apperr.NotFound("invalid or already used code")
	}
	if err != nil {
		return models.Pairing{}, apperr.Persistence("could not look up invite code", err)
	}
	if p.LeaderID == learnerID {
		metrics.JoinFailures.WithLabelValues("self_join").Inc()
		return models.Pairing{}, apperr.SelfJoin("you cannot join your own pairing")
	}

	joined, err := s.store.ClaimLearnerSeat(ctx, p.ID, code, learnerID, s.now().UTC())
	if errors.Is(err, pairingstore.ErrStateChanged) {
		metrics.JoinFailures.WithLabelValues("conflict").Inc()
		return models.Pairing{}, apperr.Conflict("this code was just used by someone else")
	}
	if err != nil {
		return models.Pairing{}, apperr.Persistence("could not join pairing", err)
	}
	metrics.PairingEvents.WithLabelValues("joined").Inc()
	s.publish(joined, "update")

	names := s.names(ctx, joined.LeaderID, learnerID)
	s.emit(ctx, notify.Event{
		Kind:       notify.LearnerJoined,
		PairingID:  joined.ID,
		Recipients: []string{joined.LeaderID},
		ActorName:  names[learnerID],
	})
	s.emit(ctx, notify.Event{
		Kind:       notify.PairingCreated,
		PairingID:  joined.ID,
		Recipients: []string{learnerID},
		ActorName:  names[joined.LeaderID],
	})
	return joined, nil
}

// SignCovenant records side's acceptance of the covenant. Signing twice
// is a no-op that raises no notification.
func (s *Service) SignCovenant(ctx context.Context, pairingID primitive.ObjectID, side models.Side) (models.Pairing, error) {
	if !side.Valid() {
		return models.Pairing{}, apperr.Validation("side must be leader or learner")
	}
	p, flipped, err := s.store.SignCovenant(ctx, pairingID, side, s.now().UTC())
	if errors.Is(err, pairingstore.ErrNotFound) {
		return models.Pairing{}, apperr.NotFound("pairing not found")
	}
	if err != nil {
		return models.Pairing{}, apperr.Persistence("could not sign covenant", err)
	}
	if !flipped {
		return p, nil
	}
	s.publish(p, "update")

	signer := p.ParticipantID(side)
	partner := p.ParticipantID(side.Other())
	names := s.names(ctx, p.LeaderID, p.Learner())

	if p.CovenantComplete() {
		metrics.PairingEvents.WithLabelValues("covenant_complete").Inc()
		// Each side is told the other's name.
		s.emit(ctx, notify.Event{
			Kind:       notify.CovenantComplete,
			PairingID:  p.ID,
			Recipients: []string{p.LeaderID},
			ActorName:  names[p.Learner()],
		})
		s.emit(ctx, notify.Event{
			Kind:       notify.CovenantComplete,
			PairingID:  p.ID,
			Recipients: []string{p.Learner()},
			ActorName:  names[p.LeaderID],
		})
		return p, nil
	}

	metrics.PairingEvents.WithLabelValues("covenant_signed").Inc()
	if partner != "" {
		s.emit(ctx, notify.Event{
			Kind:       notify.CovenantSigned,
			PairingID:  p.ID,
			Recipients: []string{partner},
			ActorName:  names[signer],
		})
	}
	return p, nil
}

// SideFor maps userID to its side of p. Non-participants get Forbidden.
func SideFor(p models.Pairing, userID string) (models.Side, error) {
	side, ok := p.SideOf(userID)
	if !ok {
		return "", apperr.Forbidden("you are not part of this pairing")
	}
	return side, nil
}

func (s *Service) get(ctx context.Context, id primitive.ObjectID) (models.Pairing, error) {
	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, pairingstore.ErrNotFound) {
		return models.Pairing{}, apperr.NotFound("pairing not found")
	}
	if err != nil {
		return models.Pairing{}, apperr.Persistence("could not load pairing", err)
	}
	return p, nil
}

// names looks up display names; failures degrade to the generic
// "Your partner" wording.
func (s *Service) names(ctx context.Context, ids ...string) map[string]string {
	if s.profiles == nil {
		return map[string]string{}
	}
	m, err := s.profiles.Names(ctx, ids)
	if err != nil {
		s.log.Warn("profile name lookup failed", zap.Error(err))
		return map[string]string{}
	}
	return m
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

func (s *Service) publish(p models.Pairing, op string) {
	s.rt.PairingChanged(p.ID.Hex(), realtime.Change{
		Table: "pairings",
		Op:    op,
		ID:    p.ID.Hex(),
		At:    p.UpdatedAt,
	})
}
