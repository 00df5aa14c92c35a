// internal/app/policy/pairingpolicy/pairingpolicy.go
package pairingpolicy

import (
	"context"
	"errors"
	"net/http"

	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loader fetches a pairing by ID.
type Loader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Pairing, error)
}

// ForParticipant loads the pairing named by rawID and returns it with the
// current user's side. Only the leader and the learner may see a pairing.
func ForParticipant(ctx context.Context, pairings Loader, r *http.Request, rawID string) (models.Pairing, models.Side, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return models.Pairing{}, "", apperr.Unauthorized("sign in required")
	}
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return models.Pairing{}, "", apperr.NotFound("pairing not found")
	}
	p, err := pairings.GetByID(ctx, id)
	if errors.Is(err, pairingstore.ErrNotFound) {
		return models.Pairing{}, "", apperr.NotFound("pairing not found")
	}
	if err != nil {
		return models.Pairing{}, "", apperr.Persistence("could not load pairing", err)
	}
	side, ok := p.SideOf(u.ID)
	if !ok {
		return models.Pairing{}, "", apperr.Forbidden("you are not part of this pairing")
	}
	return p, side, nil
}

// ForLeader is ForParticipant restricted to the pairing's leader.
func ForLeader(ctx context.Context, pairings Loader, r *http.Request, rawID string) (models.Pairing, error) {
	p, side, err := ForParticipant(ctx, pairings, r, rawID)
	if err != nil {
		return models.Pairing{}, err
	}
	if side != models.SideLeader {
		return models.Pairing{}, apperr.Forbidden("only the leader can do this")
	}
	return p, nil
}

// CanViewWeek reports whether week's content is open: the covenant must be
// signed by both sides and the week must not be ahead of the pairing.
func CanViewWeek(p models.Pairing, week int) error {
	if week < models.FirstWeek || week > models.FinalWeek {
		return apperr.NotFound("week not found")
	}
	if !p.CovenantComplete() {
		return apperr.Forbidden("both partners must sign the covenant first")
	}
	if week > p.CurrentWeek {
		return apperr.Forbidden("this week is still locked")
	}
	return nil
}
