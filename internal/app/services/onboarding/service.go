// Package onboarding completes a new user's profile: the role is chosen
// once, leaders get a pending pairing to share, and learners may redeem
// an invite code in the same step.
package onboarding

import (
	"context"
	"errors"
	"strings"

	profilestore "github.com/dalemusser/pathway/internal/app/store/profiles"
	"github.com/dalemusser/pathway/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.uber.org/zap"
)

// Profiles is the profile persistence onboarding needs.
type Profiles interface {
	CompleteOnboarding(ctx context.Context, id string, role models.Role, fullName string) (models.Profile, error)
}

// Pairings opens and joins pairings.
type Pairings interface {
	CreatePairing(ctx context.Context, leaderID string) (models.Pairing, error)
	JoinPairing(ctx context.Context, code, learnerID string) (models.Pairing, error)
}

// Input is the onboarding form.
type Input struct {
	UserID     string
	Role       models.Role
	FullName   string
	InviteCode string
}

// Result is the onboarded profile and, when one was created or joined,
// the user's pairing.
type Result struct {
	Profile models.Profile  `json:"profile"`
	Pairing *models.Pairing `json:"pairing,omitempty"`
}

// Service completes onboarding.
type Service struct {
	profiles Profiles
	pairings Pairings
	log      *zap.Logger
}

func New(profiles Profiles, pairings Pairings, logger *zap.Logger) *Service {
	return &Service{profiles: profiles, pairings: pairings, log: logger}
}

// Complete records the role and runs the role's first pairing step.
//
// The profile is committed before the pairing step. When a learner's
// invite code is rejected, the profile stays onboarded, the join error
// is returned alongside it, and the code can be retried through the
// regular join operation.
func (s *Service) Complete(ctx context.Context, in Input) (Result, error) {
	if !in.Role.Valid() {
		return Result{}, apperr.Validation("invalid role",
			apperr.FieldError{Field: "role", Error: "must be leader or learner"})
	}
	name := htmlsanitize.PlainText(in.FullName)
	code := strings.TrimSpace(in.InviteCode)
	if in.Role == models.RoleLeader && code != "" {
		return Result{}, apperr.Validation("leaders do not join with a code",
			apperr.FieldError{Field: "invite_code", Error: "only learners can use an invite code"})
	}

	p, err := s.profiles.CompleteOnboarding(ctx, in.UserID, in.Role, name)
	switch {
	case errors.Is(err, profilestore.ErrAlreadyOnboarded):
		return Result{}, apperr.Conflict("onboarding is already complete")
	case errors.Is(err, profilestore.ErrNotFound):
		return Result{}, apperr.NotFound("profile not found")
	case err != nil:
		return Result{}, apperr.Persistence("could not complete onboarding", err)
	}
	res := Result{Profile: p}

	switch {
	case in.Role == models.RoleLeader:
		pairing, err := s.pairings.CreatePairing(ctx, in.UserID)
		if err != nil {
			s.log.Error("pairing for new leader not created", zap.String("user_id", in.UserID), zap.Error(err))
			return res, err
		}
		res.Pairing = &pairing
	case code != "":
		pairing, err := s.pairings.JoinPairing(ctx, code, in.UserID)
		if err != nil {
			return res, err
		}
		res.Pairing = &pairing
	}
	return res, nil
}
