// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/pathway/internal/app/services/onboarding"
	profilestore "github.com/dalemusser/pathway/internal/app/store/profiles"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pathway/internal/app/system/httpjson"
	"github.com/dalemusser/pathway/internal/app/system/inputval"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.uber.org/zap"
)

type updateRequest struct {
	FullName  string `json:"full_name" validate:"notblank,max=100"`
	Bio       string `json:"bio" validate:"max=1000"`
	Phone     string `json:"phone" validate:"max=32"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,httpurl,max=2048"`
}

type onboardingRequest struct {
	Role       string `json:"role" validate:"required,oneof=leader learner"`
	FullName   string `json:"full_name" validate:"max=100"`
	InviteCode string `json:"invite_code" validate:"omitempty,max=16"`
}

// onboardingResponse carries the join failure next to the onboarded
// profile when a learner's invite code was rejected.
type onboardingResponse struct {
	onboarding.Result
	JoinError string `json:"join_error,omitempty"`
}

// ServeProfile returns the caller's profile, provisioning it from the
// token claims on first sight.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := profilestore.New(h.DB).Ensure(ctx, u.ID, u.Email, u.Name)
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load profile", err))
		return
	}
	httpjson.OK(w, p)
}

// HandleUpdate replaces the editable profile fields.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	var req updateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	req.FullName = htmlsanitize.PlainText(req.FullName)
	req.Bio = htmlsanitize.PlainText(req.Bio)
	req.Phone = strings.TrimSpace(req.Phone)
	req.AvatarURL = strings.TrimSpace(req.AvatarURL)
	if err := inputval.Check(req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := profilestore.New(h.DB).Update(ctx, u.ID, profilestore.ProfileUpdate{
		FullName:  req.FullName,
		Bio:       req.Bio,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		httpjson.Error(w, r, h.Log, storeErr(err))
		return
	}
	httpjson.OK(w, p)
}

// HandleUpdateSettings replaces the notification settings.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	var req models.NotificationSettings
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := profilestore.New(h.DB).UpdateSettings(ctx, u.ID, req)
	if err != nil {
		httpjson.Error(w, r, h.Log, storeErr(err))
		return
	}
	httpjson.OK(w, p)
}

// HandleOnboarding records the caller's role. Leaders get a fresh
// pairing; learners with an invite code join one.
func (h *Handler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	var req onboardingRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	req.FullName = htmlsanitize.PlainText(req.FullName)
	if err := inputval.Check(req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Onboarding can be the first request a new user makes.
	if _, err := profilestore.New(h.DB).Ensure(ctx, u.ID, u.Email, u.Name); err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load profile", err))
		return
	}

	res, err := h.Onboarding.Complete(ctx, onboarding.Input{
		UserID:     u.ID,
		Role:       models.Role(req.Role),
		FullName:   req.FullName,
		InviteCode: req.InviteCode,
	})
	if err != nil && res.Profile.ID == "" {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	out := onboardingResponse{Result: res}
	if err != nil {
		h.Log.Info("onboarding join rejected",
			zap.String("user_id", u.ID),
			zap.String("reason", apperr.Message(err)))
		out.JoinError = apperr.Message(err)
	}
	httpjson.Write(w, http.StatusCreated, out)
}

func storeErr(err error) error {
	if errors.Is(err, profilestore.ErrNotFound) {
		return apperr.NotFound("profile not found")
	}
	return apperr.Persistence("could not save profile", err)
}
