// internal/app/features/pairings/lifecycle.go
package pairings

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/pathway/internal/app/policy/pairingpolicy"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	profilestore "github.com/dalemusser/pathway/internal/app/store/profiles"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/httpjson"
	"github.com/dalemusser/pathway/internal/app/system/inputval"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// currentResponse is the caller's most recent pairing seen from their side.
type currentResponse struct {
	Pairing models.Pairing  `json:"pairing"`
	Side    models.Side     `json:"side"`
	Partner *models.Profile `json:"partner"`
}

type joinRequest struct {
	InviteCode string `json:"invite_code" validate:"required,max=16"`
}

// ServeCurrent returns the caller's latest pairing and partner profile.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := pairingstore.New(h.DB).LatestForUser(ctx, u.ID)
	if errors.Is(err, pairingstore.ErrNotFound) {
		httpjson.Error(w, r, h.Log, apperr.NotFound("no pairing yet"))
		return
	}
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load pairing", err))
		return
	}

	side, _ := p.SideOf(u.ID)
	out := currentResponse{Pairing: p, Side: side}
	if partnerID := p.PartnerOf(u.ID); partnerID != "" {
		partner, err := profilestore.New(h.DB).Get(ctx, partnerID)
		switch {
		case err == nil:
			out.Partner = &partner
		case !errors.Is(err, profilestore.ErrNotFound):
			h.Log.Warn("partner profile lookup failed", zap.String("pairing_id", p.ID.Hex()), zap.Error(err))
		}
	}
	httpjson.OK(w, out)
}

// HandleCreate opens a new pending pairing. Only leaders create pairings.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prof, err := profilestore.New(h.DB).Get(ctx, u.ID)
	if errors.Is(err, profilestore.ErrNotFound) || (err == nil && prof.Role != models.RoleLeader) {
		httpjson.Error(w, r, h.Log, apperr.Forbidden("only leaders can start a pairing"))
		return
	}
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load profile", err))
		return
	}

	p, err := h.Services.Pairing.CreatePairing(ctx, u.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, p)
}

// HandleJoin claims the learner seat of the pairing named by an invite
// code. Attempts are rate limited per user and per client address.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	if h.Joins != nil {
		if allowed, reason := h.Joins.Check(r, u.ID); !allowed {
			h.Log.Warn("join attempt rate limited", zap.String("user_id", u.ID), zap.String("reason", reason))
			httpjson.Write(w, http.StatusTooManyRequests, map[string]string{"error": reason})
			return
		}
	}

	var req joinRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Check(req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Services.Pairing.JoinPairing(ctx, req.InviteCode, u.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	if h.Joins != nil {
		h.Joins.Succeeded(u.ID)
	}
	httpjson.OK(w, p)
}

// HandleRegenerateCode replaces the invite code. Leader only.
func (h *Handler) HandleRegenerateCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := pairingpolicy.ForLeader(ctx, pairingstore.New(h.DB), r, chi.URLParam(r, "pairingID"))
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	p, err = h.Services.Pairing.RegenerateInviteCode(ctx, p.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.OK(w, p)
}

// HandleSignCovenant records the caller's covenant signature for their
// side of the pairing. Signing twice is a no-op.
func (h *Handler) HandleSignCovenant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, side, err := pairingpolicy.ForParticipant(ctx, pairingstore.New(h.DB), r, chi.URLParam(r, "pairingID"))
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	p, err = h.Services.Pairing.SignCovenant(ctx, p.ID, side)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.OK(w, p)
}
