// internal/app/features/pairings/progress.go
package pairings

import (
	"context"
	"net/http"

	"github.com/dalemusser/pathway/internal/app/policy/pairingpolicy"
	"github.com/dalemusser/pathway/internal/app/services/progress"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/httpjson"
	"github.com/dalemusser/pathway/internal/app/system/inputval"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type progressResponse struct {
	CurrentWeek int                  `json:"current_week"`
	Status      models.PairingStatus `json:"status"`
	Weeks       []models.WeekSummary `json:"weeks"`
}

type saveProgressRequest struct {
	Status string `json:"status" validate:"required,oneof=in_progress completed"`
	Notes  string `json:"notes" validate:"max=4000"`
}

type encourageRequest struct {
	Message string `json:"message" validate:"notblank,max=500"`
}

// ServeProgress returns the week-by-week dashboard for the caller.
func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, _, err := pairingpolicy.ForParticipant(ctx, pairingstore.New(h.DB), r, chi.URLParam(r, "pairingID"))
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	u, _ := auth.CurrentUser(r)

	weeks, err := h.Services.Progress.WeekSummaries(ctx, p, u.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.OK(w, progressResponse{CurrentWeek: p.CurrentWeek, Status: p.Status, Weeks: weeks})
}

// HandleSaveProgress writes the caller's progress on one assignment. A
// completion may advance the pairing to the next week.
func (h *Handler) HandleSaveProgress(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}

	var req saveProgressRequest
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

	p, _, err := pairingpolicy.ForParticipant(ctx, pairingstore.New(h.DB), r, chi.URLParam(r, "pairingID"))
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	res, err := h.Services.Progress.SaveProgress(ctx, progress.SaveInput{
		PairingID:    p.ID,
		AssignmentID: chi.URLParam(r, "assignmentID"),
		UserID:       u.ID,
		Status:       models.ProgressStatus(req.Status),
		Notes:        req.Notes,
	})
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.OK(w, res)
}

// HandleEncourage sends the learner a notification-only note from the
// leader.
func (h *Handler) HandleEncourage(w http.ResponseWriter, r *http.Request) {
	var req encourageRequest
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

	p, err := pairingpolicy.ForLeader(ctx, pairingstore.New(h.DB), r, chi.URLParam(r, "pairingID"))
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	if err := h.Services.Messaging.Encourage(ctx, p.ID, p.LeaderID, req.Message); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
