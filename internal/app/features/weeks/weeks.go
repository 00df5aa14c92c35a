// internal/app/features/weeks/weeks.go
package weeks

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/pathway/internal/app/policy/pairingpolicy"
	curriculumstore "github.com/dalemusser/pathway/internal/app/store/curriculum"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	reflectionstore "github.com/dalemusser/pathway/internal/app/store/reflections"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pathway/internal/app/system/httpjson"
	"github.com/dalemusser/pathway/internal/app/system/inputval"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type assignmentView struct {
	models.Assignment
	Progress *models.AssignmentProgress `json:"progress"`
}

type weekResponse struct {
	Week        models.Week      `json:"week"`
	IsCurrent   bool             `json:"is_current"`
	Assignments []assignmentView `json:"assignments"`
}

type reflectionRequest struct {
	ReflectionText string `json:"reflection_text" validate:"notblank,max=10000"`
	IsShared       bool   `json:"is_shared"`
}

// openWeek resolves the pairing and week from the URL and checks the
// caller may see that week.
func (h *Handler) openWeek(ctx context.Context, r *http.Request) (models.Pairing, int, error) {
	p, _, err := pairingpolicy.ForParticipant(ctx, pairingstore.New(h.DB), r, chi.URLParam(r, "pairingID"))
	if err != nil {
		return models.Pairing{}, 0, err
	}
	n, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		return models.Pairing{}, 0, apperr.NotFound("week not found")
	}
	if err := pairingpolicy.CanViewWeek(p, n); err != nil {
		return models.Pairing{}, 0, err
	}
	return p, n, nil
}

// ServeWeek returns the week's content with the caller's progress on each
// assignment.
func (h *Handler) ServeWeek(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, n, err := h.openWeek(ctx, r)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	u, _ := auth.CurrentUser(r)

	cat := curriculumstore.New(h.DB)
	week, err := cat.Week(ctx, n)
	if errors.Is(err, curriculumstore.ErrWeekNotFound) {
		httpjson.Error(w, r, h.Log, apperr.NotFound("week not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load week", err))
		return
	}
	assignments, err := cat.AssignmentsForWeek(ctx, n)
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load assignments", err))
		return
	}
	mine, err := h.Progress.ProgressForWeek(ctx, p.ID, n, u.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	out := weekResponse{Week: week, IsCurrent: n == p.CurrentWeek, Assignments: make([]assignmentView, 0, len(assignments))}
	for _, a := range assignments {
		v := assignmentView{Assignment: a}
		if row, ok := mine[a.ID]; ok {
			v.Progress = &row
		}
		out.Assignments = append(out.Assignments, v)
	}
	httpjson.OK(w, out)
}

// ServeReflections lists the caller's reflections for the week plus those
// the partner shared.
func (h *Handler) ServeReflections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, n, err := h.openWeek(ctx, r)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	u, _ := auth.CurrentUser(r)

	list, err := reflectionstore.New(h.DB).ListVisible(ctx, p.ID, n, u.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load reflections", err))
		return
	}
	if list == nil {
		list = []models.Reflection{}
	}
	httpjson.OK(w, list)
}

// HandleCreateReflection saves a journal entry for the week.
func (h *Handler) HandleCreateReflection(w http.ResponseWriter, r *http.Request) {
	var req reflectionRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	req.ReflectionText = htmlsanitize.PlainText(req.ReflectionText)
	if err := inputval.Check(req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, n, err := h.openWeek(ctx, r)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	u, _ := auth.CurrentUser(r)

	ref, err := reflectionstore.New(h.DB).Create(ctx, models.Reflection{
		PairingID:      p.ID,
		UserID:         u.ID,
		WeekNumber:     n,
		ReflectionText: req.ReflectionText,
		IsShared:       req.IsShared,
	})
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not save reflection", err))
		return
	}
	httpjson.Write(w, http.StatusCreated, ref)
}
