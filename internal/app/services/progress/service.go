// Package progress records assignment progress and advances a pairing
// through the curriculum.
//
// A week unlocks when the learner has completed every catalog assignment
// of the pairing's current week. The leader's rows are tracked for the
// dashboard but never gate advancement. Advancement is a conditional
// update keyed on the week being left, so it moves exactly one step no
// matter how many completions race to trigger it.
package progress

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/pathway/internal/app/services/notify"
	curriculumstore "github.com/dalemusser/pathway/internal/app/store/curriculum"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	progressstore "github.com/dalemusser/pathway/internal/app/store/progress"
	"github.com/dalemusser/pathway/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/app/system/realtime"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxNotesLength bounds the notes attached to a progress row.
const maxNotesLength = 4000

// Pairings is the pairing persistence the service needs.
type Pairings interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Pairing, error)
	AdvanceWeek(ctx context.Context, id primitive.ObjectID, fromWeek int, now time.Time) (models.Pairing, bool, error)
	MarkJourneyComplete(ctx context.Context, id primitive.ObjectID, now time.Time) (models.Pairing, bool, error)
}

// Catalog is the read-only curriculum.
type Catalog interface {
	Weeks(ctx context.Context) ([]models.Week, error)
	Week(ctx context.Context, n int) (models.Week, error)
	Assignment(ctx context.Context, id string) (models.Assignment, error)
	AssignmentsForWeek(ctx context.Context, week int) ([]models.Assignment, error)
	AllAssignments(ctx context.Context) ([]models.Assignment, error)
}

// Store persists progress rows.
type Store interface {
	Upsert(ctx context.Context, p models.AssignmentProgress) (models.AssignmentProgress, error)
	Get(ctx context.Context, pairingID primitive.ObjectID, assignmentID, userID string) (models.AssignmentProgress, error)
	ListForWeek(ctx context.Context, pairingID primitive.ObjectID, week int) ([]models.AssignmentProgress, error)
	ListForPairing(ctx context.Context, pairingID primitive.ObjectID) ([]models.AssignmentProgress, error)
}

// Profiles resolves display names for notifications.
type Profiles interface {
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

// Notifier raises notifications.
type Notifier interface {
	Emit(ctx context.Context, ev notify.Event) error
}

// Service applies progress updates and the advancement rule.
type Service struct {
	pairings Pairings
	catalog  Catalog
	store    Store
	profiles Profiles
	notifier Notifier
	rt       realtime.Publisher
	log      *zap.Logger
	now      func() time.Time
}

// New returns a Service. rt may be nil.
func New(pairings Pairings, catalog Catalog, store Store, profiles Profiles, notifier Notifier, rt realtime.Publisher, logger *zap.Logger) *Service {
	if rt == nil {
		rt = realtime.Nop{}
	}
	return &Service{
		pairings: pairings,
		catalog:  catalog,
		store:    store,
		profiles: profiles,
		notifier: notifier,
		rt:       rt,
		log:      logger,
		now:      time.Now,
	}
}

// SaveInput is a progress update from a participant.
type SaveInput struct {
	PairingID    primitive.ObjectID
	AssignmentID string
	UserID       string
	Status       models.ProgressStatus
	Notes        string
}

// Result reports what a progress update changed.
type Result struct {
	Progress models.AssignmentProgress `json:"progress"`

	// Advanced is true when this call moved the pairing to NewWeek.
	Advanced bool `json:"advanced"`
	NewWeek  int  `json:"new_week,omitempty"`

	// JourneyComplete is true once the learner has finished the final week.
	JourneyComplete bool `json:"journey_complete"`
}

// SaveProgress writes a participant's progress on an assignment.
// Completions run the advancement rule; in_progress clears completed_at.
// Assignments in weeks after the pairing's current week are locked.
func (s *Service) SaveProgress(ctx context.Context, in SaveInput) (Result, error) {
	if in.Status != models.ProgressInProgress && in.Status != models.ProgressCompleted {
		return Result{}, apperr.Validation("invalid status",
			apperr.FieldError{Field: "status", Error: "must be in_progress or completed"})
	}
	notes := htmlsanitize.PlainText(in.Notes)
	if len([]rune(notes)) > maxNotesLength {
		return Result{}, apperr.Validation("notes too long",
			apperr.FieldError{Field: "notes", Error: "must be at most 4000 characters"})
	}

	p, a, err := s.load(ctx, in.PairingID, in.AssignmentID, in.UserID)
	if err != nil {
		return Result{}, err
	}
	if a.WeekNumber > p.CurrentWeek {
		return Result{}, apperr.Forbidden("this week is still locked")
	}

	prior := models.ProgressNotStarted
	existing, err := s.store.Get(ctx, in.PairingID, in.AssignmentID, in.UserID)
	switch {
	case err == nil:
		prior = existing.Status
	case !errors.Is(err, progressstore.ErrNotFound):
		return Result{}, apperr.Persistence("could not load progress", err)
	}

	if in.Status == models.ProgressCompleted {
		return s.complete(ctx, p, a, in.UserID, prior, notes)
	}

	row, err := s.store.Upsert(ctx, models.AssignmentProgress{
		PairingID:    p.ID,
		AssignmentID: a.ID,
		UserID:       in.UserID,
		WeekNumber:   a.WeekNumber,
		Status:       models.ProgressInProgress,
		Notes:        notes,
	})
	if err != nil {
		return Result{}, apperr.Persistence("could not save progress", err)
	}
	s.publish(p, row)
	return Result{Progress: row}, nil
}

// RecordAssignmentCompletion marks the assignment completed for userID
// and applies the advancement rule. priorStatus is the row's status
// before this call; it suppresses duplicate notifications when an
// already completed assignment is completed again. Notes already saved
// on the row are kept. A completion outside the current week is stored
// but never advances.
func (s *Service) RecordAssignmentCompletion(ctx context.Context, pairingID primitive.ObjectID, assignmentID, userID string, priorStatus models.ProgressStatus) (Result, error) {
	p, a, err := s.load(ctx, pairingID, assignmentID, userID)
	if err != nil {
		return Result{}, err
	}
	var notes string
	existing, err := s.store.Get(ctx, pairingID, assignmentID, userID)
	switch {
	case err == nil:
		notes = existing.Notes
	case !errors.Is(err, progressstore.ErrNotFound):
		return Result{}, apperr.Persistence("could not load progress", err)
	}
	return s.complete(ctx, p, a, userID, priorStatus, notes)
}

func (s *Service) complete(ctx context.Context, p models.Pairing, a models.Assignment, userID string, prior models.ProgressStatus, notes string) (Result, error) {
	now := s.now().UTC()
	row, err := s.store.Upsert(ctx, models.AssignmentProgress{
		PairingID:    p.ID,
		AssignmentID: a.ID,
		UserID:       userID,
		WeekNumber:   a.WeekNumber,
		Status:       models.ProgressCompleted,
		Notes:        notes,
		CompletedAt:  &now,
	})
	if err != nil {
		return Result{}, apperr.Persistence("could not save progress", err)
	}
	s.publish(p, row)

	side, _ := p.SideOf(userID)
	firstCompletion := prior != models.ProgressCompleted
	if firstCompletion {
		metrics.AssignmentsCompleted.WithLabelValues(string(side)).Inc()
	}
	names := s.names(ctx, p.LeaderID, p.Learner())

	if side == models.SideLearner && firstCompletion {
		s.emit(ctx, notify.Event{
			Kind:            notify.AssignmentCompleted,
			PairingID:       p.ID,
			Recipients:      []string{p.LeaderID},
			ActorName:       names[userID],
			AssignmentTitle: a.Title,
			WeekNumber:      a.WeekNumber,
		})
	}

	res := Result{Progress: row}
	done, err := s.weekComplete(ctx, p, a.WeekNumber)
	if err != nil {
		// The completion is stored; a failed check is retried by the
		// next completion in the week.
		s.log.Error("week completion check failed",
			zap.String("pairing_id", p.ID.Hex()),
			zap.Int("week", a.WeekNumber),
			zap.Error(err))
		return res, nil
	}
	if !done {
		return res, nil
	}

	if a.WeekNumber >= models.FinalWeek {
		res.JourneyComplete = true
		_, marked, err := s.pairings.MarkJourneyComplete(ctx, p.ID, now)
		if err != nil {
			s.log.Error("journey completion failed",
				zap.String("pairing_id", p.ID.Hex()),
				zap.Error(err))
			return res, nil
		}
		if !marked {
			return res, nil
		}
		metrics.JourneysCompleted.Inc()
		week, _ := s.catalog.Week(ctx, a.WeekNumber)
		s.emit(ctx, notify.Event{
			Kind:       notify.WeekCompleted,
			PairingID:  p.ID,
			Recipients: []string{p.LeaderID},
			ActorName:  names[p.Learner()],
			WeekNumber: a.WeekNumber,
			WeekTitle:  week.Title,
		})
		return res, nil
	}

	// A week with no content is never unlocked.
	next, err := s.catalog.Week(ctx, a.WeekNumber+1)
	if err != nil {
		s.log.Warn("next week missing from catalog; not advancing",
			zap.String("pairing_id", p.ID.Hex()),
			zap.Int("week", a.WeekNumber+1),
			zap.Error(err))
		return res, nil
	}

	advanced, ok, err := s.pairings.AdvanceWeek(ctx, p.ID, a.WeekNumber, now)
	if err != nil {
		s.log.Error("week advancement failed",
			zap.String("pairing_id", p.ID.Hex()),
			zap.Int("week", a.WeekNumber),
			zap.Error(err))
		return res, nil
	}
	if !ok {
		return res, nil
	}
	res.Advanced = true
	res.NewWeek = advanced.CurrentWeek
	metrics.WeeksUnlocked.WithLabelValues(strconv.Itoa(advanced.CurrentWeek)).Inc()
	s.rt.PairingChanged(p.ID.Hex(), realtime.Change{
		Table:  "pairings",
		Op:     "update",
		ID:     p.ID.Hex(),
		At:     now,
		Fields: map[string]int{"current_week": advanced.CurrentWeek},
	})

	s.emit(ctx, notify.Event{
		Kind:       notify.WeekUnlocked,
		PairingID:  p.ID,
		Recipients: []string{p.LeaderID, p.Learner()},
		WeekNumber: advanced.CurrentWeek,
		WeekTitle:  next.Title,
	})
	return res, nil
}

// weekComplete reports whether week is the pairing's current week and the
// learner has completed every catalog assignment in it.
func (s *Service) weekComplete(ctx context.Context, p models.Pairing, week int) (bool, error) {
	if week != p.CurrentWeek || p.Learner() == "" {
		return false, nil
	}
	assignments, err := s.catalog.AssignmentsForWeek(ctx, week)
	if err != nil {
		return false, err
	}
	if len(assignments) == 0 {
		return false, nil
	}
	rows, err := s.store.ListForWeek(ctx, p.ID, week)
	if err != nil {
		return false, err
	}
	return countCompleted(rows, p.Learner(), assignments) >= len(assignments), nil
}

// countCompleted counts distinct catalog assignments userID has completed.
func countCompleted(rows []models.AssignmentProgress, userID string, assignments []models.Assignment) int {
	inWeek := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		inWeek[a.ID] = true
	}
	done := map[string]bool{}
	for _, r := range rows {
		if r.UserID == userID && r.Status == models.ProgressCompleted && inWeek[r.AssignmentID] {
			done[r.AssignmentID] = true
		}
	}
	return len(done)
}

// WeekSummaries returns the dashboard view of every curriculum week for
// p, counting the viewer's own completions.
func (s *Service) WeekSummaries(ctx context.Context, p models.Pairing, viewerID string) ([]models.WeekSummary, error) {
	weeks, err := s.catalog.Weeks(ctx)
	if err != nil {
		return nil, apperr.Persistence("could not load curriculum", err)
	}
	assignments, err := s.catalog.AllAssignments(ctx)
	if err != nil {
		return nil, apperr.Persistence("could not load curriculum", err)
	}
	rows, err := s.store.ListForPairing(ctx, p.ID)
	if err != nil {
		return nil, apperr.Persistence("could not load progress", err)
	}

	byWeek := map[int][]models.Assignment{}
	for _, a := range assignments {
		byWeek[a.WeekNumber] = append(byWeek[a.WeekNumber], a)
	}

	out := make([]models.WeekSummary, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, models.WeekSummary{
			WeekNumber: w.WeekNumber,
			Title:      w.Title,
			Total:      len(byWeek[w.WeekNumber]),
			Completed:  countCompleted(rows, viewerID, byWeek[w.WeekNumber]),
			IsCurrent:  w.WeekNumber == p.CurrentWeek,
			IsUnlocked: w.WeekNumber <= p.CurrentWeek,
		})
	}
	return out, nil
}

// ProgressForWeek returns the viewer's rows for one week keyed by
// assignment ID.
func (s *Service) ProgressForWeek(ctx context.Context, pairingID primitive.ObjectID, week int, viewerID string) (map[string]models.AssignmentProgress, error) {
	rows, err := s.store.ListForWeek(ctx, pairingID, week)
	if err != nil {
		return nil, apperr.Persistence("could not load progress", err)
	}
	out := map[string]models.AssignmentProgress{}
	for _, r := range rows {
		if r.UserID == viewerID {
			out[r.AssignmentID] = r
		}
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, pairingID primitive.ObjectID, assignmentID, userID string) (models.Pairing, models.Assignment, error) {
	p, err := s.pairings.GetByID(ctx, pairingID)
	if errors.Is(err, pairingstore.ErrNotFound) {
		return models.Pairing{}, models.Assignment{}, apperr.NotFound("pairing not found")
	}
	if err != nil {
		return models.Pairing{}, models.Assignment{}, apperr.Persistence("could not load pairing", err)
	}
	if !p.IsParticipant(userID) {
		return models.Pairing{}, models.Assignment{}, apperr.Forbidden("you are not part of this pairing")
	}
	a, err := s.catalog.Assignment(ctx, assignmentID)
	if errors.Is(err, curriculumstore.ErrAssignmentNotFound) {
		return models.Pairing{}, models.Assignment{}, apperr.NotFound("assignment not found")
	}
	if err != nil {
		return models.Pairing{}, models.Assignment{}, apperr.Persistence("could not load assignment", err)
	}
	return p, a, nil
}

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

func (s *Service) publish(p models.Pairing, row models.AssignmentProgress) {
	s.rt.PairingChanged(p.ID.Hex(), realtime.Change{
		Table: "assignment_progress",
		Op:    "update",
		ID:    row.ID.Hex(),
		At:    row.UpdatedAt,
	})
}
