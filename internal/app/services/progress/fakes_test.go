package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/pathway/internal/app/services/notify"
	curriculumstore "github.com/dalemusser/pathway/internal/app/store/curriculum"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	progressstore "github.com/dalemusser/pathway/internal/app/store/progress"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memPairings struct {
	mu       sync.Mutex
	rows     map[primitive.ObjectID]models.Pairing
	advances int
}

func (m *memPairings) GetByID(_ context.Context, id primitive.ObjectID) (models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.Pairing{}, pairingstore.ErrNotFound
	}
	return p, nil
}

func (m *memPairings) AdvanceWeek(_ context.Context, id primitive.ObjectID, fromWeek int, now time.Time) (models.Pairing, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || fromWeek >= models.FinalWeek || p.CurrentWeek != fromWeek {
		return p, false, nil
	}
	p.CurrentWeek = fromWeek + 1
	p.UpdatedAt = now
	m.rows[id] = p
	m.advances++
	return p, true, nil
}

func (m *memPairings) MarkJourneyComplete(_ context.Context, id primitive.ObjectID, now time.Time) (models.Pairing, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.CurrentWeek != models.FinalWeek || p.CompletedAt != nil {
		return p, false, nil
	}
	p.CompletedAt = &now
	p.UpdatedAt = now
	m.rows[id] = p
	return p, true, nil
}

func (m *memPairings) current(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].CurrentWeek
}

type memCatalog struct {
	weeks       []models.Week
	assignments []models.Assignment
}

func (c *memCatalog) Weeks(context.Context) ([]models.Week, error) { return c.weeks, nil }

func (c *memCatalog) Week(_ context.Context, n int) (models.Week, error) {
	for _, w := range c.weeks {
		if w.WeekNumber == n {
			return w, nil
		}
	}
	return models.Week{}, curriculumstore.ErrWeekNotFound
}

func (c *memCatalog) Assignment(_ context.Context, id string) (models.Assignment, error) {
	for _, a := range c.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Assignment{}, curriculumstore.ErrAssignmentNotFound
}

func (c *memCatalog) AssignmentsForWeek(_ context.Context, week int) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range c.assignments {
		if a.WeekNumber == week {
			out = append(out, a)
		}
	}
	return out, nil
}

func (c *memCatalog) AllAssignments(context.Context) ([]models.Assignment, error) {
	return c.assignments, nil
}

type progressKey struct {
	pairing    primitive.ObjectID
	assignment string
	user       string
}

type memProgress struct {
	mu   sync.Mutex
	rows map[progressKey]models.AssignmentProgress
}

func newMemProgress() *memProgress {
	return &memProgress{rows: map[progressKey]models.AssignmentProgress{}}
}

func (m *memProgress) Upsert(_ context.Context, p models.AssignmentProgress) (models.AssignmentProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := progressKey{p.PairingID, p.AssignmentID, p.UserID}
	if old, ok := m.rows[k]; ok {
		p.ID = old.ID
	} else {
		p.ID = primitive.NewObjectID()
	}
	if p.Status != models.ProgressCompleted {
		p.CompletedAt = nil
	}
	m.rows[k] = p
	return p, nil
}

func (m *memProgress) Get(_ context.Context, pairingID primitive.ObjectID, assignmentID, userID string) (models.AssignmentProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[progressKey{pairingID, assignmentID, userID}]
	if !ok {
		return models.AssignmentProgress{}, progressstore.ErrNotFound
	}
	return p, nil
}

func (m *memProgress) ListForWeek(_ context.Context, pairingID primitive.ObjectID, week int) ([]models.AssignmentProgress, error) {
	return m.list(func(p models.AssignmentProgress) bool { return p.PairingID == pairingID && p.WeekNumber == week }), nil
}

func (m *memProgress) ListForPairing(_ context.Context, pairingID primitive.ObjectID) ([]models.AssignmentProgress, error) {
	return m.list(func(p models.AssignmentProgress) bool { return p.PairingID == pairingID }), nil
}

func (m *memProgress) list(keep func(models.AssignmentProgress) bool) []models.AssignmentProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssignmentProgress
	for _, p := range m.rows {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignmentID < out[j].AssignmentID })
	return out
}

type memProfiles map[string]string

func (m memProfiles) Names(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if n, ok := m[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Emit(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) count(k notify.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}
