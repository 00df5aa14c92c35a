package pairing

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/pathway/internal/app/services/notify"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore mirrors the conditional-write semantics of the Mongo store.
type memStore struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]models.Pairing
}

func newMemStore() *memStore {
	return &memStore{rows: map[primitive.ObjectID]models.Pairing{}}
}

func (m *memStore) codeInUse(code string, except primitive.ObjectID) bool {
	for id, p := range m.rows {
		if id != except && p.InviteCode == code {
			return true
		}
	}
	return false
}

func (m *memStore) Create(_ context.Context, p models.Pairing) (models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codeInUse(p.InviteCode, primitive.NilObjectID) {
		return models.Pairing{}, pairingstore.ErrDuplicateInviteCode
	}
	m.rows[p.ID] = p
	return p, nil
}

func (m *memStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.Pairing{}, pairingstore.ErrNotFound
	}
	return p, nil
}

func (m *memStore) GetJoinable(_ context.Context, code string) (models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.InviteCode == code && p.Status == models.PairingPending && p.LearnerID == nil {
			return p, nil
		}
	}
	return models.Pairing{}, pairingstore.ErrNotFound
}

func (m *memStore) ClaimLearnerSeat(_ context.Context, id primitive.ObjectID, code, learnerID string, now time.Time) (models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.InviteCode != code || p.Status != models.PairingPending || p.LearnerID != nil {
		return models.Pairing{}, pairingstore.ErrStateChanged
	}
	l := learnerID
	p.LearnerID = &l
	p.Status = models.PairingActive
	p.StartedAt = &now
	p.UpdatedAt = now
	m.rows[id] = p
	return p, nil
}

func (m *memStore) SetInviteCode(_ context.Context, id primitive.ObjectID, code string, now time.Time) (models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || (p.Status != models.PairingPending && p.Status != models.PairingActive) {
		return models.Pairing{}, pairingstore.ErrStateChanged
	}
	if m.codeInUse(code, id) {
		return models.Pairing{}, pairingstore.ErrDuplicateInviteCode
	}
	p.InviteCode = code
	p.UpdatedAt = now
	m.rows[id] = p
	return p, nil
}

func (m *memStore) SignCovenant(_ context.Context, id primitive.ObjectID, side models.Side, now time.Time) (models.Pairing, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.Pairing{}, false, pairingstore.ErrNotFound
	}
	if p.Signed(side) {
		return p, false, nil
	}
	if side == models.SideLeader {
		p.CovenantAcceptedLeader = true
	} else {
		p.CovenantAcceptedLearner = true
	}
	p.UpdatedAt = now
	m.rows[id] = p
	return p, true, nil
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

// recorder captures emitted events in order.
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

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Kind
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

// sequence returns a code generator that yields codes in order and then
// repeats the last one.
func sequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}
