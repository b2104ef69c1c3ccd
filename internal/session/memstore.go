package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/optionchainsim/service/internal/apperr"
)

// MemStore is the in-process session store backend: a map guarded by a
// single mutex, with a fixed idle-eviction horizon for Cleanup.
type MemStore struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]Session
	idleHorizon time.Duration
	now         func() time.Time
}

// NewMemStore creates an empty in-process store. idleHorizon is the
// age past which Cleanup removes a session (default 30 minutes if zero).
func NewMemStore(idleHorizon time.Duration) *MemStore {
	if idleHorizon <= 0 {
		idleHorizon = 30 * time.Minute
	}
	return &MemStore{
		sessions:    make(map[uuid.UUID]Session),
		idleHorizon: idleHorizon,
		now:         time.Now,
	}
}

func (m *MemStore) Get(_ context.Context, id uuid.UUID) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, apperr.NotFound("session %s not found", id)
	}
	return s, nil
}

func (m *MemStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s
	return nil
}

func (m *MemStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

// Cleanup removes every session whose UpdatedAt is older than the idle
// horizon. O(n) over the current map size.
func (m *MemStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleHorizon)
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// ActiveIDs implements Lister.
func (m *MemStore) ActiveIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}
