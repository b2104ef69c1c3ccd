package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/archive"
	"github.com/optionchainsim/service/internal/observability"
	"github.com/optionchainsim/service/internal/pricing"
)

// ChainProvider resolves the option chain for a session's current
// step. Implemented by *simcache.Cache; declared here (rather than in
// simcache) so session stays the package that defines the manager's
// dependency shape.
type ChainProvider interface {
	ChainAt(s Session) (pricing.OptionChain, error)
	Delete(id uuid.UUID)
	Evict(active []uuid.UUID) int
}

// Archiver optionally records step/event history for offline analysis.
// Implemented by *archive.Archive, whose nil receiver already makes
// every method a no-op, so a deployment with no Mongo configured can
// still wire one in unconditionally.
type Archiver interface {
	RecordStep(rec archive.StepRecord) error
	RecordEvent(rec archive.EventRecord) error
}

// Clock lets tests control time without a real sleep.
type Clock func() time.Time

// Manager is the façade the HTTP transport talks to: it orchestrates
// the store and the chain cache behind the session lifecycle rules.
type Manager struct {
	store       Store
	chains      ChainProvider
	archiver    Archiver
	metrics     *observability.Registry
	progression Progression
	now         Clock
}

// NewManager wires a store, chain provider, optional archiver, and
// optional metrics registry into a Manager. now defaults to time.Now;
// archiver and metrics may both be nil.
func NewManager(store Store, chains ChainProvider, archiver Archiver, metrics *observability.Registry, now Clock) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:       store,
		chains:      chains,
		archiver:    archiver,
		metrics:     metrics,
		progression: NewProgression(),
		now:         now,
	}
}

// observeStore records how long a store operation took, if metrics are wired.
func (m *Manager) observeStore(op string, start time.Time) {
	if m.metrics == nil {
		return
	}
	m.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// countError bumps the session-errors counter for err's kind, if err is
// non-nil and metrics are wired.
func (m *Manager) countError(err error) {
	if err == nil || m.metrics == nil {
		return
	}
	m.metrics.SessionErrors.WithLabelValues(string(apperr.KindOf(err))).Inc()
}

func (m *Manager) recordEvent(id uuid.UUID, event, state string) {
	if m.archiver == nil {
		return
	}
	_ = m.archiver.RecordEvent(archive.EventRecord{
		SessionID:  id,
		Event:      event,
		State:      state,
		RecordedAt: m.now(),
	})
}

// CreateSession validates params, constructs a fresh session, and
// persists it.
func (m *Manager) CreateSession(ctx context.Context, params SimulationParameters) (Session, error) {
	if err := params.Validate(); err != nil {
		m.countError(err)
		return Session{}, err
	}
	s := New(params, m.now())
	start := m.now()
	if err := m.store.Save(ctx, s); err != nil {
		m.observeStore("save", start)
		m.countError(err)
		return Session{}, err
	}
	m.observeStore("save", start)
	m.recordEvent(s.ID, "create", string(s.State))
	if m.metrics != nil {
		m.metrics.SessionsCreated.Inc()
	}
	return s, nil
}

// GetSession fetches a session without advancing it.
func (m *Manager) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	return m.store.Get(ctx, id)
}

// GetNextStep advances the session one step and returns the resulting
// session state along with the option chain at that step.
func (m *Manager) GetNextStep(ctx context.Context, id uuid.UUID) (Session, pricing.OptionChain, error) {
	start := m.now()
	s, err := m.store.Get(ctx, id)
	m.observeStore("get", start)
	if err != nil {
		m.countError(err)
		return Session{}, pricing.OptionChain{}, err
	}
	if err := m.progression.Advance(&s, m.now()); err != nil {
		m.countError(err)
		return Session{}, pricing.OptionChain{}, err
	}

	chain, err := m.chains.ChainAt(s)
	if err != nil {
		m.countError(err)
		return Session{}, pricing.OptionChain{}, err
	}

	start = m.now()
	if err := m.store.Save(ctx, s); err != nil {
		m.observeStore("save", start)
		m.countError(err)
		return Session{}, pricing.OptionChain{}, err
	}
	m.observeStore("save", start)
	if m.archiver != nil {
		_ = m.archiver.RecordStep(archive.StepRecord{
			SessionID:       s.ID,
			Step:            s.CurrentStep,
			UnderlyingPrice: chain.UnderlyingPrice,
			RecordedAt:      m.now(),
		})
	}
	if m.metrics != nil {
		m.metrics.StepsAdvanced.Inc()
	}
	return s, chain, nil
}

// UpdateSession applies ModifyParameters. The cached walk is left
// untouched: the asymmetry relative to ReplaceSession is intentional,
// since modify is meant for cosmetic adjustments an in-flight walk
// shouldn't have to pay to rebuild for.
func (m *Manager) UpdateSession(ctx context.Context, id uuid.UUID, params SimulationParameters) (Session, error) {
	if err := params.Validate(); err != nil {
		m.countError(err)
		return Session{}, err
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		m.countError(err)
		return Session{}, err
	}
	if err := s.ModifyParameters(params, m.now()); err != nil {
		m.countError(err)
		return Session{}, err
	}
	if err := m.store.Save(ctx, s); err != nil {
		m.countError(err)
		return Session{}, err
	}
	m.recordEvent(s.ID, "modify", string(s.State))
	return s, nil
}

// ReplaceSession applies Reinitialize, resetting progression and
// forcing the next GetNextStep call to rebuild the session's walk.
func (m *Manager) ReplaceSession(ctx context.Context, id uuid.UUID, params SimulationParameters) (Session, error) {
	if err := params.Validate(); err != nil {
		m.countError(err)
		return Session{}, err
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		m.countError(err)
		return Session{}, err
	}
	if err := s.Reinitialize(params, params.Steps, m.now()); err != nil {
		m.countError(err)
		return Session{}, err
	}
	if err := m.store.Save(ctx, s); err != nil {
		m.countError(err)
		return Session{}, err
	}
	if m.chains != nil {
		m.chains.Delete(id)
	}
	m.recordEvent(s.ID, "reinitialize", string(s.State))
	return s, nil
}

// DeleteSession removes the session from the store and drops its
// cached walk.
func (m *Manager) DeleteSession(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := m.store.Delete(ctx, id)
	if err != nil {
		m.countError(err)
		return false, err
	}
	if m.chains != nil {
		m.chains.Delete(id)
	}
	if ok {
		m.recordEvent(id, "delete", "Deleted")
	}
	return ok, nil
}

// CleanupSessions sweeps idle sessions out of the store and, when the
// store can enumerate its survivors, evicts orphaned cache entries to
// match. Stores that can't list (e.g. Redis, which relies on TTL
// expiry) leave the cache side as a no-op.
func (m *Manager) CleanupSessions(ctx context.Context) (int, error) {
	removed, err := m.store.Cleanup(ctx)
	if err != nil {
		return 0, err
	}

	if lister, ok := m.store.(Lister); ok {
		active, err := lister.ActiveIDs(ctx)
		if err == nil {
			m.chains.Evict(active)
		}
	}
	return removed, nil
}
