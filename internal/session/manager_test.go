package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/archive"
	"github.com/optionchainsim/service/internal/observability"
	"github.com/optionchainsim/service/internal/pricing"
)

// fakeArchiver is an Archiver double that records every call it gets,
// so tests can assert the manager actually invokes it.
type fakeArchiver struct {
	steps  []archive.StepRecord
	events []archive.EventRecord
}

func (f *fakeArchiver) RecordStep(rec archive.StepRecord) error {
	f.steps = append(f.steps, rec)
	return nil
}

func (f *fakeArchiver) RecordEvent(rec archive.EventRecord) error {
	f.events = append(f.events, rec)
	return nil
}

// fakeChains is a minimal ChainProvider double: it never rebuilds, it
// just returns a fixed chain and counts evictions/deletes so tests can
// assert the manager wires the cache correctly.
type fakeChains struct {
	calls     int
	deleted   []uuid.UUID
	evictions [][]uuid.UUID
}

func (f *fakeChains) ChainAt(s Session) (pricing.OptionChain, error) {
	f.calls++
	return pricing.OptionChain{Underlying: s.Parameters.Symbol}, nil
}

func (f *fakeChains) Delete(id uuid.UUID) {
	f.deleted = append(f.deleted, id)
}

func (f *fakeChains) Evict(active []uuid.UUID) int {
	f.evictions = append(f.evictions, active)
	return 0
}

func TestManagerCreateSessionValidatesParams(t *testing.T) {
	m := NewManager(NewMemStore(time.Hour), &fakeChains{}, nil, nil, nil)
	_, err := m.CreateSession(context.Background(), SimulationParameters{})
	require.Error(t, err)
}

func TestManagerGetNextStepAdvancesAndPersists(t *testing.T) {
	store := NewMemStore(time.Hour)
	chains := &fakeChains{}
	m := NewManager(store, chains, nil, nil, nil)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, validParams())
	require.NoError(t, err)

	advanced, chain, err := m.GetNextStep(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, advanced.CurrentStep)
	assert.Equal(t, "AAPL", chain.Underlying)
	assert.Equal(t, 1, chains.calls)

	persisted, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, persisted.CurrentStep)
}

func TestManagerGetNextStepNotFound(t *testing.T) {
	m := NewManager(NewMemStore(time.Hour), &fakeChains{}, nil, nil, nil)
	_, _, err := m.GetNextStep(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestManagerUpdateSessionDoesNotRebuildCache(t *testing.T) {
	store := NewMemStore(time.Hour)
	chains := &fakeChains{}
	m := NewManager(store, chains, nil, nil, nil)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, validParams())
	require.NoError(t, err)

	updated, err := m.UpdateSession(ctx, s.ID, validParams())
	require.NoError(t, err)
	assert.Equal(t, StateModified, updated.State)
	assert.Equal(t, 0, chains.calls, "modify must not touch the cache")
}

func TestManagerUpdateSessionFailsFromErrorState(t *testing.T) {
	store := NewMemStore(time.Hour)
	m := NewManager(store, &fakeChains{}, nil, nil, nil)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, validParams())
	require.NoError(t, err)

	s.State = StateError
	require.NoError(t, store.Save(ctx, s))

	_, err = m.UpdateSession(ctx, s.ID, validParams())
	require.Error(t, err)
}

func TestManagerReplaceSessionResetsProgress(t *testing.T) {
	store := NewMemStore(time.Hour)
	m := NewManager(store, &fakeChains{}, nil, nil, nil)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, validParams())
	require.NoError(t, err)
	_, _, err = m.GetNextStep(ctx, s.ID)
	require.NoError(t, err)

	replaced, err := m.ReplaceSession(ctx, s.ID, validParams())
	require.NoError(t, err)
	assert.Equal(t, StateReinitialized, replaced.State)
	assert.Equal(t, 0, replaced.CurrentStep)
}

func TestManagerDeleteSessionEvictsCache(t *testing.T) {
	store := NewMemStore(time.Hour)
	chains := &fakeChains{}
	m := NewManager(store, chains, nil, nil, nil)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, validParams())
	require.NoError(t, err)

	ok, err := m.DeleteSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, chains.deleted, s.ID)

	_, _, err = m.GetNextStep(ctx, s.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestManagerCleanupSessionsEvictsCacheWhenStoreCanList(t *testing.T) {
	store := NewMemStore(10 * time.Minute)
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return frozen }
	chains := &fakeChains{}
	m := NewManager(store, chains, nil, nil, nil)

	stale := New(validParams(), frozen.Add(-time.Hour))
	require.NoError(t, store.Save(context.Background(), stale))

	removed, err := m.CleanupSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, chains.evictions, 1)
}

func TestManagerRecordsArchiveEventsAndSteps(t *testing.T) {
	store := NewMemStore(time.Hour)
	arch := &fakeArchiver{}
	m := NewManager(store, &fakeChains{}, arch, nil, nil)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, validParams())
	require.NoError(t, err)
	require.Len(t, arch.events, 1)
	assert.Equal(t, "create", arch.events[0].Event)

	_, _, err = m.GetNextStep(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, arch.steps, 1)
	assert.Equal(t, 1, arch.steps[0].Step)

	_, err = m.UpdateSession(ctx, s.ID, validParams())
	require.NoError(t, err)
	assert.Equal(t, "modify", arch.events[len(arch.events)-1].Event)

	_, err = m.ReplaceSession(ctx, s.ID, validParams())
	require.NoError(t, err)
	assert.Equal(t, "reinitialize", arch.events[len(arch.events)-1].Event)

	ok, err := m.DeleteSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "delete", arch.events[len(arch.events)-1].Event)
}

func TestManagerIncrementsMetricsOnSuccessAndFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewRegistry(reg, func() float64 { return 0 })
	store := NewMemStore(time.Hour)
	m := NewManager(store, &fakeChains{}, nil, metrics, nil)
	ctx := context.Background()

	s, err := m.CreateSession(ctx, validParams())
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionsCreated))

	_, _, err = m.GetNextStep(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StepsAdvanced))

	_, _, err = m.GetNextStep(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionErrors.WithLabelValues(string(apperr.KindNotFound))))
}
