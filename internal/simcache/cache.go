package simcache

import (
	"sync"

	"github.com/google/uuid"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/observability"
	"github.com/optionchainsim/service/internal/pricing"
	"github.com/optionchainsim/service/internal/session"
)

// Cache holds one prebuilt Walk per active session. The walk is built
// outside any lock (it can be expensive for large chain sizes) and
// installed under lock, so concurrent requests for different sessions
// never block on each other's build work.
type Cache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Walk
	builder *Builder
	metrics *observability.Registry
}

// New creates an empty cache backed by builder.
func New(builder *Builder) *Cache {
	return &Cache{
		entries: make(map[uuid.UUID]Walk),
		builder: builder,
	}
}

// SetMetrics wires a metrics registry into the cache so walk rebuilds
// are counted. Optional: a cache with no registry just skips counting.
func (c *Cache) SetMetrics(m *observability.Registry) {
	c.metrics = m
}

// ChainAt returns the option chain for s's current step, rebuilding
// the session's walk first if necessary. Rebuild triggers: no cached
// walk yet, the session is at step 0, or the session was just
// reinitialized.
func (c *Cache) ChainAt(s session.Session) (pricing.OptionChain, error) {
	walk, ok := c.get(s.ID)
	needsRebuild := !ok || s.CurrentStep == 0 || s.State == session.StateReinitialized

	if needsRebuild {
		built, err := c.builder.Build(s)
		if err != nil {
			return pricing.OptionChain{}, err
		}
		c.put(s.ID, built)
		walk = built
		if c.metrics != nil {
			c.metrics.WalkRebuilds.Inc()
		}
	}

	if s.CurrentStep < 0 || s.CurrentStep >= len(walk.Steps) {
		return pricing.OptionChain{}, apperr.SimulatorError(
			"step %d out of range for walk of length %d", s.CurrentStep, len(walk.Steps))
	}
	return walk.Steps[s.CurrentStep].Chain, nil
}

func (c *Cache) get(id uuid.UUID) (Walk, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.entries[id]
	return w, ok
}

func (c *Cache) put(id uuid.UUID, w Walk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = w
}

// Delete drops a single session's cached walk, e.g. on session deletion.
func (c *Cache) Delete(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Evict drops every cached walk whose session id is not in active.
// Intended to run alongside a store's idle sweep so the cache never
// outlives the sessions it backs.
func (c *Cache) Evict(active []uuid.UUID) int {
	keep := make(map[uuid.UUID]struct{}, len(active))
	for _, id := range active {
		keep[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id := range c.entries {
		if _, ok := keep[id]; !ok {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached walks, for observability.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// compile-time check that Cache satisfies session.ChainProvider.
var _ session.ChainProvider = (*Cache)(nil)
