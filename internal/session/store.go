package session

import (
	"context"

	"github.com/google/uuid"
)

// Store is the session persistence contract. Implementations must be
// linearizable per id and must not perform partial merges on Save.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Cleanup(ctx context.Context) (int, error)
}

// Lister is an optional capability: stores that can enumerate their
// live ids let the manager drive cache eviction after cleanup.
type Lister interface {
	ActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}
