package scheduler

import (
	"context"

	"github.com/rs/zerolog"
)

// SessionCleaner is the narrow surface the cleanup job needs from the
// session manager.
type SessionCleaner interface {
	CleanupSessions(ctx context.Context) (int, error)
}

// CleanupJob periodically sweeps idle sessions from the store (and
// their orphaned cache entries where the store can enumerate).
type CleanupJob struct {
	manager SessionCleaner
	log     zerolog.Logger
}

// NewCleanupJob builds the periodic idle-session sweep.
func NewCleanupJob(manager SessionCleaner, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{manager: manager, log: log.With().Str("job", "cleanup_sessions").Logger()}
}

func (j *CleanupJob) Name() string { return "cleanup_sessions" }

func (j *CleanupJob) Run() error {
	removed, err := j.manager.CleanupSessions(context.Background())
	if err != nil {
		return err
	}
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("swept idle sessions")
	}
	return nil
}
