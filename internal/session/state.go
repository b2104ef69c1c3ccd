package session

import (
	"time"

	"github.com/optionchainsim/service/internal/apperr"
)

// Progression applies the legal state transitions on advance. It holds
// no state of its own; it exists so the transition table lives in one
// deterministic place rather than scattered across the manager.
type Progression struct{}

func NewProgression() Progression {
	return Progression{}
}

// Advance applies the session's state transition table for the
// "advance" operation, mutating it in place.
func (Progression) Advance(s *Session, now time.Time) error {
	switch s.State {
	case StateInitialized, StateModified, StateReinitialized, StateInProgress:
		if s.CurrentStep >= s.TotalSteps {
			return apperr.InvalidState("session has already reached its final step")
		}
		s.CurrentStep++
		s.UpdatedAt = now
		if s.CurrentStep == s.TotalSteps {
			s.State = StateCompleted
		} else {
			s.State = StateInProgress
		}
		return nil
	case StateCompleted:
		return apperr.InvalidState("session has completed all steps")
	case StateError:
		return apperr.InvalidState("session is in error state")
	default:
		return apperr.InvalidState("unrecognized session state %q", s.State)
	}
}
