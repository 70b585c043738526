package routines

import (
	"context"
	"fmt"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
)

// Outcome describes what MoveToAdjacent did.
type Outcome string

const (
	// OutcomeMoved means the pointer now references another routine.
	OutcomeMoved Outcome = "moved"
	// OutcomeStayed means nothing changed.
	OutcomeStayed Outcome = "stayed"
	// OutcomeNoMoreRoutines means no incomplete routine lies ahead; the
	// caller should offer to create one.
	OutcomeNoMoreRoutines Outcome = "no_more_routines"
)

type Navigation struct {
	Outcome  Outcome
	Active   *models.Routine
	Routines []models.Routine
}

// MoveToAdjacent scans from the current routine in direction for the
// nearest incomplete routine and makes it active. The current routine is
// the stored pointer when it references an existing routine, otherwise the
// resolved active routine.
func (s *Store) MoveToAdjacent(ctx context.Context, direction constants.Direction) (Navigation, error) {
	if direction != constants.DirectionNext && direction != constants.DirectionPrevious {
		return Navigation{}, fmt.Errorf("unknown direction %q", direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	routines, _, err := s.load(ctx)
	if err != nil {
		return Navigation{}, err
	}
	nav := Navigation{Outcome: OutcomeStayed, Routines: routines}

	storedID, err := s.activeID(ctx)
	if err != nil {
		return Navigation{}, err
	}
	current := indexOf(routines, storedID)
	if current < 0 {
		current = resolveIndex(routines, storedID)
	}
	if current < 0 {
		return nav, nil
	}

	target := -1
	if direction == constants.DirectionNext {
		for i := current + 1; i < len(routines); i++ {
			if !routines[i].Completed {
				target = i
				break
			}
		}
	} else {
		for i := current - 1; i >= 0; i-- {
			if !routines[i].Completed {
				target = i
				break
			}
		}
	}

	if target < 0 {
		active := routines[current].Clone()
		nav.Active = &active
		if direction == constants.DirectionNext {
			nav.Outcome = OutcomeNoMoreRoutines
		}
		return nav, nil
	}

	if err := s.setActiveID(ctx, routines[target].ID); err != nil {
		return Navigation{}, err
	}
	logger.Debug("Active routine moved", "direction", direction, "to", routines[target].ID)

	active := routines[target].Clone()
	nav.Active = &active
	nav.Outcome = OutcomeMoved
	return nav, nil
}
