// Package streak tracks consecutive calendar days on which every routine
// was completed. Decay is detected lazily by CheckAndResetIfNeeded.
package streak

import (
	"context"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

type Tracker struct {
	kv  storage.KeyValueStore
	now utils.Clock
}

// NewTracker returns a tracker whose "today" is the calendar day of clock
// in the clock's location. A nil clock uses the system time.
func NewTracker(kv storage.KeyValueStore, clock utils.Clock) *Tracker {
	return &Tracker{kv: kv, now: clock.OrSystem()}
}

func (t *Tracker) State(ctx context.Context) (models.StreakState, error) {
	current, err := storage.GetInt(ctx, t.kv, constants.KeyCurrentStreak)
	if err != nil {
		return models.StreakState{}, err
	}
	best, err := storage.GetInt(ctx, t.kv, constants.KeyBestStreak)
	if err != nil {
		return models.StreakState{}, err
	}
	last, err := storage.GetString(ctx, t.kv, constants.KeyLastCompletionDate)
	if err != nil {
		return models.StreakState{}, err
	}

	if current < 0 {
		current = 0
	}
	if best < current {
		best = current
	}
	return models.StreakState{Current: current, Best: best, LastCompletionDate: last}, nil
}

func (t *Tracker) GetCurrentStreak(ctx context.Context) (int, error) {
	st, err := t.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.Current, nil
}

// UpdateOnFullCompletion records that every routine was completed today.
// A completion already counted today is a no-op; one following yesterday
// extends the streak; anything else starts a new streak at 1.
func (t *Tracker) UpdateOnFullCompletion(ctx context.Context) (models.StreakState, error) {
	st, err := t.State(ctx)
	if err != nil {
		return st, err
	}

	now := t.now()
	today := utils.DateString(now)

	switch st.LastCompletionDate {
	case today:
		return st, nil
	case utils.YesterdayString(now):
		st.Current++
	default:
		st.Current = 1
	}
	st.LastCompletionDate = today
	if st.Current > st.Best {
		st.Best = st.Current
	}

	if err := t.save(ctx, st); err != nil {
		return st, err
	}
	logger.Debug("Streak updated", "current", st.Current, "best", st.Best)
	return st, nil
}

// CheckAndResetIfNeeded zeroes the current streak when a full day was
// missed. Best is never touched. It reports whether a reset happened.
func (t *Tracker) CheckAndResetIfNeeded(ctx context.Context) (models.StreakState, bool, error) {
	st, err := t.State(ctx)
	if err != nil {
		return st, false, err
	}
	if st.LastCompletionDate == "" {
		return st, false, nil
	}

	now := t.now()
	if st.LastCompletionDate == utils.DateString(now) || st.LastCompletionDate == utils.YesterdayString(now) {
		return st, false, nil
	}
	if st.Current == 0 {
		return st, false, nil
	}

	st.Current = 0
	if err := storage.SetInt(ctx, t.kv, constants.KeyCurrentStreak, 0); err != nil {
		return st, false, err
	}
	logger.Info("Streak reset after missed day", "last_completion", st.LastCompletionDate, "best", st.Best)
	return st, true, nil
}

func (t *Tracker) save(ctx context.Context, st models.StreakState) error {
	if err := storage.SetInt(ctx, t.kv, constants.KeyCurrentStreak, st.Current); err != nil {
		return err
	}
	if err := storage.SetInt(ctx, t.kv, constants.KeyBestStreak, st.Best); err != nil {
		return err
	}
	if err := t.kv.Set(ctx, constants.KeyLastCompletionDate, st.LastCompletionDate); err != nil {
		return err
	}
	return nil
}
