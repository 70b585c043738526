// Package achievements evaluates the fixed achievement catalog against
// progress stats. Unlocks are monotonic: an unlocked achievement never
// relocks.
package achievements

import (
	"context"
	"errors"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

var ErrUnknownAchievement = errors.New("unknown achievement")

type Engine struct {
	kv  storage.KeyValueStore
	now utils.Clock
}

func NewEngine(kv storage.KeyValueStore, clock utils.Clock) *Engine {
	return &Engine{kv: kv, now: clock.OrSystem()}
}

// All returns every achievement with its unlock state, in catalog order.
// Stored entries missing from older data are filled from the catalog;
// stored entries no longer in the catalog are kept at the end.
func (e *Engine) All(ctx context.Context) ([]models.Achievement, error) {
	var stored []models.Achievement
	if _, err := storage.GetJSON(ctx, e.kv, constants.KeyAchievements, &stored); err != nil {
		return nil, err
	}

	byID := make(map[string]models.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}

	out := make([]models.Achievement, 0, len(catalog))
	seen := make(map[string]bool, len(catalog))
	for _, d := range catalog {
		seen[d.ID] = true
		a := d.locked()
		if s, ok := byID[d.ID]; ok && s.Unlocked {
			a.Unlocked = true
			a.UnlockedAt = s.UnlockedAt
		}
		out = append(out, a)
	}
	for _, a := range stored {
		if !seen[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// Unlock marks one achievement unlocked. It returns the achievement when
// this call unlocked it and nil when it was already unlocked.
func (e *Engine) Unlock(ctx context.Context, id string) (*models.Achievement, error) {
	if _, ok := lookup(id); !ok {
		return nil, ErrUnknownAchievement
	}

	all, err := e.All(ctx)
	if err != nil {
		return nil, err
	}

	newly := e.unlock(all, func(d Definition) bool { return d.ID == id })
	if len(newly) == 0 {
		return nil, nil
	}
	if err := storage.SetJSON(ctx, e.kv, constants.KeyAchievements, all); err != nil {
		return nil, err
	}
	return &newly[0], nil
}

// CheckAchievements unlocks every threshold achievement whose condition
// holds for stats and that is still locked, persists once, and returns the
// achievements unlocked by this call. Repeating the call with the same
// stats unlocks nothing.
func (e *Engine) CheckAchievements(ctx context.Context, stats Stats) ([]models.Achievement, error) {
	all, err := e.All(ctx)
	if err != nil {
		return nil, err
	}

	newly := e.unlock(all, func(d Definition) bool {
		return d.Condition != nil && d.Condition(stats)
	})
	if len(newly) == 0 {
		return nil, nil
	}
	if err := storage.SetJSON(ctx, e.kv, constants.KeyAchievements, all); err != nil {
		return nil, err
	}
	return newly, nil
}

// unlock flips matching locked entries in all and returns copies of them.
func (e *Engine) unlock(all []models.Achievement, match func(Definition) bool) []models.Achievement {
	var newly []models.Achievement
	ts := utils.ToMillis(e.now())
	for i := range all {
		if all[i].Unlocked {
			continue
		}
		d, ok := lookup(all[i].ID)
		if !ok || !match(d) {
			continue
		}
		at := ts
		all[i].Unlocked = true
		all[i].UnlockedAt = &at
		newly = append(newly, all[i])
		logger.Info("Achievement unlocked", "id", all[i].ID, "title", all[i].Title)
	}
	return newly
}
