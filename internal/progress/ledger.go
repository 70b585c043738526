// Package progress tracks cumulative XP. Level and in-level progress are
// derived from the total on every read.
package progress

import (
	"context"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

type Ledger struct {
	kv storage.KeyValueStore
}

func NewLedger(kv storage.KeyValueStore) *Ledger {
	return &Ledger{kv: kv}
}

// GetXP returns the stored total. Missing or malformed values read as 0.
func (l *Ledger) GetXP(ctx context.Context) (int, error) {
	xp, err := storage.GetInt(ctx, l.kv, constants.KeyUserXP)
	if err != nil {
		return 0, err
	}
	if xp < 0 {
		return 0, nil
	}
	return xp, nil
}

// AddXP credits amount and returns the new total. Non-positive amounts
// leave the ledger untouched.
func (l *Ledger) AddXP(ctx context.Context, amount int) (int, error) {
	current, err := l.GetXP(ctx)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return current, nil
	}

	total := current + amount
	if err := storage.SetInt(ctx, l.kv, constants.KeyUserXP, total); err != nil {
		return current, err
	}

	if models.LevelForXP(total) > models.LevelForXP(current) {
		logger.Info("Level up", "level", models.LevelForXP(total), "xp", total)
	} else {
		logger.Debug("XP credited", "amount", amount, "xp", total)
	}
	return total, nil
}

func (l *Ledger) Snapshot(ctx context.Context) (models.ProgressState, error) {
	xp, err := l.GetXP(ctx)
	if err != nil {
		return models.ProgressState{}, err
	}
	return models.ProgressState{TotalXP: xp}, nil
}

// Level returns floor(xp / 100) + 1.
func Level(xp int) int {
	return models.LevelForXP(xp)
}

// Progress returns the XP earned inside the current level.
func Progress(xp int) int {
	return models.ProgressForXP(xp)
}
