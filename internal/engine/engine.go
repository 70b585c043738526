// Package engine is the single writer of task completion state. A toggle
// flows through the routine store and, when it completes the last open
// routine, fans out to XP, streak, history, achievements and recurrence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/routinely/internal/achievements"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/history"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/progress"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/streak"
	"github.com/julianstephens/routinely/internal/utils"
)

// Notifier is told about achievements unlocked by a toggle. Failures are
// the notifier's own business and never fail the toggle.
type Notifier interface {
	AchievementsUnlocked(ctx context.Context, unlocked []models.Achievement)
}

type Option func(*Engine)

// WithClock pins "now" for every service the engine builds.
func WithClock(clock utils.Clock) Option {
	return func(e *Engine) { e.now = clock }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

type Engine struct {
	// mu serializes toggles end to end, persisted writes included
	mu sync.Mutex

	now      utils.Clock
	notifier Notifier

	routines     *routines.Store
	ledger       *progress.Ledger
	streaks      *streak.Tracker
	history      *history.Log
	achievements *achievements.Engine
}

func New(kv storage.KeyValueStore, opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	e.now = e.now.OrSystem()

	e.routines = routines.NewStore(kv, e.now)
	e.ledger = progress.NewLedger(kv)
	e.streaks = streak.NewTracker(kv, e.now)
	e.history = history.NewLog(kv, e.now)
	e.achievements = achievements.NewEngine(kv, e.now)
	return e
}

// ToggleResult reports what a toggle changed. Toggled is false when the
// routine or task did not exist, in which case nothing was written.
type ToggleResult struct {
	Toggled  bool
	Task     models.Task
	Routine  models.Routine
	Routines []models.Routine

	XPAwarded int
	TotalXP   int

	// AllCompleted is set when this toggle completed the last open routine
	AllCompleted    bool
	Streak          models.StreakState
	HistoryEntry    *models.HistoryEntry
	Unlocked        []models.Achievement
	RecurrenceReset bool
}

var errNoTarget = errors.New("toggle target not found")

// ToggleTask flips one task. Marking a task done credits its points;
// un-marking never debits them. When the toggle completes the routine and
// every routine in the collection is complete, the day is counted toward
// the streak, the routine is logged, achievements are evaluated and a
// recurring routine is stamped or reset.
func (e *Engine) ToggleTask(ctx context.Context, routineID, taskID string) (ToggleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res ToggleResult

	all, err := e.routines.Mutate(ctx, func(rs []models.Routine) ([]models.Routine, error) {
		i := -1
		for j := range rs {
			if rs[j].ID == routineID {
				i = j
				break
			}
		}
		if i < 0 {
			return nil, errNoTarget
		}
		task, ok := rs[i].ToggleTask(taskID)
		if !ok {
			return nil, errNoTarget
		}
		res.Task = task
		res.Routine = rs[i].Clone()
		return rs, nil
	})
	if errors.Is(err, errNoTarget) {
		logger.Debug("Toggle ignored, unknown target", "routine", routineID, "task", taskID)
		return ToggleResult{}, nil
	}
	if err != nil {
		return ToggleResult{}, fmt.Errorf("failed to toggle task: %w", err)
	}
	res.Toggled = true
	res.Routines = all

	if res.Task.Done {
		total, err := e.ledger.AddXP(ctx, res.Task.Points)
		if err != nil {
			return res, err
		}
		res.XPAwarded = res.Task.Points
		res.TotalXP = total
	} else if res.TotalXP, err = e.ledger.GetXP(ctx); err != nil {
		return res, err
	}

	if !res.Routine.Completed || !allCompleted(all) {
		return res, nil
	}

	res.AllCompleted = true
	if err := e.completeDay(ctx, &res); err != nil {
		return res, err
	}

	if len(res.Unlocked) > 0 && e.notifier != nil {
		e.notifier.AchievementsUnlocked(ctx, res.Unlocked)
	}
	return res, nil
}

func allCompleted(rs []models.Routine) bool {
	if len(rs) == 0 {
		return false
	}
	for _, r := range rs {
		if !r.Completed {
			return false
		}
	}
	return true
}

// completeDay runs the fan-out for a toggle that closed the last open routine.
func (e *Engine) completeDay(ctx context.Context, res *ToggleResult) error {
	now := e.now()
	r := res.Routine

	st, err := e.streaks.UpdateOnFullCompletion(ctx)
	if err != nil {
		return err
	}
	res.Streak = st

	entry := models.HistoryEntry{
		RoutineID:      r.ID,
		RoutineTitle:   r.Title,
		CompletedAt:    utils.ToMillis(now),
		TasksCompleted: r.DoneCount(),
		TotalTasks:     len(r.Tasks),
		XPEarned:       r.EarnedPoints(),
	}
	count, err := e.history.Append(ctx, entry)
	if err != nil {
		return err
	}
	res.HistoryEntry = &entry

	xp, err := e.ledger.GetXP(ctx)
	if err != nil {
		return err
	}
	res.TotalXP = xp

	if count == 1 {
		first, err := e.achievements.Unlock(ctx, achievements.FirstRoutine)
		if err != nil {
			return err
		}
		if first != nil {
			res.Unlocked = append(res.Unlocked, *first)
		}
	}

	unlocked, err := e.achievements.CheckAchievements(ctx, achievements.Stats{
		Streak:            st.Current,
		XP:                xp,
		Level:             progress.Level(xp),
		CompletedRoutines: count,
	})
	if err != nil {
		return err
	}
	res.Unlocked = append(res.Unlocked, unlocked...)

	if r.IsRecurring {
		if err := e.applyRecurrence(ctx, res, now); err != nil {
			return err
		}
	}

	logger.Info("All routines completed", "routine", r.ID, "streak", st.Current, "xp", xp, "unlocked", len(res.Unlocked))
	return nil
}

func (e *Engine) applyRecurrence(ctx context.Context, res *ToggleResult, now time.Time) error {
	all, err := e.routines.Mutate(ctx, func(rs []models.Routine) ([]models.Routine, error) {
		for i := range rs {
			if rs[i].ID == res.Routine.ID {
				res.RecurrenceReset = ApplyRecurrence(&rs[i], now)
				res.Routine = rs[i].Clone()
				return rs, nil
			}
		}
		return nil, errNoTarget
	})
	if err != nil {
		return fmt.Errorf("failed to apply recurrence: %w", err)
	}
	res.Routines = all
	if res.RecurrenceReset {
		logger.Info("Recurring routine reset", "routine", res.Routine.ID, "type", res.Routine.RecurringType)
	}
	return nil
}

// View is the derived state a screen renders after a focus reload.
type View struct {
	Active   *models.Routine
	Routines []models.Routine
	Progress models.ProgressState
	Streak   models.StreakState
}

// Refresh is the focus hook: it decays a lapsed streak before anything is
// read, then reloads the active routine and progress.
func (e *Engine) Refresh(ctx context.Context) (View, error) {
	st, _, err := e.streaks.CheckAndResetIfNeeded(ctx)
	if err != nil {
		return View{}, err
	}
	active, all, err := e.routines.LoadActiveRoutine(ctx)
	if err != nil {
		return View{}, err
	}
	p, err := e.ledger.Snapshot(ctx)
	if err != nil {
		return View{}, err
	}
	return View{Active: active, Routines: all, Progress: p, Streak: st}, nil
}

func (e *Engine) LoadActiveRoutine(ctx context.Context) (*models.Routine, []models.Routine, error) {
	return e.routines.LoadActiveRoutine(ctx)
}

func (e *Engine) MoveToAdjacent(ctx context.Context, direction constants.Direction) (routines.Navigation, error) {
	return e.routines.MoveToAdjacent(ctx, direction)
}

func (e *Engine) SetActive(ctx context.Context, routineID string) error {
	return e.routines.SetActive(ctx, routineID)
}

func (e *Engine) DeleteRoutine(ctx context.Context, routineID string) error {
	return e.routines.DeleteRoutine(ctx, routineID)
}

func (e *Engine) GetCurrentStreak(ctx context.Context) (int, error) {
	return e.streaks.GetCurrentStreak(ctx)
}

func (e *Engine) GetXP(ctx context.Context) (int, error) {
	return e.ledger.GetXP(ctx)
}

func (e *Engine) CheckAchievements(ctx context.Context, stats achievements.Stats) ([]models.Achievement, error) {
	return e.achievements.CheckAchievements(ctx, stats)
}

func (e *Engine) GetWeeklyStats(ctx context.Context) (models.WeeklyStats, error) {
	return e.history.WeeklyStats(ctx)
}

func (e *Engine) GetMonthlyStats(ctx context.Context) (models.MonthlyStats, error) {
	return e.history.MonthlyStats(ctx)
}

func (e *Engine) Achievements(ctx context.Context) ([]models.Achievement, error) {
	return e.achievements.All(ctx)
}

func (e *Engine) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return e.history.Recent(ctx, limit)
}

// HistoryCount is the number of completions kept in the log.
func (e *Engine) HistoryCount(ctx context.Context) (int, error) {
	return e.history.Count(ctx)
}

func (e *Engine) Streak(ctx context.Context) (models.StreakState, error) {
	return e.streaks.State(ctx)
}

func (e *Engine) Progress(ctx context.Context) (models.ProgressState, error) {
	return e.ledger.Snapshot(ctx)
}

// Routines exposes the store for authoring operations.
func (e *Engine) Routines() *routines.Store {
	return e.routines
}
