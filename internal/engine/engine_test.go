package engine

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/achievements"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

var fixedNow = time.Date(2025, time.June, 15, 8, 0, 0, 0, time.Local)

func fixedClock() time.Time { return fixedNow }

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]models.Achievement
}

func (n *recordingNotifier) AchievementsUnlocked(_ context.Context, unlocked []models.Achievement) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, unlocked)
}

func seedRoutines(t *testing.T, kv storage.KeyValueStore, rs ...models.Routine) {
	t.Helper()
	if err := storage.SetJSON(context.Background(), kv, constants.KeyRoutines, rs); err != nil {
		t.Fatal(err)
	}
}

func newRoutine(id string, createdAt int64, points ...int) models.Routine {
	r := models.Routine{ID: id, Title: "Routine " + id, CreatedAt: createdAt}
	for i, p := range points {
		r.Tasks = append(r.Tasks, models.Task{ID: id + "-" + strconv.Itoa(i), Title: "task", Points: p})
	}
	return r
}

func storedRoutine(t *testing.T, e *Engine, id string) models.Routine {
	t.Helper()
	r, err := e.Routines().Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestToggleAwardsPointsAndCompletes(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seedRoutines(t, kv, newRoutine("r1", 1, 10, 20))
	e := New(kv, WithClock(fixedClock))

	res, err := e.ToggleTask(ctx, "r1", "r1-0")
	if err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}
	if !res.Toggled || !res.Task.Done {
		t.Fatalf("ToggleTask() = %+v, want a done task", res)
	}
	if res.XPAwarded != 10 || res.TotalXP != 10 {
		t.Errorf("XP = %d/%d, want 10/10", res.XPAwarded, res.TotalXP)
	}
	if res.Routine.Completed || res.AllCompleted {
		t.Error("routine should not be complete after one of two tasks")
	}

	res, err = e.ToggleTask(ctx, "r1", "r1-1")
	if err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}
	if res.TotalXP != 30 {
		t.Errorf("TotalXP = %d, want 30", res.TotalXP)
	}
	if !res.Routine.Completed || !res.AllCompleted {
		t.Errorf("Completed = %v, AllCompleted = %v, want both true", res.Routine.Completed, res.AllCompleted)
	}
}

func TestFullCompletionFansOut(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seedRoutines(t, kv, newRoutine("r1", 1, 10))
	n := &recordingNotifier{}
	e := New(kv, WithClock(fixedClock), WithNotifier(n))

	res, err := e.ToggleTask(ctx, "r1", "r1-0")
	if err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}

	want := models.StreakState{Current: 1, Best: 1, LastCompletionDate: utils.DateString(fixedNow)}
	if res.Streak != want {
		t.Errorf("Streak = %+v, want %+v", res.Streak, want)
	}
	st, err := e.Streak(ctx)
	if err != nil || st != want {
		t.Errorf("Streak() = %+v, %v, want %+v", st, err, want)
	}

	hist, err := e.History(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 {
		t.Fatalf("len(History()) = %d, want 1", len(hist))
	}
	if hist[0].RoutineID != "r1" || hist[0].XPEarned != 10 || hist[0].TasksCompleted != 1 || hist[0].TotalTasks != 1 {
		t.Errorf("History()[0] = %+v", hist[0])
	}
	if hist[0].CompletedAt != utils.ToMillis(fixedNow) {
		t.Errorf("CompletedAt = %d, want %d", hist[0].CompletedAt, utils.ToMillis(fixedNow))
	}

	got := map[string]bool{}
	for _, a := range res.Unlocked {
		got[a.ID] = true
	}
	if !got[achievements.FirstRoutine] {
		t.Errorf("Unlocked = %v, want %s", res.Unlocked, achievements.FirstRoutine)
	}

	all, err := e.Achievements(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range all {
		if a.ID == achievements.FirstRoutine && (!a.Unlocked || a.UnlockedAt == nil) {
			t.Errorf("stored %s = %+v, want unlocked with timestamp", a.ID, a)
		}
	}

	if len(n.calls) != 1 {
		t.Errorf("notifier called %d times, want 1", len(n.calls))
	}
}

func TestPartialCollectionDoesNotCountDay(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seedRoutines(t, kv, newRoutine("r1", 1, 10), newRoutine("r2", 2, 10))
	e := New(kv, WithClock(fixedClock))

	res, err := e.ToggleTask(ctx, "r1", "r1-0")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Routine.Completed {
		t.Error("r1 should be complete")
	}
	if res.AllCompleted || res.HistoryEntry != nil {
		t.Errorf("AllCompleted = %v, HistoryEntry = %v, want no fan-out", res.AllCompleted, res.HistoryEntry)
	}
	if cur, _ := e.GetCurrentStreak(ctx); cur != 0 {
		t.Errorf("GetCurrentStreak() = %d, want 0", cur)
	}
	if hist, _ := e.History(ctx, 10); len(hist) != 0 {
		t.Errorf("History() = %v, want empty", hist)
	}
}

func TestUntoggleKeepsXP(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seedRoutines(t, kv, newRoutine("r1", 1, 10, 20))
	e := New(kv, WithClock(fixedClock))

	if _, err := e.ToggleTask(ctx, "r1", "r1-0"); err != nil {
		t.Fatal(err)
	}
	res, err := e.ToggleTask(ctx, "r1", "r1-0")
	if err != nil {
		t.Fatal(err)
	}
	if res.Task.Done {
		t.Error("second toggle should mark the task undone")
	}
	if res.XPAwarded != 0 || res.TotalXP != 10 {
		t.Errorf("XP = %d/%d, want 0/10", res.XPAwarded, res.TotalXP)
	}
	if xp, _ := e.GetXP(ctx); xp != 10 {
		t.Errorf("GetXP() = %d, want 10", xp)
	}
}

func TestToggleUnknownTargetIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seedRoutines(t, kv, newRoutine("r1", 1, 10))
	e := New(kv, WithClock(fixedClock))

	before, _, _ := kv.Get(ctx, constants.KeyRoutines)

	tests := []struct {
		name      string
		routineID string
		taskID    string
	}{
		{"unknown routine", "missing", "r1-0"},
		{"unknown task", "r1", "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.ToggleTask(ctx, tt.routineID, tt.taskID)
			if err != nil {
				t.Fatalf("ToggleTask() error = %v", err)
			}
			if res.Toggled {
				t.Error("Toggled = true, want false")
			}
		})
	}

	after, _, _ := kv.Get(ctx, constants.KeyRoutines)
	if before != after {
		t.Error("routines were rewritten by a no-op toggle")
	}
	if _, ok, _ := kv.Get(ctx, constants.KeyUserXP); ok {
		t.Error("XP key written by a no-op toggle")
	}
}

func TestRecurringRoutineResets(t *testing.T) {
	ctx := context.Background()
	yesterday := utils.ToMillis(fixedNow.AddDate(0, 0, -1))
	sixDaysAgo := utils.ToMillis(fixedNow.AddDate(0, 0, -6))
	earlierToday := utils.ToMillis(fixedNow.Add(-time.Hour))

	tests := []struct {
		name      string
		recurring constants.RecurrenceType
		last      *int64
		wantReset bool
	}{
		{"daily never completed", constants.RecurrenceDaily, nil, true},
		{"daily completed yesterday", constants.RecurrenceDaily, &yesterday, true},
		{"daily completed earlier today", constants.RecurrenceDaily, &earlierToday, false},
		{"weekly six days ago", constants.RecurrenceWeekly, &sixDaysAgo, false},
		{"weekly never completed", constants.RecurrenceWeekly, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryStore()
			r := newRoutine("r1", 1, 10, 10)
			r.Tasks[0].Done = true
			r.IsRecurring = true
			r.RecurringType = tt.recurring
			r.LastCompletedDate = tt.last
			seedRoutines(t, kv, r)
			e := New(kv, WithClock(fixedClock))

			res, err := e.ToggleTask(ctx, "r1", "r1-1")
			if err != nil {
				t.Fatalf("ToggleTask() error = %v", err)
			}
			if !res.AllCompleted {
				t.Fatal("AllCompleted = false, want true")
			}
			if res.RecurrenceReset != tt.wantReset {
				t.Errorf("RecurrenceReset = %v, want %v", res.RecurrenceReset, tt.wantReset)
			}

			got := storedRoutine(t, e, "r1")
			if got.LastCompletedDate == nil || *got.LastCompletedDate != utils.ToMillis(fixedNow) {
				t.Errorf("LastCompletedDate = %v, want %d", got.LastCompletedDate, utils.ToMillis(fixedNow))
			}
			if tt.wantReset {
				if got.Completed || got.DoneCount() != 0 {
					t.Errorf("stored routine = %+v, want every task reset", got)
				}
			} else if !got.Completed {
				t.Error("stored routine should stay completed")
			}
			if got.Completed != got.AllDone() {
				t.Error("Completed disagrees with task state")
			}
		})
	}
}

func TestResetDue(t *testing.T) {
	sevenDaysAgo := utils.ToMillis(fixedNow.AddDate(0, 0, -7))
	r := models.Routine{IsRecurring: true, RecurringType: constants.RecurrenceWeekly, LastCompletedDate: &sevenDaysAgo}
	if !ResetDue(r, fixedNow) {
		t.Error("ResetDue() = false for a week-old weekly routine, want true")
	}
	r.RecurringType = constants.RecurrenceNone
	if ResetDue(r, fixedNow) {
		t.Error("ResetDue() = true for an unknown recurrence, want false")
	}
}

func TestRefreshDecaysLapsedStreak(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	seedRoutines(t, kv, newRoutine("r1", 1, 10))
	_ = kv.Set(ctx, constants.KeyCurrentStreak, "4")
	_ = kv.Set(ctx, constants.KeyBestStreak, "6")
	_ = kv.Set(ctx, constants.KeyLastCompletionDate, utils.DateString(fixedNow.AddDate(0, 0, -3)))
	_ = kv.Set(ctx, constants.KeyUserXP, "250")
	e := New(kv, WithClock(fixedClock))

	v, err := e.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if v.Streak.Current != 0 || v.Streak.Best != 6 {
		t.Errorf("Streak = %+v, want current 0 best 6", v.Streak)
	}
	if v.Active == nil || v.Active.ID != "r1" {
		t.Errorf("Active = %v, want r1", v.Active)
	}
	if v.Progress.TotalXP != 250 || v.Progress.Level() != 3 || v.Progress.Progress() != 50 {
		t.Errorf("Progress = %+v", v.Progress)
	}
}

func TestConcurrentTogglesSerialize(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	points := make([]int, 20)
	for i := range points {
		points[i] = 5
	}
	seedRoutines(t, kv, newRoutine("r1", 1, points...))
	e := New(kv, WithClock(fixedClock))

	var wg sync.WaitGroup
	for i := range points {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := e.ToggleTask(ctx, "r1", "r1-"+strconv.Itoa(i)); err != nil {
				t.Errorf("ToggleTask() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	got := storedRoutine(t, e, "r1")
	if got.DoneCount() != len(points) || !got.Completed {
		t.Errorf("DoneCount() = %d, Completed = %v, want all done", got.DoneCount(), got.Completed)
	}
	if xp, _ := e.GetXP(ctx); xp != 100 {
		t.Errorf("GetXP() = %d, want 100", xp)
	}
	if hist, _ := e.History(ctx, 10); len(hist) != 1 {
		t.Errorf("len(History()) = %d, want 1", len(hist))
	}
}
