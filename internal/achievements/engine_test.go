package achievements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() (*Engine, *storage.MemoryStore) {
	kv := storage.NewMemoryStore()
	return NewEngine(kv, func() time.Time { return fixedNow }), kv
}

func ids(list []models.Achievement) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestAllDefaultsToLockedCatalog(t *testing.T) {
	e, _ := newTestEngine()
	all, err := e.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != len(catalog) {
		t.Fatalf("All() returned %d achievements, want %d", len(all), len(catalog))
	}
	for _, a := range all {
		if a.Unlocked || a.UnlockedAt != nil {
			t.Errorf("achievement %s unlocked on a fresh store", a.ID)
		}
	}
}

func TestCheckAchievements(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  []string
	}{
		{"nothing reached", Stats{Streak: 6, XP: 999, Level: 9, CompletedRoutines: 9}, nil},
		{"streak 7", Stats{Streak: 7}, []string{Streak7}},
		{"streak 30 unlocks both", Stats{Streak: 30}, []string{Streak7, Streak30}},
		{"xp thresholds", Stats{XP: 5000, Level: 51}, []string{XP1000, XP5000, Level10}},
		{"routine counts", Stats{CompletedRoutines: 50}, []string{Routines10, Routines50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine()
			got, err := e.CheckAchievements(context.Background(), tt.stats)
			if err != nil {
				t.Fatalf("CheckAchievements() error = %v", err)
			}
			gotIDs := ids(got)
			if len(gotIDs) != len(tt.want) {
				t.Fatalf("CheckAchievements() = %v, want %v", gotIDs, tt.want)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.want[i] {
					t.Errorf("CheckAchievements()[%d] = %s, want %s", i, gotIDs[i], tt.want[i])
				}
			}
			for _, a := range got {
				if a.UnlockedAt == nil || *a.UnlockedAt != fixedNow.UnixMilli() {
					t.Errorf("%s UnlockedAt = %v, want %d", a.ID, a.UnlockedAt, fixedNow.UnixMilli())
				}
			}
		})
	}
}

func TestCheckAchievementsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine()
	stats := Stats{Streak: 7, XP: 1200, Level: 13, CompletedRoutines: 10}

	first, err := e.CheckAchievements(ctx, stats)
	if err != nil {
		t.Fatalf("first CheckAchievements() error = %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("first call unlocked %v, want 4 achievements", ids(first))
	}

	second, err := e.CheckAchievements(ctx, stats)
	if err != nil {
		t.Fatalf("second CheckAchievements() error = %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second call unlocked %v, want none", ids(second))
	}

	all, _ := e.All(ctx)
	unlocked := 0
	for _, a := range all {
		if a.Unlocked {
			unlocked++
		}
	}
	if unlocked != 4 {
		t.Errorf("unlocked count = %d, want 4", unlocked)
	}
}

func TestFirstRoutineNeedsExplicitUnlock(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine()

	got, err := e.CheckAchievements(ctx, Stats{CompletedRoutines: 1})
	if err != nil {
		t.Fatalf("CheckAchievements() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("CheckAchievements() unlocked %v, want none", ids(got))
	}

	a, err := e.Unlock(ctx, FirstRoutine)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if a == nil || a.ID != FirstRoutine || !a.Unlocked {
		t.Fatalf("Unlock() = %+v, want unlocked first_routine", a)
	}

	again, err := e.Unlock(ctx, FirstRoutine)
	if err != nil || again != nil {
		t.Errorf("second Unlock() = %+v, %v; want nil, nil", again, err)
	}

	if _, err := e.Unlock(ctx, "no_such_thing"); !errors.Is(err, ErrUnknownAchievement) {
		t.Errorf("Unlock(unknown) error = %v, want %v", err, ErrUnknownAchievement)
	}
}

func TestAllMergesOlderStoredLists(t *testing.T) {
	ctx := context.Background()
	e, kv := newTestEngine()

	at := int64(1700000000000)
	older := []models.Achievement{
		{ID: Streak7, Title: "old title", Unlocked: true, UnlockedAt: &at},
	}
	if err := storage.SetJSON(ctx, kv, constants.KeyAchievements, older); err != nil {
		t.Fatal(err)
	}

	all, err := e.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != len(catalog) {
		t.Fatalf("All() returned %d entries, want %d", len(all), len(catalog))
	}
	for _, a := range all {
		if a.ID == Streak7 {
			if !a.Unlocked || a.UnlockedAt == nil || *a.UnlockedAt != at {
				t.Errorf("streak_7 lost its unlock: %+v", a)
			}
			if a.Title != "Perfect Week" {
				t.Errorf("streak_7 title = %q, want catalog title", a.Title)
			}
		}
	}

	// Already unlocked stays put
	got, _ := e.CheckAchievements(ctx, Stats{Streak: 8})
	if len(got) != 0 {
		t.Errorf("CheckAchievements() re-unlocked %v", ids(got))
	}
}

func TestMalformedStoredListFallsBackToCatalog(t *testing.T) {
	ctx := context.Background()
	e, kv := newTestEngine()
	_ = kv.Set(ctx, constants.KeyAchievements, "{oops")

	all, err := e.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != len(catalog) {
		t.Errorf("All() returned %d entries, want %d", len(all), len(catalog))
	}
}
