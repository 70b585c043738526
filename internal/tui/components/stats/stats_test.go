package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/models"
)

func TestBar(t *testing.T) {
	tests := []struct {
		name       string
		value, max int
		width      int
		wantFull   int
	}{
		{"empty", 0, 100, 10, 0},
		{"half", 50, 100, 10, 5},
		{"full", 100, 100, 10, 10},
		{"overflow clamps", 150, 100, 10, 10},
		{"zero max", 5, 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bar(tt.value, tt.max, tt.width)
			if n := strings.Count(got, "█"); n != tt.wantFull {
				t.Errorf("Bar(%d, %d, %d) has %d full cells, want %d", tt.value, tt.max, tt.width, n, tt.wantFull)
			}
		})
	}
}

func TestContent(t *testing.T) {
	m := New(80, 20)
	if m.Content() != "" {
		t.Errorf("Content() before SetData = %q, want empty", m.Content())
	}

	completed := time.Date(2025, time.June, 15, 7, 30, 0, 0, time.UTC)
	m.SetData(Data{
		Progress: models.ProgressState{TotalXP: 250},
		Streak:   models.StreakState{Current: 3, Best: 5},
		Weekly: models.WeeklyStats{
			RoutinesCompleted: 2,
			TotalXP:           40,
			Days:              []models.DayStats{{Date: "2025-06-15", RoutinesCompleted: 2, XPEarned: 40}},
		},
		History: []models.HistoryEntry{{
			RoutineTitle:   "Morning",
			CompletedAt:    completed.UnixMilli(),
			TasksCompleted: 2,
			TotalTasks:     2,
			XPEarned:       40,
		}},
		Location: time.UTC,
	})

	got := m.Content()
	for _, want := range []string{"Level", "3", "250", "50/100", "2025-06-15 07:30", "Morning", "+40 XP"} {
		if !strings.Contains(got, want) {
			t.Errorf("Content() missing %q:\n%s", want, got)
		}
	}
}
