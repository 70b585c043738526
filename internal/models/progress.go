package models

import "github.com/julianstephens/routinely/internal/constants"

// ProgressState is the player's cumulative experience. Level and in-level
// progress are derived, never stored.
type ProgressState struct {
	TotalXP int `json:"totalXP"`
}

func (p ProgressState) Level() int {
	return LevelForXP(p.TotalXP)
}

func (p ProgressState) Progress() int {
	return ProgressForXP(p.TotalXP)
}

// LevelForXP returns floor(xp / 100) + 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/constants.XPPerLevel + 1
}

// ProgressForXP returns xp mod 100, the XP earned inside the current level.
func ProgressForXP(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp % constants.XPPerLevel
}

type StreakState struct {
	Current            int    `json:"current"`
	Best               int    `json:"best"`
	LastCompletionDate string `json:"lastCompletionDate,omitempty"` // YYYY-MM-DD
}

type HistoryEntry struct {
	RoutineID      string `json:"routineId"`
	RoutineTitle   string `json:"routineTitle"`
	CompletedAt    int64  `json:"completedAt"` // epoch ms
	TasksCompleted int    `json:"tasksCompleted"`
	TotalTasks     int    `json:"totalTasks"`
	XPEarned       int    `json:"xpEarned"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	UnlockedAt  *int64 `json:"unlockedAt,omitempty"` // epoch ms
}

type DayStats struct {
	Date              string `json:"date"` // YYYY-MM-DD
	RoutinesCompleted int    `json:"routinesCompleted"`
	XPEarned          int    `json:"xpEarned"`
}

type WeeklyStats struct {
	RoutinesCompleted int        `json:"routinesCompleted"`
	TotalXP           int        `json:"totalXP"`
	Days              []DayStats `json:"days"`
}

type MonthlyStats struct {
	RoutinesCompleted int     `json:"routinesCompleted"`
	TotalXP           int     `json:"totalXP"`
	AveragePerDay     float64 `json:"averagePerDay"`
}
