// Package history keeps the append-only log of completed routines and
// aggregates it into weekly and monthly stats.
package history

import (
	"context"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

type Log struct {
	kv       storage.KeyValueStore
	now      utils.Clock
	capacity int
}

func NewLog(kv storage.KeyValueStore, clock utils.Clock) *Log {
	return &Log{kv: kv, now: clock.OrSystem(), capacity: constants.MaxHistoryEntries}
}

// All returns every entry, oldest first.
func (l *Log) All(ctx context.Context) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if _, err := storage.GetJSON(ctx, l.kv, constants.KeyRoutineHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Log) Count(ctx context.Context) (int, error) {
	entries, err := l.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Append adds entry and evicts the oldest entries beyond the cap.
// It returns the entry count after the append.
func (l *Log) Append(ctx context.Context, entry models.HistoryEntry) (int, error) {
	entries, err := l.All(ctx)
	if err != nil {
		return 0, err
	}

	entries = append(entries, entry)
	if over := len(entries) - l.capacity; over > 0 {
		entries = entries[over:]
		logger.Debug("History trimmed", "evicted", over)
	}

	if err := storage.SetJSON(ctx, l.kv, constants.KeyRoutineHistory, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]models.HistoryEntry, error) {
	entries, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]models.HistoryEntry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

// Range returns entries completed within [start, end], both inclusive.
func (l *Log) Range(ctx context.Context, start, end time.Time) ([]models.HistoryEntry, error) {
	entries, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	return filterRange(entries, utils.ToMillis(start), utils.ToMillis(end)), nil
}

func filterRange(entries []models.HistoryEntry, startMs, endMs int64) []models.HistoryEntry {
	var out []models.HistoryEntry
	for _, e := range entries {
		if e.CompletedAt >= startMs && e.CompletedAt <= endMs {
			out = append(out, e)
		}
	}
	return out
}

// WeeklyStats aggregates the Sunday-start week containing today, with one
// bucket per day.
func (l *Log) WeeklyStats(ctx context.Context) (models.WeeklyStats, error) {
	now := l.now()
	start := utils.StartOfWeek(now)
	end := utils.EndOfDay(start.AddDate(0, 0, 6))

	week, err := l.Range(ctx, start, end)
	if err != nil {
		return models.WeeklyStats{}, err
	}

	stats := models.WeeklyStats{Days: make([]models.DayStats, 7)}
	for i := range stats.Days {
		stats.Days[i].Date = utils.DateString(start.AddDate(0, 0, i))
	}

	loc := now.Location()
	for _, e := range week {
		stats.RoutinesCompleted++
		stats.TotalXP += e.XPEarned

		day := utils.DateString(utils.FromMillis(e.CompletedAt, loc))
		for i := range stats.Days {
			if stats.Days[i].Date == day {
				stats.Days[i].RoutinesCompleted++
				stats.Days[i].XPEarned += e.XPEarned
				break
			}
		}
	}
	return stats, nil
}

// MonthlyStats aggregates the calendar month containing today. The average
// divides by the days elapsed so far, today included.
func (l *Log) MonthlyStats(ctx context.Context) (models.MonthlyStats, error) {
	now := l.now()
	month, err := l.Range(ctx, utils.StartOfMonth(now), utils.EndOfMonth(now))
	if err != nil {
		return models.MonthlyStats{}, err
	}

	stats := models.MonthlyStats{RoutinesCompleted: len(month)}
	for _, e := range month {
		stats.TotalXP += e.XPEarned
	}
	stats.AveragePerDay = float64(stats.RoutinesCompleted) / float64(now.Day())
	return stats, nil
}
