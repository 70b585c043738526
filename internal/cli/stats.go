package cli

import (
	"context"
	"time"

	"github.com/julianstephens/routinely/internal/utils"
)

type AchievementsCmd struct {
	Locked bool `help:"Also show locked achievements." default:"true" negatable:""`
}

func (c *AchievementsCmd) Run(ctx *Context) error {
	list, err := ctx.Engine.Achievements(context.Background())
	if err != nil {
		return err
	}
	unlocked := 0
	for _, a := range list {
		if a.Unlocked {
			unlocked++
		}
	}
	ctx.printf("Achievements: %d/%d unlocked\n\n", unlocked, len(list))
	for _, a := range list {
		if !a.Unlocked && !c.Locked {
			continue
		}
		when := "locked"
		if a.Unlocked && a.UnlockedAt != nil {
			when = utils.FromMillis(*a.UnlockedAt, ctx.Clock.OrSystem()().Location()).Format("2006-01-02")
		}
		ctx.printf("%s %s %-16s %s (%s)\n", checkbox(a.Unlocked), a.Icon, a.Title, a.Description, when)
	}
	return nil
}

type StatsCmd struct {
	Week  StatsWeekCmd  `cmd:"" help:"This week's completions, Sunday first." default:"1"`
	Month StatsMonthCmd `cmd:"" help:"This month's completions."`
}

type StatsWeekCmd struct{}

func (c *StatsWeekCmd) Run(ctx *Context) error {
	stats, err := ctx.Engine.GetWeeklyStats(context.Background())
	if err != nil {
		return err
	}
	ctx.printf("This week: %d routine(s), %d XP\n\n", stats.RoutinesCompleted, stats.TotalXP)
	max := 1
	for _, d := range stats.Days {
		if d.RoutinesCompleted > max {
			max = d.RoutinesCompleted
		}
	}
	for _, d := range stats.Days {
		day, err := time.Parse("2006-01-02", d.Date)
		label := d.Date
		if err == nil {
			label = day.Format("Mon 01/02")
		}
		ctx.printf("  %s  %s %d (%d XP)\n", label, progressBar(d.RoutinesCompleted, max, 10), d.RoutinesCompleted, d.XPEarned)
	}
	return nil
}

type StatsMonthCmd struct{}

func (c *StatsMonthCmd) Run(ctx *Context) error {
	stats, err := ctx.Engine.GetMonthlyStats(context.Background())
	if err != nil {
		return err
	}
	ctx.printf("This month: %d routine(s), %d XP, %.1f per day\n", stats.RoutinesCompleted, stats.TotalXP, stats.AveragePerDay)
	return nil
}

type HistoryCmd struct {
	Limit int `short:"n" help:"Number of entries to show." default:"20"`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	entries, err := ctx.Engine.History(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.println("No completed routines yet.")
		return nil
	}
	total, err := ctx.Engine.HistoryCount(context.Background())
	if err != nil {
		return err
	}
	ctx.printf("Showing %d of %d completed routine(s)\n\n", len(entries), total)
	loc := ctx.Clock.OrSystem()().Location()
	for _, e := range entries {
		at := utils.FromMillis(e.CompletedAt, loc).Format("2006-01-02 15:04")
		ctx.printf("%s  %s  %d/%d tasks  +%d XP\n", at, e.RoutineTitle, e.TasksCompleted, e.TotalTasks, e.XPEarned)
	}
	return nil
}
