package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/engine"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/storage"
)

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *Context) error {
	view, err := ctx.Engine.Refresh(context.Background())
	if err != nil {
		return err
	}
	name, err := storage.GetString(context.Background(), ctx.Store, constants.KeyUserName)
	if err != nil {
		return err
	}
	if name != "" {
		ctx.printf("Hi, %s!\n", name)
	}
	printView(ctx, view)
	return nil
}

func printView(ctx *Context, view engine.View) {
	p := view.Progress
	ctx.printf("Level %d  %s  %d/%d XP  (total %d)\n",
		p.Level(), progressBar(p.Progress(), constants.XPPerLevel, 20), p.Progress(), constants.XPPerLevel, p.TotalXP)
	ctx.printf("Streak: %d day(s), best %d\n\n", view.Streak.Current, view.Streak.Best)

	if view.Active == nil {
		ctx.println("No routines yet. Create one with 'routinely routine add' or 'routinely routine template'.")
		return
	}

	r := *view.Active
	done := 0
	for _, other := range view.Routines {
		if other.Completed {
			done++
		}
	}
	ctx.printf("%s  (%d/%d routines done today)\n", r.Title, done, len(view.Routines))
	ctx.printf("%s %d%%  %d/%d XP\n", progressBar(r.ProgressPercent(), 100, 20), r.ProgressPercent(), r.EarnedPoints(), r.TotalPoints())
	for i, t := range r.Tasks {
		ctx.printf("  %d. %s %s (+%d)\n", i+1, checkbox(t.Done), t.Title, t.Points)
	}
}

type ToggleCmd struct {
	Task    string `arg:"" help:"Task id, position or title in the routine."`
	Routine string `short:"r" help:"Routine id, position or title (defaults to the active routine)."`
}

func (c *ToggleCmd) Run(ctx *Context) error {
	bg := context.Background()
	if _, err := ctx.Engine.Refresh(bg); err != nil {
		return err
	}

	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	task, ok := findTask(r, c.Task)
	if !ok {
		return fmt.Errorf("no task in %q matches %q", r.Title, c.Task)
	}

	res, err := ctx.Engine.ToggleTask(bg, r.ID, task.ID)
	if err != nil {
		return err
	}
	if !res.Toggled {
		return fmt.Errorf("task %q was not found", c.Task)
	}

	if res.Task.Done {
		ctx.printf("✓ %s (+%d XP, total %d)\n", res.Task.Title, res.XPAwarded, res.TotalXP)
	} else {
		ctx.printf("○ %s marked undone\n", res.Task.Title)
	}
	if res.Task.Done && res.Routine.Completed && !res.AllCompleted {
		ctx.printf("Routine %q complete. Run 'routinely next' for the next one.\n", r.Title)
	}
	if res.AllCompleted {
		ctx.printf("🎉 All routines complete! Streak: %d day(s)\n", res.Streak.Current)
		if res.RecurrenceReset {
			ctx.printf("%q is %s and has been reset.\n", res.Routine.Title, res.Routine.RecurringType)
		}
		ctx.PerformAutomaticBackup(bg)
	}
	for _, a := range res.Unlocked {
		ctx.printf("%s Achievement unlocked: %s\n", a.Icon, a.Title)
	}
	return nil
}

type NextCmd struct{}

func (c *NextCmd) Run(ctx *Context) error {
	return navigate(ctx, constants.DirectionNext)
}

type PrevCmd struct{}

func (c *PrevCmd) Run(ctx *Context) error {
	return navigate(ctx, constants.DirectionPrevious)
}

func navigate(ctx *Context, direction constants.Direction) error {
	nav, err := ctx.Engine.MoveToAdjacent(context.Background(), direction)
	if err != nil {
		return err
	}
	switch nav.Outcome {
	case routines.OutcomeMoved:
		ctx.printf("Now on: %s\n", nav.Active.Title)
	case routines.OutcomeNoMoreRoutines:
		ctx.println("No more routines ahead. Add one with 'routinely routine add' or 'routinely routine template'.")
	default:
		if nav.Active != nil {
			ctx.printf("Staying on: %s\n", nav.Active.Title)
		} else {
			ctx.println("No routines yet.")
		}
	}
	return nil
}
