package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/routinely/internal/routines"
)

type TaskCmd struct {
	Add    TaskAddCmd    `cmd:"" help:"Append a task to a routine."`
	Remove TaskRemoveCmd `cmd:"" help:"Remove a task from a routine."`
	Move   TaskMoveCmd   `cmd:"" help:"Move a task to another position."`
}

type TaskAddCmd struct {
	Task    string `arg:"" help:"Task as 'title' or 'title:points'."`
	Routine string `short:"r" help:"Routine id, position or title (defaults to the active routine)."`
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	bg := context.Background()
	title, points, err := parseTaskSpec(c.Task)
	if err != nil {
		return err
	}
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	updated, err := ctx.Engine.Routines().AddTask(bg, r.ID, routines.TaskDraft{Title: title, Points: points})
	if err != nil {
		return err
	}
	ctx.printf("✓ Added %q (+%d) to %q, now %d task(s)\n", title, points, updated.Title, len(updated.Tasks))
	return nil
}

type TaskRemoveCmd struct {
	Task    string `arg:"" help:"Task id, position or title."`
	Routine string `short:"r" help:"Routine id, position or title (defaults to the active routine)."`
}

func (c *TaskRemoveCmd) Run(ctx *Context) error {
	bg := context.Background()
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	task, ok := findTask(r, c.Task)
	if !ok {
		return fmt.Errorf("no task in %q matches %q", r.Title, c.Task)
	}
	if _, err := ctx.Engine.Routines().RemoveTask(bg, r.ID, task.ID); err != nil {
		return err
	}
	ctx.printf("✓ Removed %q from %q\n", task.Title, r.Title)
	return nil
}

type TaskMoveCmd struct {
	Task     string `arg:"" help:"Task id, position or title."`
	Position int    `arg:"" help:"New 1-based position."`
	Routine  string `short:"r" help:"Routine id, position or title (defaults to the active routine)."`
}

func (c *TaskMoveCmd) Run(ctx *Context) error {
	bg := context.Background()
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	task, ok := findTask(r, c.Task)
	if !ok {
		return fmt.Errorf("no task in %q matches %q", r.Title, c.Task)
	}
	updated, err := ctx.Engine.Routines().MoveTask(bg, r.ID, task.ID, c.Position-1)
	if err != nil {
		return err
	}
	ctx.printf("✓ Moved %q in %q:\n", task.Title, updated.Title)
	for i, t := range updated.Tasks {
		ctx.printf("  %d. %s\n", i+1, t.Title)
	}
	return nil
}
