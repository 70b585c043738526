package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/templates"
	"github.com/julianstephens/routinely/internal/validation"
)

type RoutineCmd struct {
	List      RoutineListCmd      `cmd:"" help:"List routines." default:"1"`
	Add       RoutineAddCmd       `cmd:"" help:"Create a routine."`
	Delete    RoutineDeleteCmd    `cmd:"" help:"Delete a routine."`
	Duplicate RoutineDuplicateCmd `cmd:"" help:"Copy a routine with every task undone."`
	Activate  RoutineActivateCmd  `cmd:"" help:"Make a routine the active one."`
	Rename    RoutineRenameCmd    `cmd:"" help:"Rename a routine."`
	Recur     RoutineRecurCmd     `cmd:"" help:"Set how a routine repeats."`
	Template  RoutineTemplateCmd  `cmd:"" help:"Create a routine from a template."`
	Templates RoutineTemplatesCmd `cmd:"" help:"List the built-in templates."`
}

type RoutineListCmd struct{}

func (c *RoutineListCmd) Run(ctx *Context) error {
	bg := context.Background()
	active, all, err := ctx.Engine.LoadActiveRoutine(bg)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		ctx.println("No routines yet.")
		return nil
	}
	for i, r := range all {
		marker := " "
		if active != nil && active.ID == r.ID {
			marker = "*"
		}
		ctx.printf("%s %d. %s %s  %d/%d tasks  %d XP  [%s]  id=%s\n",
			marker, i+1, checkbox(r.Completed), r.Title, r.DoneCount(), len(r.Tasks), r.TotalPoints(), formatRecurrence(r), r.ID)
	}
	return nil
}

type RoutineAddCmd struct {
	Title string   `arg:"" help:"Routine title."`
	Tasks []string `short:"t" name:"task" help:"Task as 'title' or 'title:points'. Repeatable." required:""`
	Recur string   `help:"Recurrence: daily, weekly or none." default:"none"`
}

func (c *RoutineAddCmd) Run(ctx *Context) error {
	recurrence, err := validation.ParseRecurrence(c.Recur)
	if err != nil {
		return err
	}
	draft := routines.Draft{Title: c.Title, Recurrence: recurrence}
	for _, spec := range c.Tasks {
		title, points, err := parseTaskSpec(spec)
		if err != nil {
			return err
		}
		draft.Tasks = append(draft.Tasks, routines.TaskDraft{Title: title, Points: points})
	}

	r, err := ctx.Engine.Routines().Create(context.Background(), draft)
	if err != nil {
		return err
	}
	ctx.printf("✓ Created %q with %d task(s), %d XP (id %s)\n", r.Title, len(r.Tasks), r.TotalPoints(), r.ID)
	return nil
}

type RoutineDeleteCmd struct {
	Routine string `arg:"" help:"Routine id, position or title."`
}

func (c *RoutineDeleteCmd) Run(ctx *Context) error {
	bg := context.Background()
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	if err := ctx.Engine.DeleteRoutine(bg, r.ID); err != nil {
		return err
	}
	ctx.printf("✓ Deleted %q\n", r.Title)
	return nil
}

type RoutineDuplicateCmd struct {
	Routine string `arg:"" help:"Routine id, position or title."`
}

func (c *RoutineDuplicateCmd) Run(ctx *Context) error {
	bg := context.Background()
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	dup, err := ctx.Engine.Routines().Duplicate(bg, r.ID)
	if err != nil {
		return err
	}
	ctx.printf("✓ Created %q (id %s)\n", dup.Title, dup.ID)
	return nil
}

type RoutineActivateCmd struct {
	Routine string `arg:"" help:"Routine id, position or title."`
}

func (c *RoutineActivateCmd) Run(ctx *Context) error {
	bg := context.Background()
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	if err := ctx.Engine.SetActive(bg, r.ID); err != nil {
		return err
	}
	ctx.printf("Now on: %s\n", r.Title)
	return nil
}

type RoutineRenameCmd struct {
	Routine string `arg:"" help:"Routine id, position or title."`
	Title   string `arg:"" help:"New title."`
}

func (c *RoutineRenameCmd) Run(ctx *Context) error {
	bg := context.Background()
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	updated, err := ctx.Engine.Routines().Rename(bg, r.ID, c.Title)
	if err != nil {
		return err
	}
	ctx.printf("✓ Renamed %q to %q\n", r.Title, updated.Title)
	return nil
}

type RoutineRecurCmd struct {
	Routine    string `arg:"" help:"Routine id, position or title."`
	Recurrence string `arg:"" help:"daily, weekly or none."`
}

func (c *RoutineRecurCmd) Run(ctx *Context) error {
	bg := context.Background()
	recurrence, err := validation.ParseRecurrence(c.Recurrence)
	if err != nil {
		return err
	}
	r, err := ctx.resolveRoutine(bg, c.Routine)
	if err != nil {
		return err
	}
	updated, err := ctx.Engine.Routines().SetRecurrence(bg, r.ID, recurrence)
	if err != nil {
		return err
	}
	ctx.printf("✓ %q now repeats: %s\n", updated.Title, formatRecurrence(updated))
	return nil
}

type RoutineTemplateCmd struct {
	Template string `arg:"" help:"Template id (see 'routinely routine templates')."`
}

func (c *RoutineTemplateCmd) Run(ctx *Context) error {
	r, err := ctx.Engine.Routines().CreateFromTemplate(context.Background(), c.Template)
	if err != nil {
		return fmt.Errorf("%w (see 'routinely routine templates')", err)
	}
	ctx.printf("✓ Created %q with %d task(s), %d XP (id %s)\n", r.Title, len(r.Tasks), r.TotalPoints(), r.ID)
	return nil
}

type RoutineTemplatesCmd struct{}

func (c *RoutineTemplatesCmd) Run(ctx *Context) error {
	for _, t := range templates.All() {
		ctx.printf("%s %-8s %s (%d tasks, %d XP)\n", t.Icon, t.ID, t.Name, len(t.Tasks), t.TotalPoints())
		ctx.printf("           %s\n", t.Description)
	}
	return nil
}
