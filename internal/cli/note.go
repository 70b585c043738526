package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/routinely/internal/models"
)

type NoteCmd struct {
	List   NoteListCmd   `cmd:"" help:"List notes, pinned first." default:"1"`
	Add    NoteAddCmd    `cmd:"" help:"Add a note."`
	Edit   NoteEditCmd   `cmd:"" help:"Change a note's title or content."`
	Delete NoteDeleteCmd `cmd:"" help:"Delete a note."`
	Pin    NotePinCmd    `cmd:"" help:"Pin a note to the top of the list."`
}

// findNote resolves ref as an id, a 1-based list position or a
// case-insensitive title.
func findNote(notes []models.Note, ref string) (models.Note, bool) {
	ref = strings.TrimSpace(ref)
	for _, n := range notes {
		if n.ID == ref {
			return n, true
		}
	}
	if i, err := strconv.Atoi(ref); err == nil && i >= 1 && i <= len(notes) {
		return notes[i-1], true
	}
	for _, n := range notes {
		if strings.EqualFold(n.Title, ref) {
			return n, true
		}
	}
	return models.Note{}, false
}

func (c *Context) resolveNote(ctx context.Context, ref string) (models.Note, error) {
	all, err := c.Notes.List(ctx)
	if err != nil {
		return models.Note{}, err
	}
	n, ok := findNote(all, ref)
	if !ok {
		return models.Note{}, fmt.Errorf("no note matches %q", ref)
	}
	return n, nil
}

type NoteListCmd struct{}

func (c *NoteListCmd) Run(ctx *Context) error {
	all, err := ctx.Notes.List(context.Background())
	if err != nil {
		return err
	}
	if len(all) == 0 {
		ctx.println("No notes yet.")
		return nil
	}
	for i, n := range all {
		pin := " "
		if n.Pinned {
			pin = "📌"
		}
		ctx.printf("%s %d. %s  id=%s\n", pin, i+1, n.Title, n.ID)
		if n.Content != "" {
			ctx.printf("     %s\n", strings.ReplaceAll(n.Content, "\n", "\n     "))
		}
	}
	return nil
}

type NoteAddCmd struct {
	Title   string `arg:"" help:"Note title."`
	Content string `arg:"" optional:"" help:"Note body."`
}

func (c *NoteAddCmd) Run(ctx *Context) error {
	n, err := ctx.Notes.Add(context.Background(), c.Title, c.Content)
	if err != nil {
		return err
	}
	ctx.printf("✓ Added note %q (id %s)\n", n.Title, n.ID)
	return nil
}

type NoteEditCmd struct {
	Note    string  `arg:"" help:"Note id, position or title."`
	Title   *string `help:"New title."`
	Content *string `help:"New content."`
}

func (c *NoteEditCmd) Run(ctx *Context) error {
	if c.Title == nil && c.Content == nil {
		return fmt.Errorf("nothing to change, pass --title or --content")
	}
	bg := context.Background()
	n, err := ctx.resolveNote(bg, c.Note)
	if err != nil {
		return err
	}
	updated, err := ctx.Notes.Edit(bg, n.ID, c.Title, c.Content)
	if err != nil {
		return err
	}
	ctx.printf("✓ Updated note %q\n", updated.Title)
	return nil
}

type NoteDeleteCmd struct {
	Note string `arg:"" help:"Note id, position or title."`
}

func (c *NoteDeleteCmd) Run(ctx *Context) error {
	bg := context.Background()
	n, err := ctx.resolveNote(bg, c.Note)
	if err != nil {
		return err
	}
	if err := ctx.Notes.Delete(bg, n.ID); err != nil {
		return err
	}
	ctx.printf("✓ Deleted note %q\n", n.Title)
	return nil
}

type NotePinCmd struct {
	Note string `arg:"" help:"Note id, position or title."`
	Off  bool   `help:"Unpin instead."`
}

func (c *NotePinCmd) Run(ctx *Context) error {
	bg := context.Background()
	n, err := ctx.resolveNote(bg, c.Note)
	if err != nil {
		return err
	}
	if _, err := ctx.Notes.SetPinned(bg, n.ID, !c.Off); err != nil {
		return err
	}
	if c.Off {
		ctx.printf("✓ Unpinned %q\n", n.Title)
	} else {
		ctx.printf("✓ Pinned %q\n", n.Title)
	}
	return nil
}
