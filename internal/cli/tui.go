package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/routinely/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	bg := context.Background()
	if _, err := ctx.Engine.Routines().EnsureDefaults(bg); err != nil {
		return err
	}
	ctx.PerformAutomaticBackup(bg)

	p := tea.NewProgram(tui.NewModel(ctx.Engine, ctx.Clock), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited: %w", err)
	}
	return nil
}
