package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/julianstephens/routinely/internal/backup"
	"github.com/julianstephens/routinely/internal/config"
	"github.com/julianstephens/routinely/internal/engine"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/notes"
	"github.com/julianstephens/routinely/internal/notifier"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

type Context struct {
	Store    storage.Provider
	Engine   *engine.Engine
	Settings config.Settings
	Backups  *backup.Manager
	Notes    *notes.Store
	Clock    utils.Clock

	// Out and In default to stdout and stdin
	Out io.Writer
	In  io.Reader
}

// NewContext wires the engine and backup manager for store. A nil clock
// uses wall time in the configured timezone.
func NewContext(store storage.Provider, settings config.Settings, clock utils.Clock) (*Context, error) {
	if clock == nil {
		c, err := settings.Clock()
		if err != nil {
			return nil, err
		}
		clock = c
	}

	opts := []engine.Option{engine.WithClock(clock)}
	if settings.Notifications {
		opts = append(opts, engine.WithNotifier(notifier.New()))
	}

	backupDir, err := backup.DefaultDir(store.GetConfigPath())
	if err != nil {
		return nil, err
	}

	return &Context{
		Store:    store,
		Engine:   engine.New(store, opts...),
		Settings: settings,
		Backups:  backup.NewManager(store, backupDir, settings.MaxBackups, clock),
		Notes:    notes.NewStore(store, clock),
		Clock:    clock,
		Out:      os.Stdout,
		In:       os.Stdin,
	}, nil
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) in() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

// PerformAutomaticBackup creates a backup when auto_backup is on and
// swallows failures.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	if !c.Settings.AutoBackup || c.Backups == nil {
		return
	}
	if _, err := c.Backups.CreateBackup(ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// findRoutine resolves ref as an id, a 1-based list position or a
// case-insensitive title, in that order.
func findRoutine(routines []models.Routine, ref string) (models.Routine, bool) {
	ref = strings.TrimSpace(ref)
	for _, r := range routines {
		if r.ID == ref {
			return r, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(routines) {
		return routines[n-1], true
	}
	for _, r := range routines {
		if strings.EqualFold(r.Title, ref) {
			return r, true
		}
	}
	return models.Routine{}, false
}

// findTask resolves ref against r's tasks the same way findRoutine does.
func findTask(r models.Routine, ref string) (models.Task, bool) {
	ref = strings.TrimSpace(ref)
	for _, t := range r.Tasks {
		if t.ID == ref {
			return t, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(r.Tasks) {
		return r.Tasks[n-1], true
	}
	for _, t := range r.Tasks {
		if strings.EqualFold(t.Title, ref) {
			return t, true
		}
	}
	return models.Task{}, false
}

// resolveRoutine finds ref in the stored collection, or the active routine
// when ref is empty.
func (c *Context) resolveRoutine(ctx context.Context, ref string) (models.Routine, error) {
	if ref == "" {
		active, _, err := c.Engine.LoadActiveRoutine(ctx)
		if err != nil {
			return models.Routine{}, err
		}
		if active == nil {
			return models.Routine{}, fmt.Errorf("no routines yet, create one with 'routinely routine add'")
		}
		return *active, nil
	}
	all, err := c.Engine.Routines().List(ctx)
	if err != nil {
		return models.Routine{}, err
	}
	r, ok := findRoutine(all, ref)
	if !ok {
		return models.Routine{}, fmt.Errorf("no routine matches %q", ref)
	}
	return r, nil
}

// parseTaskSpec reads "title" or "title:points".
func parseTaskSpec(spec string) (string, int, error) {
	d, err := routines.ParseTaskDraft(spec)
	if err != nil {
		return "", 0, err
	}
	return d.Title, d.Points, nil
}

func formatRecurrence(r models.Routine) string {
	if !r.IsRecurring {
		return "once"
	}
	return string(r.RecurringType)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// progressBar renders a fixed-width bar for value out of max.
func progressBar(value, max, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	if value > max {
		value = max
	}
	if value < 0 {
		value = 0
	}
	filled := value * width / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
