package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/routinely/internal/storage/sqlite"
	"github.com/julianstephens/routinely/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name    string
	warning bool
	run     func(*Context) error
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	checks := []check{
		{name: "Storage reachable", run: checkStoreReachable},
		{name: "Schema version", run: checkSchemaVersion},
		{name: "Data validation", run: checkValidation},
		{name: "Backups present", warning: true, run: checkBackupsPresent},
		{name: "Clock/timezone", run: checkClockTimezone},
	}

	hasError := false
	reachable := true
	for _, c := range checks {
		if !reachable && c.name == "Data validation" {
			ctx.printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.printf("✓ %s: OK\n", c.name)
		case c.warning:
			ctx.printf("⚠ %s: WARNING\n", c.name)
			ctx.printf("   %v\n", err)
		default:
			ctx.printf("❌ %s: FAIL\n", c.name)
			ctx.printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Storage reachable" {
				reachable = false
			}
		}
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	if _, err := ctx.Store.Keys(context.Background()); err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	return nil
}

// checkSchemaVersion only applies to SQLite; PostgreSQL validates on Load.
func checkSchemaVersion(ctx *Context) error {
	s, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return nil
	}
	current, latest, err := s.SchemaVersions(context.Background())
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkValidation(ctx *Context) error {
	bg := context.Background()
	all, err := ctx.Engine.Routines().List(bg)
	if err != nil {
		return err
	}
	activeID, err := ctx.Engine.Routines().ActiveID(bg)
	if err != nil {
		return err
	}
	st, err := ctx.Engine.Streak(bg)
	if err != nil {
		return err
	}

	vr := validation.New().ValidateCollection(all, activeID, st)
	if vr.HasConflicts() {
		return fmt.Errorf("%d problem(s) found:\n%s", len(vr.Conflicts), vr.FormatReport())
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	backups, err := ctx.Backups.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'routinely backup create'")
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := ctx.Clock.OrSystem()()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Settings.Timezone != "" {
		if _, err := ctx.Settings.Clock(); err != nil {
			return err
		}
	}
	if now.Location() == time.UTC {
		ctx.println("   Note: timezone is UTC; days roll over at midnight UTC")
	}
	return nil
}
