package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/config"
	"github.com/julianstephens/routinely/internal/constants"
	apperrors "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/storage"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Database path, PostgreSQL connection string, 'keyring' or ':memory:'. PostgreSQL credentials must NOT be embedded in the connection string; use the OS keyring, the ROUTINELY_DB_CONNECTION environment variable or .pgpass." type:"string" default:"~/.config/routinely/routinely.db"`
	Settings string `help:"Settings file path (defaults to the user config directory)." type:"path"`
	Verbose  bool   `help:"Log debug output to stderr." short:"v"`

	Init         cli.InitCmd         `cmd:"" help:"Initialize routinely storage."`
	Tui          cli.TuiCmd          `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Status       cli.StatusCmd       `cmd:"" help:"Show the active routine and progress."`
	Toggle       cli.ToggleCmd       `cmd:"" help:"Toggle a task of the active routine."`
	Next         cli.NextCmd         `cmd:"" help:"Move to the next incomplete routine."`
	Prev         cli.PrevCmd         `cmd:"" help:"Move to the previous incomplete routine."`
	Routine      cli.RoutineCmd      `cmd:"" help:"Manage routines."`
	Task         cli.TaskCmd         `cmd:"" help:"Manage the tasks of a routine."`
	Achievements cli.AchievementsCmd `cmd:"" help:"List achievements."`
	Stats        cli.StatsCmd        `cmd:"" help:"Show weekly and monthly statistics."`
	Note         cli.NoteCmd         `cmd:"" help:"Keep free-form notes."`
	History      cli.HistoryCmd      `cmd:"" help:"Show recently completed routines."`
	Backup       cli.BackupCmd       `cmd:"" help:"Manage backups."`
	Doctor       cli.DoctorCmd       `cmd:"" help:"Run health checks and diagnostics."`
	Keyring      cli.KeyringCmd      `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Debug        cli.DebugCmd        `cmd:"" hidden:"" help:"Debug commands for troubleshooting."`
}

// Commands that manage storage themselves and must not require it to exist.
var skipLoad = map[string]bool{
	"init":    true,
	"keyring": true,
	"doctor":  true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Routine and habit tracker with XP, streaks and achievements"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	settingsPath := CLI.Settings
	if settingsPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			apperrors.Fatal(err)
		}
		settingsPath = p
	}

	if err := logger.Init(logger.Config{Debug: CLI.Verbose, ConfigDir: filepath.Dir(settingsPath)}); err != nil {
		apperrors.Fatalf("failed to initialize logger: %v", err)
	}

	settings, err := config.Load(settingsPath)
	if err != nil {
		apperrors.Fatal(err)
	}

	store, err := storage.Open(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	command := strings.Fields(ctx.Command())
	if len(command) > 0 && !skipLoad[command[0]] {
		if err := store.Load(); err != nil {
			if errors.Is(err, storage.ErrNotInitialized) {
				err = fmt.Errorf("%w: run '%s init' first", err, constants.AppName)
			}
			store.Close()
			apperrors.Fatal(err)
		}
	}

	appCtx, err := cli.NewContext(store, settings, nil)
	if err != nil {
		store.Close()
		apperrors.Fatal(err)
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}
