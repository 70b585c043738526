package cli

import (
	"context"
	"errors"
	"os"

	"github.com/julianstephens/routinely/internal/config"
	"github.com/julianstephens/routinely/internal/constants"
)

type InitCmd struct {
	Force bool `help:"Re-run initialization on existing storage."`
}

func (c *InitCmd) Run(ctx *Context) error {
	bg := context.Background()
	if err := ctx.Store.Init(); err != nil {
		return err
	}

	seeded, err := ctx.Engine.Routines().EnsureDefaults(bg)
	if err != nil {
		return err
	}

	if err := ctx.seedProfile(bg); err != nil {
		return err
	}

	settingsPath, err := config.DefaultPath()
	if err == nil {
		if _, statErr := os.Stat(settingsPath); errors.Is(statErr, os.ErrNotExist) {
			if err := config.Save(settingsPath, ctx.Settings); err != nil {
				return err
			}
			ctx.printf("Wrote default settings to: %s\n", settingsPath)
		}
	}

	ctx.printf("Initialized routinely storage at: %s\n", ctx.Store.GetConfigPath())
	if seeded {
		ctx.println("Added a starter routine. Run 'routinely status' to see it.")
	}
	return nil
}

// seedProfile copies the pet and user names from settings into storage.
// Keys already present are kept so a rename made elsewhere survives init.
func (c *Context) seedProfile(ctx context.Context) error {
	profile := map[string]string{
		constants.KeyPetType:  c.Settings.PetType,
		constants.KeyPetName:  c.Settings.PetName,
		constants.KeyUserName: c.Settings.UserName,
	}
	for key, value := range profile {
		if value == "" {
			continue
		}
		_, ok, err := c.Store.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := c.Store.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
