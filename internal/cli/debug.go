package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

type DebugCmd struct {
	DBPath *DebugDBPathCmd `cmd:"" help:"Show storage location."`
	Keys   *DebugKeysCmd   `cmd:"" help:"List stored keys."`
	Dump   *DebugDumpCmd   `cmd:"" help:"Dump a stored value."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugKeysCmd struct{}

func (cmd *DebugKeysCmd) Run(ctx *Context) error {
	keys, err := ctx.Store.Keys(context.Background())
	if err != nil {
		return err
	}
	return printJSON(ctx, keys)
}

type DebugDumpCmd struct {
	Key string `arg:"" help:"Key to dump, e.g. routines or achievements."`
}

func (cmd *DebugDumpCmd) Run(ctx *Context) error {
	raw, ok, err := ctx.Store.Get(context.Background(), cmd.Key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key not found: %s", cmd.Key)
	}

	// structured values are re-indented; plain strings are printed as-is
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		ctx.println(raw)
		return nil
	}
	return printJSON(ctx, v)
}

func printJSON(ctx *Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.println(string(jsonBytes))
	return nil
}
