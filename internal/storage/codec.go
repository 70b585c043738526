package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/routinely/internal/logger"
)

// GetInt reads a stringified integer. Missing or malformed values read as 0;
// only store failures are returned.
func GetInt(ctx context.Context, kv KeyValueStore, key string) (int, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn("Ignoring malformed integer value", "key", key, "value", raw)
		return 0, nil
	}
	return n, nil
}

func SetInt(ctx context.Context, kv KeyValueStore, key string, n int) error {
	if err := kv.Set(ctx, key, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// GetString reads a raw string value. A missing key reads as "".
func GetString(ctx context.Context, kv KeyValueStore, key string) (string, error) {
	raw, _, err := kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return raw, nil
}

// GetJSON decodes a JSON value into v and reports whether usable data was
// found. Malformed JSON is logged and treated like a missing key.
func GetJSON(ctx context.Context, kv KeyValueStore, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logger.Warn("Ignoring malformed stored JSON", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, kv KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
