package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "nested", "routinely.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreGetSetRemove(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if _, ok, err := store.Get(ctx, "USER_XP"); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v; want false, nil", ok, err)
	}

	if err := store.Set(ctx, "USER_XP", "10"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "USER_XP", "30"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, ok, err := store.Get(ctx, "USER_XP")
	if err != nil || !ok || got != "30" {
		t.Errorf("Get() = %q, %v, %v; want \"30\", true, nil", got, ok, err)
	}

	if err := store.Remove(ctx, "USER_XP"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, "USER_XP"); ok {
		t.Error("key still present after Remove()")
	}

	// Removing a missing key is not an error
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Errorf("Remove() missing key error = %v", err)
	}
}

func TestStoreKeys(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for _, k := range []string{"routines", "USER_XP", "achievements"} {
		if err := store.Set(ctx, k, "x"); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"USER_XP", "achievements", "routines"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "routinely.db")

	first := NewStore(path)
	if err := first.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := first.Set(ctx, "activeRoutineId", "1700000000000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := NewStore(path)
	if err := second.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer second.Close()

	got, ok, err := second.Get(ctx, "activeRoutineId")
	if err != nil || !ok || got != "1700000000000" {
		t.Errorf("Get() after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestLoadUninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Load() error = %v, want %v", err, ErrNotInitialized)
	}
	if _, _, err := store.Get(context.Background(), "k"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Get() before Load error = %v, want %v", err, ErrNotInitialized)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Init(); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
}
