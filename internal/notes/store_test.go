package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

// steppingClock advances one second per call so updatedAt values differ.
func steppingClock() func() time.Time {
	now := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func titles(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore(), steppingClock())

	first, err := s.Add(ctx, "Groceries", "milk")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if first.Color != constants.DefaultNoteColor || first.CreatedAt != first.UpdatedAt {
		t.Errorf("Add() = %+v", first)
	}
	if _, err := s.Add(ctx, "Ideas", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, "Books", ""); err != nil {
		t.Fatal(err)
	}

	notes, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := titles(notes), []string{"Books", "Ideas", "Groceries"}; !equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	if _, err := s.SetPinned(ctx, first.ID, true); err != nil {
		t.Fatalf("SetPinned() error = %v", err)
	}
	notes, _ = s.List(ctx)
	if got, want := titles(notes), []string{"Groceries", "Books", "Ideas"}; !equal(got, want) {
		t.Errorf("List() after pin = %v, want %v", got, want)
	}
}

func TestEditMovesToFront(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore(), steppingClock())

	a, _ := s.Add(ctx, "A", "")
	if _, err := s.Add(ctx, "B", ""); err != nil {
		t.Fatal(err)
	}

	content := "details"
	edited, err := s.Edit(ctx, a.ID, nil, &content)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if edited.Title != "A" || edited.Content != "details" || edited.UpdatedAt <= a.UpdatedAt {
		t.Errorf("Edit() = %+v", edited)
	}

	notes, _ := s.List(ctx)
	if got, want := titles(notes), []string{"A", "B"}; !equal(got, want) {
		t.Errorf("List() after edit = %v, want %v", got, want)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore(), steppingClock())

	if _, err := s.Add(ctx, "  ", ""); !errors.Is(err, ErrEmptyNote) {
		t.Errorf("Add(empty) error = %v, want %v", err, ErrEmptyNote)
	}
	if _, err := s.SetPinned(ctx, "missing", true); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("SetPinned(missing) error = %v, want %v", err, ErrNoteNotFound)
	}

	n, _ := s.Add(ctx, "Keep", "")
	empty := ""
	if _, err := s.Edit(ctx, n.ID, &empty, nil); !errors.Is(err, ErrEmptyNote) {
		t.Errorf("Edit() clearing everything error = %v, want %v", err, ErrEmptyNote)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := NewStore(kv, steppingClock())

	n, _ := s.Add(ctx, "Gone", "")
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if err := s.Delete(ctx, n.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	notes, _ := s.List(ctx)
	if len(notes) != 0 {
		t.Errorf("List() after delete = %v, want empty", notes)
	}
	if raw, _, _ := kv.Get(ctx, constants.KeyNotes); raw != "[]" {
		t.Errorf("stored notes = %q, want []", raw)
	}
}

func TestListReadsOriginalShape(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	raw := `[{"id":"1","title":"Old","content":"","createdAt":1,"updatedAt":1},` +
		`{"id":"2","title":"Pinned","content":"x","createdAt":2,"updatedAt":2,"color":"#f00","pinned":true}]`
	if err := kv.Set(ctx, constants.KeyNotes, raw); err != nil {
		t.Fatal(err)
	}

	notes, err := NewStore(kv, steppingClock()).List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := titles(notes), []string{"Pinned", "Old"}; !equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}
