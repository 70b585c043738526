package templates

import (
	"errors"
	"testing"
	"time"
)

func TestCatalog(t *testing.T) {
	want := []string{"morning", "evening", "workout", "study", "work"}
	all := All()
	if len(all) != len(want) {
		t.Fatalf("len(All()) = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("All()[%d].ID = %q, want %q", i, all[i].ID, id)
		}
		if len(all[i].Tasks) == 0 {
			t.Errorf("template %q has no tasks", id)
		}
	}

	// Mutating the returned slice must not leak into the catalog
	all[0].Tasks[0].Points = 999
	if All()[0].Tasks[0].Points == 999 {
		t.Error("All() returned aliased task slices")
	}
}

func TestGet(t *testing.T) {
	tpl, err := Get("workout")
	if err != nil {
		t.Fatalf("Get(workout) error = %v", err)
	}
	if tpl.TotalPoints() != 65 {
		t.Errorf("workout TotalPoints() = %d, want 65", tpl.TotalPoints())
	}

	if _, err := Get("nap"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Get(nap) error = %v, want %v", err, ErrTemplateNotFound)
	}
}

func TestBuild(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tpl, _ := Get("study")

	r := tpl.Build(now)
	if r.ID != "1700000000123" || r.CreatedAt != 1700000000123 {
		t.Errorf("Build() id/createdAt = %s/%d", r.ID, r.CreatedAt)
	}
	if r.Title != "Study Routine" {
		t.Errorf("Build() title = %q", r.Title)
	}
	if len(r.Tasks) != 4 || r.Tasks[2].ID != "1700000000123-2" {
		t.Errorf("Build() tasks = %+v", r.Tasks)
	}
	if r.Completed {
		t.Error("Build() returned a completed routine")
	}
	for _, task := range r.Tasks {
		if task.Done {
			t.Errorf("task %q is done", task.Title)
		}
	}
}
