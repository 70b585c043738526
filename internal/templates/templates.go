// Package templates holds the built-in routine templates.
package templates

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

var ErrTemplateNotFound = errors.New("template not found")

type TaskSpec struct {
	Title  string
	Points int
}

type Template struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Tasks       []TaskSpec
}

// TotalPoints is the XP a full run of the template is worth.
func (t Template) TotalPoints() int {
	sum := 0
	for _, task := range t.Tasks {
		sum += task.Points
	}
	return sum
}

var builtin = []Template{
	{
		ID:          "morning",
		Name:        "Morning Routine",
		Description: "Start your day with energy",
		Icon:        "🌅",
		Tasks: []TaskSpec{
			{"Get out of bed", 10},
			{"Drink a glass of water", 5},
			{"Exercise", 20},
			{"Shower", 10},
			{"Have breakfast", 15},
		},
	},
	{
		ID:          "evening",
		Name:        "Evening Routine",
		Description: "Get your body ready to rest",
		Icon:        "🌙",
		Tasks: []TaskSpec{
			{"Have dinner", 15},
			{"Brush your teeth", 10},
			{"Read a book", 20},
			{"Meditate", 25},
			{"Lay out tomorrow's clothes", 10},
		},
	},
	{
		ID:          "workout",
		Name:        "Workout Routine",
		Description: "Keep your body active",
		Icon:        "💪",
		Tasks: []TaskSpec{
			{"Warm up", 10},
			{"Main workout", 30},
			{"Stretch", 15},
			{"Hydrate", 10},
		},
	},
	{
		ID:          "study",
		Name:        "Study Routine",
		Description: "Improve how you learn",
		Icon:        "📚",
		Tasks: []TaskSpec{
			{"Organize material", 10},
			{"Read a chapter", 20},
			{"Take notes", 15},
			{"Review", 20},
		},
	},
	{
		ID:          "work",
		Name:        "Work Routine",
		Description: "Maximize your productivity",
		Icon:        "💼",
		Tasks: []TaskSpec{
			{"Check email", 10},
			{"Plan the day", 15},
			{"Important tasks", 30},
			{"Meetings", 20},
		},
	},
}

// All returns the built-in templates in display order.
func All() []Template {
	out := make([]Template, len(builtin))
	for i, t := range builtin {
		t.Tasks = append([]TaskSpec(nil), t.Tasks...)
		out[i] = t
	}
	return out
}

func Get(id string) (Template, error) {
	for _, t := range All() {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
}

// Build instantiates a template as a new, undone routine created at now.
// The routine id is the creation time in epoch milliseconds and task ids
// are "<ms>-<index>".
func (t Template) Build(now time.Time) models.Routine {
	ms := utils.ToMillis(now)
	id := strconv.FormatInt(ms, 10)

	r := models.Routine{
		ID:        id,
		Title:     t.Name,
		Tasks:     make([]models.Task, len(t.Tasks)),
		CreatedAt: ms,
	}
	for i, spec := range t.Tasks {
		r.Tasks[i] = models.Task{
			ID:     fmt.Sprintf("%s-%d", id, i),
			Title:  spec.Title,
			Points: spec.Points,
		}
	}
	r.RecomputeCompleted()
	return r
}
