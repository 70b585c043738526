package routines

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/templates"
	"github.com/julianstephens/routinely/internal/utils"
	"github.com/julianstephens/routinely/internal/validation"
)

const DefaultRoutineID = "default"

// TaskDraft is a task as entered by the user, before ids are assigned.
type TaskDraft struct {
	Title  string
	Points int
}

// Draft describes a routine to create.
type Draft struct {
	Title      string
	Tasks      []TaskDraft
	Recurrence constants.RecurrenceType
}

func defaultRoutine(createdAt int64) models.Routine {
	task := func(id, title string) models.Task {
		return models.Task{ID: id, Title: title, Points: constants.DefaultTaskPoints}
	}
	return models.Routine{
		ID:    DefaultRoutineID,
		Title: "Mega Routine",
		Tasks: []models.Task{
			task("wake", "Get out of bed"),
			task("wash", "Wash your face"),
			task("breakfast", "Have breakfast"),
			task("dress", "Get dressed"),
			task("work", "Work"),
		},
		CreatedAt: createdAt,
	}
}

// EnsureDefaults seeds the default routine and points the active routine
// at it when no collection has ever been stored. It reports whether it
// seeded anything.
func (s *Store) EnsureDefaults(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	seed := defaultRoutine(utils.ToMillis(s.now()))
	if err := s.save(ctx, []models.Routine{seed}); err != nil {
		return false, err
	}
	if err := s.setActiveID(ctx, seed.ID); err != nil {
		return false, err
	}
	logger.Info("Seeded default routine")
	return true, nil
}

// newRoutineID returns the creation time in epoch milliseconds, bumped
// past any id already in use.
func newRoutineID(routines []models.Routine, ms int64) (string, int64) {
	for {
		id := strconv.FormatInt(ms, 10)
		if indexOf(routines, id) < 0 {
			return id, ms
		}
		ms++
	}
}

func (s *Store) insert(ctx context.Context, build func(existing []models.Routine) models.Routine) (models.Routine, error) {
	var created models.Routine
	_, err := s.Mutate(ctx, func(routines []models.Routine) ([]models.Routine, error) {
		r := build(routines)
		r.RecomputeCompleted()
		if err := s.validator.ValidateRoutine(r); err != nil {
			return nil, err
		}
		created = r
		return append(routines, r), nil
	})
	if err != nil {
		return models.Routine{}, err
	}
	logger.Info("Routine created", "id", created.ID, "title", created.Title)
	return created, nil
}

// Create adds a new routine built from d.
func (s *Store) Create(ctx context.Context, d Draft) (models.Routine, error) {
	if len(d.Tasks) == 0 {
		return models.Routine{}, fmt.Errorf("%w: a routine needs at least one task", validation.ErrInvalidRoutine)
	}

	return s.insert(ctx, func(existing []models.Routine) models.Routine {
		id, ms := newRoutineID(existing, utils.ToMillis(s.now()))
		r := models.Routine{
			ID:            id,
			Title:         strings.TrimSpace(d.Title),
			Tasks:         make([]models.Task, len(d.Tasks)),
			CreatedAt:     ms,
			IsRecurring:   d.Recurrence != constants.RecurrenceNone,
			RecurringType: d.Recurrence,
		}
		for i, t := range d.Tasks {
			r.Tasks[i] = models.Task{
				ID:     uuid.NewString(),
				Title:  strings.TrimSpace(t.Title),
				Points: t.Points,
			}
		}
		return r
	})
}

// CreateFromTemplate adds a new routine from a built-in template.
func (s *Store) CreateFromTemplate(ctx context.Context, templateID string) (models.Routine, error) {
	tpl, err := templates.Get(templateID)
	if err != nil {
		return models.Routine{}, err
	}

	return s.insert(ctx, func(existing []models.Routine) models.Routine {
		_, ms := newRoutineID(existing, utils.ToMillis(s.now()))
		return tpl.Build(utils.FromMillis(ms, nil))
	})
}

// Duplicate copies a routine as "<title> (copy)" with every task undone.
func (s *Store) Duplicate(ctx context.Context, id string) (models.Routine, error) {
	var srcErr error
	created, err := s.insert(ctx, func(existing []models.Routine) models.Routine {
		i := indexOf(existing, id)
		if i < 0 {
			srcErr = fmt.Errorf("%w: %s", ErrRoutineNotFound, id)
			return models.Routine{}
		}
		newID, ms := newRoutineID(existing, utils.ToMillis(s.now()))

		r := existing[i].Clone()
		r.ID = newID
		r.Title = r.Title + " (copy)"
		r.CreatedAt = ms
		r.LastCompletedDate = nil
		for j := range r.Tasks {
			r.Tasks[j].ID = uuid.NewString()
		}
		r.ResetTasks()
		return r
	})
	if srcErr != nil {
		return models.Routine{}, srcErr
	}
	return created, err
}

// edit applies fn to one routine under the store lock. Completed routines
// are read-only; the completed flag is recomputed after fn.
func (s *Store) edit(ctx context.Context, id string, fn func(*models.Routine) error) (models.Routine, error) {
	var edited models.Routine
	_, err := s.Mutate(ctx, func(routines []models.Routine) ([]models.Routine, error) {
		i := indexOf(routines, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrRoutineNotFound, id)
		}
		r := &routines[i]
		if r.Completed {
			return nil, fmt.Errorf("%w: %q", ErrRoutineCompleted, r.Title)
		}
		if err := fn(r); err != nil {
			return nil, err
		}
		r.RecomputeCompleted()
		if err := s.validator.ValidateRoutine(*r); err != nil {
			return nil, err
		}
		edited = r.Clone()
		return routines, nil
	})
	return edited, err
}

func (s *Store) Rename(ctx context.Context, id, title string) (models.Routine, error) {
	return s.edit(ctx, id, func(r *models.Routine) error {
		r.Title = strings.TrimSpace(title)
		return nil
	})
}

// SetRecurrence changes the recurrence type; RecurrenceNone turns it off.
func (s *Store) SetRecurrence(ctx context.Context, id string, t constants.RecurrenceType) (models.Routine, error) {
	return s.edit(ctx, id, func(r *models.Routine) error {
		r.RecurringType = t
		r.IsRecurring = t != constants.RecurrenceNone
		return nil
	})
}

// AddTask appends a task and returns the updated routine.
func (s *Store) AddTask(ctx context.Context, id string, t TaskDraft) (models.Routine, error) {
	return s.edit(ctx, id, func(r *models.Routine) error {
		r.Tasks = append(r.Tasks, models.Task{
			ID:     uuid.NewString(),
			Title:  strings.TrimSpace(t.Title),
			Points: t.Points,
		})
		return nil
	})
}

// RemoveTask deletes a task. The last task of a routine cannot be removed.
func (s *Store) RemoveTask(ctx context.Context, id, taskID string) (models.Routine, error) {
	return s.edit(ctx, id, func(r *models.Routine) error {
		i := r.TaskIndex(taskID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		if len(r.Tasks) == 1 {
			return fmt.Errorf("%w: a routine needs at least one task", validation.ErrInvalidRoutine)
		}
		r.Tasks = append(r.Tasks[:i], r.Tasks[i+1:]...)
		return nil
	})
}

// MoveTask moves a task to index, clamped to the task list.
func (s *Store) MoveTask(ctx context.Context, id, taskID string, index int) (models.Routine, error) {
	return s.edit(ctx, id, func(r *models.Routine) error {
		from := r.TaskIndex(taskID)
		if from < 0 {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		if index < 0 {
			index = 0
		}
		if index >= len(r.Tasks) {
			index = len(r.Tasks) - 1
		}

		task := r.Tasks[from]
		tasks := append(r.Tasks[:from:from], r.Tasks[from+1:]...)
		tasks = append(tasks[:index], append([]models.Task{task}, tasks[index:]...)...)
		r.Tasks = tasks
		return nil
	})
}

// ParseTaskDraft reads "title" or "title:points". The last colon separates
// the points so titles may contain colons.
func ParseTaskDraft(spec string) (TaskDraft, error) {
	i := strings.LastIndex(spec, ":")
	if i < 0 {
		return TaskDraft{Title: strings.TrimSpace(spec), Points: constants.DefaultTaskPoints}, nil
	}
	points, err := strconv.Atoi(strings.TrimSpace(spec[i+1:]))
	if err != nil {
		return TaskDraft{}, fmt.Errorf("invalid points in %q: %w", spec, err)
	}
	return TaskDraft{Title: strings.TrimSpace(spec[:i]), Points: points}, nil
}
