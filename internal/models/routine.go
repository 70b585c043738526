package models

import (
	"strconv"

	"github.com/julianstephens/routinely/internal/constants"
)

type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Points int    `json:"points"`
	Done   bool   `json:"done"`
}

type Routine struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Tasks             []Task                   `json:"tasks"`
	Completed         bool                     `json:"completed"`
	CreatedAt         int64                    `json:"createdAt,omitempty"`
	IsRecurring       bool                     `json:"isRecurring"`
	RecurringType     constants.RecurrenceType `json:"recurringType"`
	LastCompletedDate *int64                   `json:"lastCompletedDate"` // epoch ms
}

// SortKey is the creation timestamp used to order the collection. Routines
// written before createdAt existed fall back to their timestamp id.
func (r Routine) SortKey() int64 {
	if r.CreatedAt != 0 {
		return r.CreatedAt
	}
	if n, err := strconv.ParseInt(r.ID, 10, 64); err == nil {
		return n
	}
	return 0
}

// TaskIndex returns the position of the task with the given id, or -1.
func (r Routine) TaskIndex(taskID string) int {
	for i, t := range r.Tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

// AllDone reports whether every task is done. An empty routine is vacuously done.
func (r Routine) AllDone() bool {
	for _, t := range r.Tasks {
		if !t.Done {
			return false
		}
	}
	return true
}

// RecomputeCompleted re-derives Completed from the task list.
func (r *Routine) RecomputeCompleted() {
	r.Completed = r.AllDone()
}

// SetTaskDone sets the done flag of one task and recomputes Completed.
// It reports whether the task exists.
func (r *Routine) SetTaskDone(taskID string, done bool) bool {
	i := r.TaskIndex(taskID)
	if i < 0 {
		return false
	}
	r.Tasks[i].Done = done
	r.RecomputeCompleted()
	return true
}

// ToggleTask flips the done flag of one task and recomputes Completed.
// It returns the task after the flip and whether it was found.
func (r *Routine) ToggleTask(taskID string) (Task, bool) {
	i := r.TaskIndex(taskID)
	if i < 0 {
		return Task{}, false
	}
	r.SetTaskDone(taskID, !r.Tasks[i].Done)
	return r.Tasks[i], true
}

// ResetTasks marks every task undone.
func (r *Routine) ResetTasks() {
	for i := range r.Tasks {
		r.Tasks[i].Done = false
	}
	r.RecomputeCompleted()
}

// DoneCount returns the number of done tasks.
func (r Routine) DoneCount() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Done {
			n++
		}
	}
	return n
}

// EarnedPoints sums the points of done tasks.
func (r Routine) EarnedPoints() int {
	sum := 0
	for _, t := range r.Tasks {
		if t.Done {
			sum += t.Points
		}
	}
	return sum
}

// TotalPoints sums the points of every task.
func (r Routine) TotalPoints() int {
	sum := 0
	for _, t := range r.Tasks {
		sum += t.Points
	}
	return sum
}

// ProgressPercent is the rounded share of done tasks, 0 for an empty routine.
func (r Routine) ProgressPercent() int {
	if len(r.Tasks) == 0 {
		return 0
	}
	return (r.DoneCount()*100 + len(r.Tasks)/2) / len(r.Tasks)
}

// Clone returns a deep copy so callers can mutate tasks without aliasing.
func (r Routine) Clone() Routine {
	c := r
	c.Tasks = append([]Task(nil), r.Tasks...)
	if r.LastCompletedDate != nil {
		v := *r.LastCompletedDate
		c.LastCompletedDate = &v
	}
	return c
}
