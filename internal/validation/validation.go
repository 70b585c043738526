package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
)

// ErrInvalidRoutine wraps every authoring rejection.
var ErrInvalidRoutine = errors.New("invalid routine")

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictEmptyTitle          ConflictType = "empty_title"
	ConflictNegativePoints      ConflictType = "negative_points"
	ConflictDuplicateTaskID     ConflictType = "duplicate_task_id"
	ConflictDuplicateRoutineID  ConflictType = "duplicate_routine_id"
	ConflictInvalidRecurrence   ConflictType = "invalid_recurrence"
	ConflictCompletedMismatch   ConflictType = "completed_mismatch"
	ConflictDanglingActive      ConflictType = "dangling_active_routine"
	ConflictStreakExceedsBest   ConflictType = "streak_exceeds_best"
	ConflictInvalidCompletionDt ConflictType = "invalid_completion_date"
)

// Conflict represents a detected problem in stored routine data
type Conflict struct {
	Type        ConflictType
	Description string
	RoutineID   string // empty for collection-wide conflicts
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

func (vr *ValidationResult) add(t ConflictType, routineID, format string, args ...any) {
	vr.Conflicts = append(vr.Conflicts, Conflict{
		Type:        t,
		Description: fmt.Sprintf(format, args...),
		RoutineID:   routineID,
	})
}

// Validator checks routines before they are written and audits what is
// already stored.
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidRecurrence reports whether t is a known recurrence type.
func ValidRecurrence(t constants.RecurrenceType) bool {
	switch t {
	case constants.RecurrenceNone, constants.RecurrenceDaily, constants.RecurrenceWeekly:
		return true
	}
	return false
}

// ParseRecurrence maps user input to a recurrence type. "none" and ""
// both clear recurrence.
func ParseRecurrence(s string) (constants.RecurrenceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return constants.RecurrenceNone, nil
	case string(constants.RecurrenceDaily):
		return constants.RecurrenceDaily, nil
	case string(constants.RecurrenceWeekly):
		return constants.RecurrenceWeekly, nil
	}
	return constants.RecurrenceNone, fmt.Errorf("%w: unknown recurrence %q (want daily, weekly or none)", ErrInvalidRoutine, s)
}

// checkRoutine records the authoring problems of a single routine.
func (v *Validator) checkRoutine(vr *ValidationResult, r models.Routine) {
	if strings.TrimSpace(r.Title) == "" {
		vr.add(ConflictEmptyTitle, r.ID, "routine %q has an empty title", r.ID)
	}

	seen := make(map[string]bool, len(r.Tasks))
	for i, t := range r.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			vr.add(ConflictEmptyTitle, r.ID, "task %d of %q has an empty title", i+1, r.Title)
		}
		if t.Points < 0 {
			vr.add(ConflictNegativePoints, r.ID, "task %q of %q has negative points (%d)", t.Title, r.Title, t.Points)
		}
		if seen[t.ID] {
			vr.add(ConflictDuplicateTaskID, r.ID, "routine %q has duplicate task id %q", r.Title, t.ID)
		}
		seen[t.ID] = true
	}

	if !ValidRecurrence(r.RecurringType) {
		vr.add(ConflictInvalidRecurrence, r.ID, "routine %q has unknown recurrence %q", r.Title, r.RecurringType)
	}
	if r.IsRecurring && r.RecurringType == constants.RecurrenceNone {
		vr.add(ConflictInvalidRecurrence, r.ID, "routine %q is recurring without a recurrence type", r.Title)
	}
}

// ValidateRoutine returns the first authoring problem of r, wrapped in
// ErrInvalidRoutine, or nil.
func (v *Validator) ValidateRoutine(r models.Routine) error {
	var vr ValidationResult
	v.checkRoutine(&vr, r)
	if vr.HasConflicts() {
		return fmt.Errorf("%w: %s", ErrInvalidRoutine, vr.Conflicts[0].Description)
	}
	return nil
}

// ValidateCollection audits stored data: per-routine authoring rules, the
// completed flag, routine id uniqueness, the active pointer and streak state.
func (v *Validator) ValidateCollection(routines []models.Routine, activeID string, streak models.StreakState) ValidationResult {
	var vr ValidationResult

	ids := make(map[string]bool, len(routines))
	for _, r := range routines {
		v.checkRoutine(&vr, r)

		if r.Completed != r.AllDone() {
			vr.add(ConflictCompletedMismatch, r.ID, "routine %q is marked completed=%v but %d/%d tasks are done", r.Title, r.Completed, r.DoneCount(), len(r.Tasks))
		}
		if ids[r.ID] {
			vr.add(ConflictDuplicateRoutineID, r.ID, "routine id %q is used more than once", r.ID)
		}
		ids[r.ID] = true
	}

	if activeID != "" && !ids[activeID] {
		vr.add(ConflictDanglingActive, "", "active routine %q does not exist", activeID)
	}

	if streak.Best < streak.Current {
		vr.add(ConflictStreakExceedsBest, "", "current streak %d exceeds best streak %d", streak.Current, streak.Best)
	}
	if streak.LastCompletionDate != "" {
		if _, err := parseDate(streak.LastCompletionDate); err != nil {
			vr.add(ConflictInvalidCompletionDt, "", "last completion date %q is not YYYY-MM-DD", streak.LastCompletionDate)
		}
	}

	return vr
}
