package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/routines"
)

func newRoutineForm(fm *RoutineFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Tasks").
				Description("One per line, as title or title:points").
				Value(&fm.Tasks).
				Validate(func(s string) error {
					_, err := parseTaskLines(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Repeats").
				Options(
					huh.NewOption("Once", string(constants.RecurrenceNone)),
					huh.NewOption("Daily", string(constants.RecurrenceDaily)),
					huh.NewOption("Weekly", string(constants.RecurrenceWeekly)),
				).
				Value(&fm.Recurrence),
		),
	)
}

// parseTaskLines turns the tasks text area into drafts, skipping blank lines.
func parseTaskLines(text string) ([]routines.TaskDraft, error) {
	var drafts []routines.TaskDraft
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		d, err := routines.ParseTaskDraft(line)
		if err != nil {
			return nil, err
		}
		if d.Title == "" {
			return nil, fmt.Errorf("task title cannot be empty")
		}
		if d.Points < 0 {
			return nil, fmt.Errorf("points cannot be negative")
		}
		drafts = append(drafts, d)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("add at least one task")
	}
	return drafts, nil
}

func (fm RoutineFormModel) draft() (routines.Draft, error) {
	tasks, err := parseTaskLines(fm.Tasks)
	if err != nil {
		return routines.Draft{}, err
	}
	return routines.Draft{
		Title:      strings.TrimSpace(fm.Title),
		Tasks:      tasks,
		Recurrence: constants.RecurrenceType(fm.Recurrence),
	}, nil
}
