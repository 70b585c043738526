package engine

import (
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

// ResetDue reports whether a completed recurring routine should start over
// at now. Daily routines reset on a new calendar day; weekly routines once
// seven whole days have passed since the last completion. A routine that
// was never completed before is always due.
func ResetDue(r models.Routine, now time.Time) bool {
	if r.LastCompletedDate == nil {
		return true
	}
	last := *r.LastCompletedDate

	switch r.RecurringType {
	case constants.RecurrenceDaily:
		return !utils.SameDay(now, utils.FromMillis(last, now.Location()))
	case constants.RecurrenceWeekly:
		return utils.WholeDaysBetween(last, utils.ToMillis(now)) >= constants.WeeklyResetDays
	}
	return false
}

// ApplyRecurrence stamps the completion time on r and, when a reset is due,
// marks every task undone. It reports whether the routine was reset.
func ApplyRecurrence(r *models.Routine, now time.Time) bool {
	due := ResetDue(*r, now)
	if due {
		r.ResetTasks()
	}
	ms := utils.ToMillis(now)
	r.LastCompletedDate = &ms
	return due
}
