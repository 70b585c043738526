package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/tui/components/stats"
)

var tabTitles = []string{"Today", "Routines", "Stats", "Achievements"}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateRoutines:
		content = docStyle.Render(m.viewRoutines())
	case StateStats:
		content = docStyle.Render(m.statsModel.View())
	case StateAchievements:
		content = docStyle.Render(m.viewAchievements())
	case StateAddRoutine:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	parts := []string{m.viewTabs(), content}
	if m.loadErr != nil {
		parts = append(parts, dangerStyle.Render("⚠ "+m.loadErr.Error()))
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	current := m.state
	if current >= tabCount {
		current = m.previousState
	}
	var tabs []string
	for i, title := range tabTitles {
		if current == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func recurrenceLabel(r models.Routine) string {
	if !r.IsRecurring {
		return "once"
	}
	return string(r.RecurringType)
}

func (m Model) viewToday() string {
	var b strings.Builder
	p := m.view.Progress
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Level %d  %s %d/%d XP  🔥 %d day streak",
		p.Level(), stats.Bar(p.Progress(), constants.XPPerLevel, 20), p.Progress(), constants.XPPerLevel, m.view.Streak.Current)))
	b.WriteString("\n\n")

	if r := m.view.Active; r != nil {
		b.WriteString(titleStyle.Render(r.Title))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d tasks  %d%%  %s",
			r.DoneCount(), len(r.Tasks), r.ProgressPercent(), recurrenceLabel(*r))))
		if r.Completed {
			b.WriteString("  " + statusStyle.Render("done"))
		}
		b.WriteString("\n")
	}

	return docStyle.Render(b.String() + m.taskList.View())
}

func (m Model) viewRoutines() string {
	if len(m.view.Routines) == 0 {
		return "No routines yet.\nPress 'a' to add one."
	}

	activeID := ""
	if m.view.Active != nil {
		activeID = m.view.Active.ID
	}

	var b strings.Builder
	for i, r := range m.view.Routines {
		marker := "  "
		if r.ID == activeID {
			marker = "▶ "
		}
		state := fmt.Sprintf("%d/%d", r.DoneCount(), len(r.Tasks))
		if r.Completed {
			state = "done"
		}
		line := fmt.Sprintf("%s%-28s %-6s %s", marker, r.Title, state, recurrenceLabel(r))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) viewAchievements() string {
	if len(m.achievements) == 0 {
		return "No achievements loaded."
	}

	unlocked := 0
	var b strings.Builder
	for _, a := range m.achievements {
		line := fmt.Sprintf("%s %s  %s", a.Icon, a.Title, a.Description)
		if a.Unlocked {
			unlocked++
			b.WriteString(titleStyle.Render(line) + "\n")
		} else {
			b.WriteString(mutedStyle.Render("🔒 "+a.Title+"  "+a.Description) + "\n")
		}
	}
	header := warningStyle.Render(fmt.Sprintf("%d/%d unlocked", unlocked, len(m.achievements)))
	return header + "\n\n" + b.String()
}

func (m Model) viewConfirmDelete() string {
	title := m.routineToDeleteID
	for _, r := range m.view.Routines {
		if r.ID == m.routineToDeleteID {
			title = r.Title
		}
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete routine %q?", title)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
