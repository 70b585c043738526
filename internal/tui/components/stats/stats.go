package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginTop(1)

	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

const barWidth = 30

// Data is everything the stats screen shows.
type Data struct {
	Progress models.ProgressState
	Streak   models.StreakState
	Weekly   models.WeeklyStats
	Monthly  models.MonthlyStats
	History  []models.HistoryEntry
	Location *time.Location
}

type Model struct {
	viewport viewport.Model
	data     *Data
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.data == nil {
		return "No stats loaded."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetData(d Data) {
	m.data = &d
	m.Render()
}

// Content returns the rendered text independent of the viewport size.
func (m Model) Content() string {
	if m.data == nil {
		return ""
	}
	return render(*m.data)
}

func (m *Model) Render() {
	if m.data == nil {
		m.viewport.SetContent("No stats loaded.")
		return
	}
	m.viewport.SetContent(render(*m.data))
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// Bar draws value out of max as a fixed-width bar.
func Bar(value, max, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	filled := value * width / max
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func render(d Data) string {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Progress") + "\n")
	b.WriteString(row("Level", fmt.Sprintf("%d", d.Progress.Level())))
	b.WriteString(row("Total XP", fmt.Sprintf("%d", d.Progress.TotalXP)))
	b.WriteString(labelStyle.Render("Next level") +
		Bar(d.Progress.Progress(), constants.XPPerLevel, barWidth) +
		fmt.Sprintf(" %d/%d\n", d.Progress.Progress(), constants.XPPerLevel))

	b.WriteString(headingStyle.Render("Streak") + "\n")
	b.WriteString(row("Current", fmt.Sprintf("%d days", d.Streak.Current)))
	b.WriteString(row("Best", fmt.Sprintf("%d days", d.Streak.Best)))

	b.WriteString(headingStyle.Render("Last 7 days") + "\n")
	b.WriteString(row("Routines", fmt.Sprintf("%d", d.Weekly.RoutinesCompleted)))
	b.WriteString(row("XP", fmt.Sprintf("%d", d.Weekly.TotalXP)))
	best := 0
	for _, day := range d.Weekly.Days {
		if day.RoutinesCompleted > best {
			best = day.RoutinesCompleted
		}
	}
	for _, day := range d.Weekly.Days {
		b.WriteString(labelStyle.Render(day.Date) + Bar(day.RoutinesCompleted, best, barWidth/2) +
			fmt.Sprintf(" %d\n", day.RoutinesCompleted))
	}

	b.WriteString(headingStyle.Render("Last 30 days") + "\n")
	b.WriteString(row("Routines", fmt.Sprintf("%d", d.Monthly.RoutinesCompleted)))
	b.WriteString(row("XP", fmt.Sprintf("%d", d.Monthly.TotalXP)))
	b.WriteString(row("Per day", fmt.Sprintf("%.1f", d.Monthly.AveragePerDay)))

	b.WriteString(headingStyle.Render("Recent") + "\n")
	if len(d.History) == 0 {
		b.WriteString(mutedStyle.Render("Nothing completed yet.") + "\n")
	}
	for _, h := range d.History {
		when := utils.FromMillis(h.CompletedAt, loc).Format("2006-01-02 15:04")
		b.WriteString(labelStyle.Render(when) +
			fmt.Sprintf("%s  %d/%d  +%d XP\n", h.RoutineTitle, h.TasksCompleted, h.TotalTasks, h.XPEarned))
	}
	return b.String()
}
