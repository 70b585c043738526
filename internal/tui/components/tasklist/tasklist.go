package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/routinely/internal/models"
)

type ToggleTaskMsg struct {
	RoutineID string
	TaskID    string
}

type Item struct {
	Task models.Task
}

func (i Item) Title() string {
	if i.Task.Done {
		return "[x] " + i.Task.Title
	}
	return "[ ] " + i.Task.Title
}

func (i Item) Description() string {
	return fmt.Sprintf("+%d XP", i.Task.Points)
}

func (i Item) FilterValue() string { return i.Task.Title }

type KeyMap struct {
	Toggle key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("enter", " ", "space", "x"),
			key.WithHelp("enter/space", "toggle task"),
		),
	}
}

type Model struct {
	list      list.Model
	keys      KeyMap
	routineID string
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the parent model
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}

	return Model{list: l, keys: keys}
}

// SetRoutine replaces the listed tasks. The cursor position survives a
// refresh of the same routine.
func (m *Model) SetRoutine(r *models.Routine) {
	if r == nil {
		m.routineID = ""
		m.list.SetItems(nil)
		return
	}
	if r.ID != m.routineID {
		m.list.ResetSelected()
	}
	m.routineID = r.ID
	items := make([]list.Item, len(r.Tasks))
	for i, t := range r.Tasks {
		items[i] = Item{Task: t}
	}
	m.list.SetItems(items)
}

func (m Model) RoutineID() string {
	return m.routineID
}

// Selected returns the task under the cursor.
func (m Model) Selected() (models.Task, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Task{}, false
	}
	return i.Task, true
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Toggle) {
		if t, ok := m.Selected(); ok && m.routineID != "" {
			routineID := m.routineID
			return m, func() tea.Msg { return ToggleTaskMsg{RoutineID: routineID, TaskID: t.ID} }
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.routineID == "" {
		return "\n  No routine selected.\n  Switch to Routines and press 'a' to add one."
	}
	if len(m.list.Items()) == 0 {
		return "\n  This routine has no tasks."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
