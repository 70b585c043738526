package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/tui/components/tasklist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// tabs, header, status and help take roughly eight rows
		m.taskList.SetSize(msg.Width-4, msg.Height-10)
		m.statsModel.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tasklist.ToggleTaskMsg:
		m.toggle(msg)
		return m, nil
	}

	switch m.state {
	case StateAddRoutine:
		return m.updateForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.switchTab((m.state + 1) % tabCount)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.switchTab((m.state - 1 + tabCount) % tabCount)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.reload()
			m.status = ""
			return m, nil
		}
	}

	switch m.state {
	case StateToday:
		return m.updateToday(msg)
	case StateRoutines:
		return m.updateRoutines(msg)
	case StateStats:
		var cmd tea.Cmd
		m.statsModel, cmd = m.statsModel.Update(msg)
		return m, cmd
	}
	return m, nil
}

// switchTab reloads on every focus change so a streak that lapsed while the
// screen was open is decayed before it is shown.
func (m *Model) switchTab(s SessionState) {
	m.state = s
	m.status = ""
	m.reload()
}

func (m *Model) toggle(msg tasklist.ToggleTaskMsg) {
	res, err := m.engine.ToggleTask(m.ctx, msg.RoutineID, msg.TaskID)
	if err != nil {
		m.setStatus("Toggle failed: %v", err)
		m.reload()
		return
	}
	switch {
	case !res.Toggled:
		m.status = ""
	case res.XPAwarded > 0:
		m.setStatus("✓ %s  +%d XP (total %d)", res.Task.Title, res.XPAwarded, res.TotalXP)
	default:
		m.setStatus("%s marked not done", res.Task.Title)
	}
	if res.AllCompleted {
		m.status += "  🎉 All routines complete!"
	}
	for _, a := range res.Unlocked {
		m.status += "  " + a.Icon + " " + a.Title
	}
	if res.Toggled {
		m.show(res.Routine.ID, res.Routines)
		return
	}
	m.reload()
}

func (m Model) updateToday(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Next):
			m.navigate(constants.DirectionNext)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.navigate(constants.DirectionPrevious)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m *Model) navigate(direction constants.Direction) {
	nav, err := m.engine.MoveToAdjacent(m.ctx, direction)
	if err != nil {
		m.setStatus("Navigation failed: %v", err)
		return
	}
	switch nav.Outcome {
	case routines.OutcomeNoMoreRoutines:
		m.status = "No more routines. Add one on the Routines tab."
	case routines.OutcomeStayed:
		m.status = ""
	default:
		if nav.Active != nil {
			m.setStatus("Now on %s", nav.Active.Title)
		}
	}
	if nav.Active != nil {
		m.show(nav.Active.ID, nav.Routines)
		return
	}
	m.reload()
}

func (m Model) updateRoutines(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.view.Routines)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Enter):
		r, ok := m.selectedRoutine()
		if !ok {
			break
		}
		if err := m.engine.SetActive(m.ctx, r.ID); err != nil {
			m.setStatus("Activate failed: %v", err)
			break
		}
		m.setStatus("Active routine: %s", r.Title)
		m.show(r.ID, nil)
	case key.Matches(keyMsg, m.keys.Add):
		m.routineForm = &RoutineFormModel{Recurrence: string(constants.RecurrenceNone)}
		m.form = newRoutineForm(m.routineForm)
		m.previousState = m.state
		m.state = StateAddRoutine
		return m, m.form.Init()
	case key.Matches(keyMsg, m.keys.Delete):
		r, ok := m.selectedRoutine()
		if !ok {
			break
		}
		m.routineToDeleteID = r.ID
		m.previousState = m.state
		m.state = StateConfirmDelete
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		m.submitRoutineForm()
		m.state = m.previousState
	case huh.StateAborted:
		m.state = m.previousState
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) submitRoutineForm() {
	d, err := m.routineForm.draft()
	if err != nil {
		m.setStatus("Invalid routine: %v", err)
		return
	}
	r, err := m.engine.Routines().Create(m.ctx, d)
	if err != nil {
		m.setStatus("Create failed: %v", err)
		return
	}
	m.setStatus("Created %s", r.Title)
	m.reload()
	for i, existing := range m.view.Routines {
		if existing.ID == r.ID {
			m.cursor = i
		}
	}
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if err := m.engine.DeleteRoutine(m.ctx, m.routineToDeleteID); err != nil {
			m.setStatus("Delete failed: %v", err)
		} else {
			m.status = "Routine deleted"
		}
		m.routineToDeleteID = ""
		m.state = m.previousState
		m.reload()
	case key.Matches(keyMsg, m.keys.Cancel):
		m.routineToDeleteID = ""
		m.state = m.previousState
	}
	return m, nil
}
