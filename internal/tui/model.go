package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/routinely/internal/engine"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/tui/components/stats"
	"github.com/julianstephens/routinely/internal/tui/components/tasklist"
	"github.com/julianstephens/routinely/internal/utils"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateRoutines
	StateStats
	StateAchievements
	StateAddRoutine
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab.
const tabCount = 4

const historyLimit = 10

type RoutineFormModel struct {
	Title      string
	Tasks      string
	Recurrence string
}

type Model struct {
	ctx    context.Context
	engine *engine.Engine
	clock  utils.Clock

	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	taskList      tasklist.Model
	statsModel    stats.Model
	form          *huh.Form
	routineForm   *RoutineFormModel

	view         engine.View
	achievements []models.Achievement

	cursor            int // selected row on the routines tab
	routineToDeleteID string
	status            string
	loadErr           error
	quitting          bool
	width             int
	height            int
}

func NewModel(e *engine.Engine, clock utils.Clock) Model {
	m := Model{
		ctx:        context.Background(),
		engine:     e,
		clock:      clock.OrSystem(),
		state:      StateToday,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		taskList:   tasklist.New(0, 0),
		statsModel: stats.New(0, 0),
	}
	m.reload()
	return m
}

// reload runs the focus hook: a lapsed streak is decayed and the active
// routine is re-resolved before anything is shown.
func (m *Model) reload() {
	v, err := m.engine.Refresh(m.ctx)
	if err != nil {
		logger.Error("Failed to refresh", "error", err)
		m.loadErr = err
		return
	}
	m.loadErr = nil
	m.setView(v)
	m.loadDerived()
}

// show displays routineID without re-resolving the active pointer, so a
// routine that was just completed or explicitly chosen stays on screen.
// all may be nil, in which case the collection is read from the store.
func (m *Model) show(routineID string, all []models.Routine) {
	if all == nil {
		var err error
		if all, err = m.engine.Routines().List(m.ctx); err != nil {
			logger.Error("Failed to list routines", "error", err)
			m.loadErr = err
			return
		}
	}

	v := engine.View{Routines: all}
	for i := range all {
		if all[i].ID == routineID {
			r := all[i].Clone()
			v.Active = &r
			break
		}
	}
	if v.Active == nil {
		m.reload()
		return
	}

	var err error
	if v.Progress, err = m.engine.Progress(m.ctx); err != nil {
		logger.Warn("Failed to load progress", "error", err)
	}
	if v.Streak, err = m.engine.Streak(m.ctx); err != nil {
		logger.Warn("Failed to load streak", "error", err)
	}
	m.loadErr = nil
	m.setView(v)
	m.loadDerived()
}

func (m *Model) setView(v engine.View) {
	m.view = v
	m.taskList.SetRoutine(v.Active)

	if m.cursor >= len(v.Routines) {
		m.cursor = len(v.Routines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// loadDerived re-reads the stats and achievements tabs.
func (m *Model) loadDerived() {
	var err error
	data := stats.Data{
		Progress: m.view.Progress,
		Streak:   m.view.Streak,
		Location: m.clock().Location(),
	}
	if data.Weekly, err = m.engine.GetWeeklyStats(m.ctx); err != nil {
		logger.Warn("Failed to load weekly stats", "error", err)
	}
	if data.Monthly, err = m.engine.GetMonthlyStats(m.ctx); err != nil {
		logger.Warn("Failed to load monthly stats", "error", err)
	}
	if data.History, err = m.engine.History(m.ctx, historyLimit); err != nil {
		logger.Warn("Failed to load history", "error", err)
	}
	m.statsModel.SetData(data)

	if m.achievements, err = m.engine.Achievements(m.ctx); err != nil {
		logger.Warn("Failed to load achievements", "error", err)
	}
}

func (m Model) selectedRoutine() (models.Routine, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Routines) {
		return models.Routine{}, false
	}
	return m.view.Routines[m.cursor], true
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateToday:
		keys = append(keys, m.taskList.Keys().Toggle, m.keys.Next, m.keys.Prev)
	case StateRoutines:
		keys = append(keys, m.keys.Enter, m.keys.Add, m.keys.Delete)
	case StateConfirmDelete:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateToday:
		actions = []key.Binding{m.taskList.Keys().Toggle, m.keys.Next, m.keys.Prev}
	case StateRoutines:
		actions = []key.Binding{m.keys.Enter, m.keys.Add, m.keys.Delete}
	case StateConfirmDelete:
		return [][]key.Binding{{m.keys.Confirm, m.keys.Cancel}}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return nil
}
