// Package history provides the history tab for viewing archived statistics
// over a date range.
package history

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/chatstats-tui/internal/app"
	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/timewindow"
)

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg carries the merged range and its daily archives.
type historyLoadedMsg struct {
	summary   *models.AggregateSnapshot
	daily     []*models.AggregateSnapshot
	timeRange models.TimeRange
}

// historyErrorMsg is sent when there's an error loading history.
type historyErrorMsg struct {
	err error
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	services app.Services
	now      func() time.Time
	keys     keyMap
	viewport viewport.Model

	summary     *models.AggregateSnapshot
	daily       []*models.AggregateSnapshot
	lastRefresh time.Time
	err         error
	width       int
	height      int
	timeRange   models.TimeRange
	loading     bool
}

// New creates a new history model.
func New(state *app.State, svc app.Services) *Model {
	return &Model{
		state:     state,
		services:  svc,
		now:       time.Now,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange30Days,
	}
}

// TimeRange returns the selected range preset.
func (m *Model) TimeRange() models.TimeRange {
	return m.timeRange
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	if m.services == nil {
		return nil
	}
	m.loading = true
	return m.loadHistoryCmd()
}

// loadHistoryCmd merges the daily archives inside the selected range.
func (m *Model) loadHistoryCmd() tea.Cmd {
	svc := m.services
	rng := m.timeRange
	start, end := rng.Bounds(m.now())

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), app.LoadTimeout)
		defer cancel()

		summary, err := svc.StatsForRange(ctx, start, end)
		if err != nil {
			return historyErrorMsg{err: err}
		}

		days := timewindow.DaysDiff(start, end) + 1
		archived, err := svc.History(ctx, models.WindowDaily, days)
		if err != nil {
			return historyErrorMsg{err: err}
		}

		first := timewindow.FormatDate(start)
		var daily []*models.AggregateSnapshot
		for _, s := range archived {
			if s.Date >= first {
				daily = append(daily, s)
			}
		}

		return historyLoadedMsg{summary: summary, daily: daily, timeRange: rng}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		// a stale response from a previous range
		if msg.timeRange != m.timeRange {
			return m, nil
		}
		m.summary = msg.summary
		m.daily = msg.daily
		m.loading = false
		m.lastRefresh = m.now()
		m.err = nil

	case historyErrorMsg:
		m.loading = false
		m.err = msg.err
		return m, app.NotifyError(app.UserMessage(app.OpRange, msg.err))

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory && m.lastRefresh.IsZero() && !m.loading {
			return m, m.reload()
		}

	case app.RecalculatedMsg, app.RefreshMsg:
		return m, m.reload()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		return m, m.reload()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleRange}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange},
		{m.keys.Up, m.keys.Down},
	}
}
