// Package dashboard provides the main overview tab: active account usage,
// ranked switch candidates, and recent usage history.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switcher-tui/internal/app"
	"github.com/j-veylop/codex-switcher-tui/internal/db"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/components"
)

// HistoryFunc returns recent usage samples for an account.
type HistoryFunc func(acc models.Account, limit int) []db.UsagePoint

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	NextCandidate key.Binding
	PrevCandidate key.Binding
	SwitchBest    key.Binding
	SwitchSel     key.Binding
	ToggleAuto    key.Binding
	Refresh       key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		NextCandidate: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "next candidate"),
		),
		PrevCandidate: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "prev candidate"),
		),
		SwitchBest: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "switch to best"),
		),
		SwitchSel: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch to selected"),
		),
		ToggleAuto: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle auto switch"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state         *app.State
	history       HistoryFunc
	spinner       components.LoadingSpinner
	keys          keyMap
	viewport      viewport.Model
	primaryBar    components.UsageBar
	secondaryBar  components.UsageBar
	width         int
	height        int
	selectedIndex int
	frame         int
}

// New creates a new dashboard model.
func New(state *app.State, history HistoryFunc) *Model {
	return &Model{
		state:        state,
		history:      history,
		spinner:      components.NewSpinner("Loading accounts..."),
		primaryBar:   components.NewUsageBar(),
		secondaryBar: components.NewUsageBar(),
		keys:         defaultKeyMap(),
		viewport:     viewport.New(0, 0),
	}
}

type frameTickMsg time.Time

func frameTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), frameTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case frameTickMsg:
		m.frame++
		if m.state.IsInitialLoading() || m.state.IsRefreshing() {
			cmds = append(cmds, frameTickCmd())
		}

	case app.AccountsLoadedMsg:
		m.clampSelection()
		cmds = append(cmds, frameTickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	candidates := m.state.GetCandidates()
	count := len(candidates)

	switch {
	case key.Matches(msg, m.keys.NextCandidate):
		if count > 0 {
			m.selectedIndex = (m.selectedIndex + 1) % count
		}

	case key.Matches(msg, m.keys.PrevCandidate):
		if count > 0 {
			m.selectedIndex = (m.selectedIndex - 1 + count) % count
		}

	case key.Matches(msg, m.keys.SwitchBest):
		if count > 0 {
			best := candidates[0]
			return func() tea.Msg {
				return app.SwitchAccountMsg{FilePath: best.FilePath, Name: best.Name}
			}
		}

	case key.Matches(msg, m.keys.SwitchSel):
		if m.selectedIndex < count {
			target := candidates[m.selectedIndex]
			return func() tea.Msg {
				return app.SwitchAccountMsg{FilePath: target.FilePath, Name: target.Name}
			}
		}

	case key.Matches(msg, m.keys.ToggleAuto):
		return func() tea.Msg {
			return app.ToggleAutoSwitchMsg{}
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) clampSelection() {
	count := len(m.state.GetCandidates())
	if count == 0 {
		m.selectedIndex = 0
	} else if m.selectedIndex >= count {
		m.selectedIndex = count - 1
	}
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.SwitchBest,
		m.keys.SwitchSel,
		m.keys.ToggleAuto,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextCandidate, m.keys.PrevCandidate},
		{m.keys.SwitchBest, m.keys.SwitchSel},
		{m.keys.ToggleAuto, m.keys.Refresh},
	}
}
