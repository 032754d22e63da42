// Package accounts provides the account management tab.
package accounts

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switcher-tui/internal/app"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/components"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the accounts tab.
type keyMap struct {
	Enter      key.Binding
	Delete     key.Binding
	PriorityUp key.Binding
	PriorityDn key.Binding
	Refresh    key.Binding
	Escape     key.Binding
}

// defaultKeyMap returns the default key bindings for the accounts tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch account"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		PriorityUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "raise priority"),
		),
		PriorityDn: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "lower priority"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the accounts tab state.
type Model struct {
	state         *app.State
	table         table.Model
	rows          []models.Account
	width         int
	height        int
	spinner       components.LoadingSpinner
	keys          keyMap
	confirmDelete bool
	deleteTarget  *models.Account
}

// New creates a new accounts model.
func New(state *app.State) *Model {
	columns := []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Email", Width: 26},
		{Title: "Plan", Width: 8},
		{Title: "5h", Width: 6},
		{Title: "Weekly", Width: 7},
		{Title: "Pri", Width: 4},
		{Title: "Status", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:   state,
		table:   t,
		spinner: components.NewSpinner("Loading accounts..."),
		keys:    defaultKeyMap(),
	}
}

// Init initializes the accounts tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick()
}

// Update handles messages for the accounts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	if m.confirmDelete {
		return m.updateDeleteConfirm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Enter):
			if acc := m.selectedAccount(); acc != nil && !acc.IsActive {
				target := *acc
				return m, func() tea.Msg {
					return app.SwitchAccountMsg{FilePath: target.FilePath, Name: target.Name}
				}
			}

		case key.Matches(msg, m.keys.Delete):
			if acc := m.selectedAccount(); acc != nil {
				target := *acc
				m.confirmDelete = true
				m.deleteTarget = &target
			}

		case key.Matches(msg, m.keys.PriorityUp):
			if acc := m.selectedAccount(); acc != nil {
				target := *acc
				return m, func() tea.Msg {
					return app.SetPriorityMsg{Account: target, Priority: target.Priority + 1}
				}
			}

		case key.Matches(msg, m.keys.PriorityDn):
			if acc := m.selectedAccount(); acc != nil {
				target := *acc
				return m, func() tea.Msg {
					return app.SetPriorityMsg{Account: target, Priority: target.Priority - 1}
				}
			}

		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			cmds = append(cmds, cmd)
		}

	case app.AccountsLoadedMsg:
		m.updateTableData()

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			m.confirmDelete = false
			target := m.deleteTarget
			m.deleteTarget = nil
			if target != nil {
				return m, func() tea.Msg {
					return app.DeleteAccountMsg{FilePath: target.FilePath, Name: target.Name}
				}
			}
		case "n", "N", "esc":
			m.confirmDelete = false
			m.deleteTarget = nil
		}
	}
	return m, nil
}

// selectedAccount returns the account behind the selected table row.
func (m *Model) selectedAccount() *models.Account {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return nil
	}
	return &m.rows[idx]
}

// updateTableData updates the table with current account data.
func (m *Model) updateTableData() {
	accounts := m.state.GetAccounts()
	m.rows = accounts

	rows := make([]table.Row, 0, len(accounts))
	for _, acc := range accounts {
		primary := "-"
		secondary := "-"
		if acc.Usage != nil {
			if acc.Usage.PrimaryWindow != nil {
				primary = formatPercent(acc.Usage.PrimaryWindow.UsedPercent)
			}
			if acc.Usage.SecondaryWindow != nil {
				secondary = formatPercent(acc.Usage.SecondaryWindow.UsedPercent)
			}
		}

		status := statusFor(acc)

		rows = append(rows, table.Row{
			acc.Name,
			acc.Email,
			acc.PlanType,
			primary,
			secondary,
			fmt.Sprintf("%d", acc.Priority),
			status,
		})
	}

	m.table.SetRows(rows)
}

func statusFor(acc models.Account) string {
	switch {
	case acc.IsTokenExpired:
		return "EXPIRED"
	case acc.IsActive:
		return "* ACTIVE"
	case acc.Usage == nil:
		return "NO DATA"
	case acc.PrimaryUsedPercent() >= 99 || acc.SecondaryUsedPercent() >= 99:
		return "EXHAUSTED"
	default:
		return "OK"
	}
}

// formatPercent formats a used percentage for display.
func formatPercent(p float64) string {
	if p >= 100 {
		return "100%"
	}
	if p > 0 && p < 1 {
		return "<1%"
	}
	return fmt.Sprintf("%.0f%%", p)
}

// lastUpdateLabel formats the age of the last usage update.
func lastUpdateLabel(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
}

// SetSize sets the available size for the accounts tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(3, height-10))

	nameWidth := 20
	emailWidth := width - 65
	if emailWidth < 20 {
		emailWidth = 20
	}
	if emailWidth > 36 {
		emailWidth = 36
	}

	columns := []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Email", Width: emailWidth},
		{Title: "Plan", Width: 8},
		{Title: "5h", Width: 6},
		{Title: "Weekly", Width: 7},
		{Title: "Pri", Width: 4},
		{Title: "Status", Width: 12},
	}
	m.table.SetColumns(columns)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Enter,
		m.keys.Delete,
		m.keys.PriorityUp,
		m.keys.PriorityDn,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Enter, m.keys.Delete},
		{m.keys.PriorityUp, m.keys.PriorityDn, m.keys.Refresh},
	}
}
