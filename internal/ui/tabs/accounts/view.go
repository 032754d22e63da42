package accounts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switcher-tui/internal/ui/components"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/styles"
)

// View renders the accounts tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	var sections []string

	sections = append(sections, m.renderTitle())

	if m.confirmDelete {
		sections = append(sections, m.renderDeleteConfirm())
	}
	sections = append(sections, m.renderTable())

	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

// renderTitle renders the accounts tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Account Pool")

	accountCount := m.state.GetAccountCount()
	updated := lastUpdateLabel(m.state.GetLastUpdated())
	subtitle := styles.HelpStyle.Render(
		fmt.Sprintf("%d profiles, updated %s", accountCount, updated))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderTable renders the accounts table.
func (m *Model) renderTable() string {
	if m.state.GetAccountCount() == 0 {
		return m.renderEmptyState()
	}

	m.updateTableData()

	cardWidth := m.width - 6
	if cardWidth < 60 {
		cardWidth = 60
	}

	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

// renderEmptyState renders the empty state when no profiles exist.
func (m *Model) renderEmptyState() string {
	cardWidth := m.width - 6
	if cardWidth < 40 {
		cardWidth = 40
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Profiles Found"),
		"",
		styles.HelpStyle.Render("Drop Codex auth files into the accounts directory to start."),
		"",
	)

	return styles.CardStyle.Width(cardWidth).Render(content)
}

// renderDeleteConfirm renders the delete confirmation dialog.
func (m *Model) renderDeleteConfirm() string {
	cardWidth := 50

	name := ""
	if m.deleteTarget != nil {
		name = m.deleteTarget.Name
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Delete Profile?"),
		"",
		"Are you sure you want to delete:",
		styles.ErrorTextStyle.Render(name),
		"",
		"This action cannot be undone.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(cardWidth).Render(content),
		m.width,
	)
}

// renderFooter renders the footer with keyboard shortcuts.
func (m *Model) renderFooter() string {
	var shortcuts []string

	if m.confirmDelete {
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	} else {
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " switch",
			styles.HelpKeyStyle.Render("d") + " delete",
			styles.HelpKeyStyle.Render("+/-") + " priority",
			styles.HelpKeyStyle.Render("r") + " refresh",
		}
	}

	footer := ""
	for i, s := range shortcuts {
		if i > 0 {
			footer += styles.HelpSeparatorStyle.Render(" | ")
		}
		footer += s
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(footer)
}
