package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
	"github.com/j-veylop/codex-switcher-tui/internal/services/rotation"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/components"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderActiveCard())
	sections = append(sections, m.renderCandidatesCard())
	sections = append(sections, m.renderHistoryCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

// renderTitle renders the dashboard title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Codex Switcher")

	auto := m.state.GetAutoSwitch()
	autoStr := "auto switch off"
	if auto.Enabled {
		autoStr = fmt.Sprintf("auto switch on at %d%% remaining", auto.Normalized().ThresholdPercent)
	}
	subtitle := styles.HelpStyle.Render("Codex account rotation, " + autoStr)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderActiveCard renders the active account with its usage windows.
func (m *Model) renderActiveCard() string {
	cardWidth := max(m.width-6, 40)
	contentWidth := max(cardWidth-8, 30)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Active Account")))
	rows = append(rows, "")

	active := m.state.GetActiveAccount()
	if active == nil {
		emptyIcon := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
		rows = append(rows, fmt.Sprintf("  %s %s", emptyIcon, styles.HelpStyle.Render("No active account")))
		rows = append(rows, "")
		rows = append(rows, styles.InfoTextStyle.Render("  ╰─▶ Press 's' to switch to the best candidate"))
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	rows = append(rows, "  "+m.renderAccountHeader(*active))
	rows = append(rows, "")
	rows = append(rows, m.renderUsageLines(*active, contentWidth)...)

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAccountHeader(acc models.Account) string {
	indicator := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○ ")
	if acc.IsActive {
		indicator = styles.SuccessTextStyle.Render("● ")
	}

	email := acc.Email
	if len(email) > 35 {
		email = email[:32] + "..."
	}

	plan := acc.PlanType
	planStr := styles.GetPlanStyle(plan).Render("◆ " + plan)

	name := lipgloss.NewStyle().Bold(true).Render(acc.Name)

	return fmt.Sprintf("%s%s  %s  %s", indicator, name, styles.HelpStyle.Render(email), planStr)
}

// renderUsageLines renders the two window bars plus reset timers.
func (m *Model) renderUsageLines(acc models.Account, width int) []string {
	var lines []string

	if acc.IsTokenExpired {
		lines = append(lines, "  "+styles.UsageExpiredStyle.Render("Token expired, re-authenticate this profile"))
		return lines
	}

	if acc.Usage == nil {
		lines = append(lines, "  "+components.SimpleUsageBarLoading("5h window ", width, m.frame))
		lines = append(lines, "  "+components.SimpleUsageBarLoading("Weekly    ", width, m.frame))
		return lines
	}

	now := time.Now().Unix()

	if w := acc.Usage.PrimaryWindow; w != nil {
		lines = append(lines, "  "+components.SimpleUsageBar(w.UsedPercent, "5h window ", width))
		if w.ResetsAt > now {
			lines = append(lines, "  "+components.ResetTimeBar(w.ResetsAt-now, w.WindowMinutes*60, "resets in ", width))
		}
	} else {
		lines = append(lines, "  "+styles.HelpStyle.Render("5h window: no data"))
	}

	lines = append(lines, "")

	if w := acc.Usage.SecondaryWindow; w != nil {
		lines = append(lines, "  "+components.SimpleUsageBar(w.UsedPercent, "Weekly    ", width))
		if w.ResetsAt > now {
			lines = append(lines, "  "+components.ResetTimeBar(w.ResetsAt-now, w.WindowMinutes*60, "resets in ", width))
		}
	} else {
		lines = append(lines, "  "+styles.HelpStyle.Render("Weekly window: no data"))
	}

	return lines
}

// renderCandidatesCard renders the ranked switch candidates.
func (m *Model) renderCandidatesCard() string {
	cardWidth := max(m.width-6, 40)
	candidates := m.state.GetCandidates()

	var rows []string
	titleIcon := lipgloss.NewStyle().Foreground(styles.Secondary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Switch Candidates")))
	rows = append(rows, "")

	if len(candidates) == 0 {
		emptyIcon := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
		rows = append(rows, fmt.Sprintf("  %s %s", emptyIcon,
			styles.HelpStyle.Render("No viable candidates, every other account is exhausted or expired")))
		return styles.CandidateCardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	now := time.Now()
	for i, cand := range candidates {
		prefix := "  "
		if i == m.selectedIndex {
			prefix = styles.FocusedStyle.Render("▸ ")
		}

		score := rotation.Score(cand, now)
		scoreStr := styles.HelpStyle.Render(fmt.Sprintf("score %.0f", score))

		primary := styles.GetUsageStyle(cand.PrimaryUsedPercent(), false).
			Render(fmt.Sprintf("5h %.0f%%", cand.PrimaryUsedPercent()))
		secondary := styles.GetUsageStyle(cand.SecondaryUsedPercent(), false).
			Render(fmt.Sprintf("wk %.0f%%", cand.SecondaryUsedPercent()))

		name := lipgloss.NewStyle().Bold(true).Render(cand.Name)
		pri := styles.HelpStyle.Render(fmt.Sprintf("p%d", cand.Priority))

		rows = append(rows, fmt.Sprintf("%s%s  %s  %s  %s  %s", prefix, name, pri, primary, secondary, scoreStr))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("  enter: switch to selected | s: switch to best"))

	return styles.CandidateCardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderHistoryCard renders the recent usage chart for the active account.
func (m *Model) renderHistoryCard() string {
	cardWidth := max(m.width-6, 40)

	active := m.state.GetActiveAccount()
	if active == nil || m.history == nil {
		return ""
	}

	points := m.history(*active, 120)
	if len(points) < 2 {
		return ""
	}

	primary := make([]float64, len(points))
	secondary := make([]float64, len(points))
	for i, p := range points {
		primary[i] = p.PrimaryUsed
		secondary[i] = p.SecondaryUsed
	}

	var rows []string
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Usage History")))
	rows = append(rows, "")

	chartWidth := max(cardWidth-16, 20)
	chart := components.RenderDualLineChart(primary, secondary, chartWidth, 8, "used percent")
	rows = append(rows, chart)
	rows = append(rows, "")
	rows = append(rows, components.RenderLegend([]components.LegendItem{
		{Label: "5h window", Color: components.ChartPrimaryWindowColor},
		{Label: "Weekly", Color: components.ChartSecondaryWindowColor},
	}))

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
