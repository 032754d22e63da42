// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codex-switcher-tui/internal/logger"
	"github.com/j-veylop/codex-switcher-tui/internal/ui/styles"
)

type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// UsageBar renders a usage progress bar with label and percentage.
// Bars fill up as the window is consumed, so the gradient runs from
// green at low usage to red near the limit.
type UsageBar struct {
	progress       progress.Model
	label          string
	percent        float64
	isAnimating    bool
	targetPercent  float64
	currentPercent float64
}

// NewUsageBar creates a new usage bar with gradient colors.
func NewUsageBar() UsageBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return UsageBar{progress: p}
}

// NewUsageBarWithWidth creates a usage bar with a specific width.
func NewUsageBarWithWidth(width int) UsageBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)

	return UsageBar{progress: p}
}

// Init initializes the progress bar model.
func (u UsageBar) Init() tea.Cmd {
	return nil
}

// Update handles progress bar animation messages.
func (u UsageBar) Update(msg tea.Msg) (UsageBar, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.(type) {
	case AnimationTickMsg:
		if u.isAnimating {
			if u.currentPercent < u.targetPercent {
				step := (u.targetPercent - u.currentPercent) / 10
				if step < 0.5 {
					step = 0.5
				}
				u.currentPercent += step
				if u.currentPercent > u.targetPercent {
					u.currentPercent = u.targetPercent
				}
				cmds = append(cmds, animationTick())
			} else if u.currentPercent > u.targetPercent {
				step := (u.currentPercent - u.targetPercent) / 10
				if step < 0.5 {
					step = 0.5
				}
				u.currentPercent -= step
				if u.currentPercent < u.targetPercent {
					u.currentPercent = u.targetPercent
				}
				cmds = append(cmds, animationTick())
			} else {
				u.isAnimating = false
			}
		}
	}

	var cmd tea.Cmd
	model, cmd := u.progress.Update(msg)
	u.progress = model.(progress.Model)
	cmds = append(cmds, cmd)

	return u, tea.Batch(cmds...)
}

// SetPercent sets the current used percentage.
func (u *UsageBar) SetPercent(percent float64) tea.Cmd {
	u.percent = percent
	u.targetPercent = percent

	if !u.isAnimating {
		u.isAnimating = true
		return tea.Batch(
			u.progress.SetPercent(percent/100),
			animationTick(),
		)
	}

	return u.progress.SetPercent(percent / 100)
}

// SetLabel sets the bar label.
func (u *UsageBar) SetLabel(label string) {
	u.label = label
}

// SetWidth sets the progress bar width.
func (u *UsageBar) SetWidth(width int) {
	u.progress.Width = width
}

// View renders the usage bar with percentage and label.
func (u UsageBar) View(percent float64, label string, width int) string {
	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	u.progress.Width = barWidth

	bar := u.progress.ViewAs(percent / 100)

	percentStyle := styles.GetUsageStyle(percent, false)
	percentStr := percentStyle.Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%.0f%%", percent))

	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		bar,
		" ",
		percentStr,
	)
}

// ViewCompact renders a compact version without label.
func (u UsageBar) ViewCompact(percent float64, width int) string {
	barWidth := width - 8
	if barWidth < 5 {
		barWidth = 5
	}
	u.progress.Width = barWidth

	bar := u.progress.ViewAs(percent / 100)
	percentStyle := styles.GetUsageStyle(percent, false)
	percentStr := percentStyle.Render(fmt.Sprintf("%.0f%%", percent))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", percentStr)
}

// ViewExpired renders the bar for an account whose token was rejected.
func (u UsageBar) ViewExpired(label string, width int) string {
	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}

	emptyBar := lipgloss.NewStyle().
		Foreground(styles.Error).
		Render(strings.Repeat("░", barWidth))

	statusStr := styles.UsageExpiredStyle.
		Width(14).
		Align(lipgloss.Right).
		Render("EXPIRED")

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		emptyBar,
		" ",
		statusStr,
	)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// SimpleUsageBar renders a simple ASCII progress bar with gradient colors.
func SimpleUsageBar(percent float64, label string, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4

	if barWidth < 5 {
		barWidth = 5
	}

	bar := RenderGradientBar(percent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := styles.GetUsageStyle(percent, false).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// ResetTimeBar renders a bar that fills up as a window's reset approaches.
func ResetTimeBar(secondsRemaining, windowSeconds int64, label string, width int) string {
	if windowSeconds <= 0 {
		windowSeconds = 5 * 3600
	}

	percent := 1.0 - float64(secondsRemaining)/float64(windowSeconds)
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}

	hours := secondsRemaining / 3600
	minutes := (secondsRemaining % 3600) / 60
	var timeStr string
	if hours >= 48 {
		timeStr = fmt.Sprintf("%dd %dh", hours/24, hours%24)
	} else {
		timeStr = fmt.Sprintf("%dh %02dm", hours, minutes)
	}

	labelWidth := len(label) + 1
	timeWidth := 8
	barWidth := width - labelWidth - timeWidth - 4
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(float64(barWidth) * percent)
	var barChars []string
	for i := 0; i < barWidth; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, barWidth-1))
			color := interpolateColor("#ffd93d", "#6c5ce7", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}
	bar := strings.Join(barChars, "")

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	timeStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(timeWidth).
		Align(lipgloss.Right)

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, timeStyle.Render(timeStr))
}

// SimpleUsageBarLoading renders a shimmering placeholder while usage loads.
func SimpleUsageBarLoading(label string, width int, frame int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4
	if barWidth < 10 {
		barWidth = 10
	}

	accentColor := styles.PrimaryWindow
	if strings.Contains(strings.ToLower(label), "week") {
		accentColor = styles.SecondaryWindow
	}

	cycle := 120
	t := float64(frame%cycle) / float64(cycle)
	var p float64
	if t < 0.5 {
		p = t * 2
	} else {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var barChars []string
	for i := 0; i < barWidth; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		var char string
		var style lipgloss.Style

		if dist < 3 {
			char = "▓"
			style = lipgloss.NewStyle().Foreground(accentColor)
		} else if dist < 5 {
			char = "▒"
			style = lipgloss.NewStyle().Foreground(styles.TextSecondary)
		} else {
			char = "░"
			style = lipgloss.NewStyle().Foreground(styles.BgLight)
		}

		barChars = append(barChars, style.Render(char))
	}
	bar := strings.Join(barChars, "")

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := dots[(frame/2)%len(dots)]

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	loadingStr := lipgloss.NewStyle().
		Width(percentWidth).
		Align(lipgloss.Right).
		Foreground(accentColor).
		Render(dot)

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, loadingStr)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
