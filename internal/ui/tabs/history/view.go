package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/chatstats-tui/internal/app"
	"github.com/j-veylop/chatstats-tui/internal/report"
	"github.com/j-veylop/chatstats-tui/internal/ui/components"
	"github.com/j-veylop/chatstats-tui/internal/ui/styles"
)

const topModels = 5

// View renders the history tab.
func (m *Model) View() string {
	if m.loading {
		return m.renderLoading()
	}
	if m.err != nil {
		return m.renderError()
	}
	if m.summary == nil {
		return m.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTrendChart(),
		m.renderModels(),
		m.renderPatterns(),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) frame(content string) string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderLoading() string {
	return m.frame(styles.HelpStyle.Render(fmt.Sprintf("Loading %s of history...", strings.ToLower(m.timeRange.String()))))
}

func (m *Model) renderError() string {
	return m.frame(fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		app.UserMessage(app.OpRange, m.err),
	))
}

func (m *Model) renderEmpty() string {
	return m.frame(lipgloss.JoinVertical(lipgloss.Left,
		m.renderRangeTitle(),
		"",
		styles.HelpStyle.Render("No archived days in this range yet."),
		styles.HelpStyle.Render("Daily statistics are archived when the day rolls over."),
	))
}

func (m *Model) renderRangeTitle() string {
	title := styles.TitleStyle.Render("History")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange))

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)
}

func (m *Model) renderHeader() string {
	span := strings.ReplaceAll(m.summary.Date, "~", " → ")
	u := m.summary.Data.Usage
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("Data: %s (%d days) · %d sessions · %d messages",
		span, len(m.daily), u.TotalSessions, u.TotalMessages))

	return lipgloss.JoinVertical(lipgloss.Left, m.renderRangeTitle(), subtitle, "")
}

func (m *Model) card(icon, title string, rows []string) string {
	cardWidth := max(m.width-6, 40)

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render(icon)
	body := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(title)), ""}
	body = append(body, rows...)
	body = append(body, "")

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func (m *Model) renderTrendChart() string {
	if len(m.daily) < 2 {
		return m.card("📈", "Daily Activity", []string{styles.HelpStyle.Render("  Not enough days to chart a trend")})
	}

	messages := make([]float64, len(m.daily))
	sessions := make([]float64, len(m.daily))
	for i, d := range m.daily {
		messages[i] = float64(d.Data.Usage.TotalMessages)
		sessions[i] = float64(d.Data.Usage.TotalSessions)
	}

	// room for axis labels
	chartWidth := max(m.width-6-12, 30)
	chart := components.RenderMultiLineChart([][]float64{messages, sessions}, chartWidth, 8,
		fmt.Sprintf("%s → %s", m.daily[0].Date, m.daily[len(m.daily)-1].Date))

	var rows []string
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}
	rows = append(rows, "", "  "+components.SeriesLegend("Messages", "Sessions"))

	return m.card("📈", "Daily Activity", rows)
}

func (m *Model) renderModels() string {
	stats := m.summary.Data.Models
	list := report.SortedModels(stats)
	if len(list) == 0 {
		return m.card("⬡", "Models", []string{styles.HelpStyle.Render("  No model responses in this range")})
	}

	width := max(m.width-6, 40) - 4
	var rows []string
	for i, mu := range list {
		if i == topModels {
			rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … and %d more", len(list)-topModels)))
			break
		}
		share := components.Share(float64(mu.Count), float64(stats.TotalCalls))
		rows = append(rows, "  "+components.SimpleShareBar(share, report.ModelLabel(mu), width-2))
	}

	return m.card("⬡", fmt.Sprintf("Models (%d calls)", stats.TotalCalls), rows)
}

func (m *Model) renderPatterns() string {
	t := m.summary.Data.Time

	hours := make([]float64, len(t.UsageByHour))
	for i, p := range t.UsageByHour {
		hours[i] = float64(p.Count)
	}
	days := make([]float64, len(t.UsageByDay))
	for i, p := range t.UsageByDay {
		days[i] = float64(p.Count)
	}

	peak := t.PeakUsageTime
	if peak == "" {
		peak = "---"
	}

	rows := []string{
		"  " + components.RenderHourlyHeatmap(hours),
		"",
		"  " + components.RenderWeeklyPattern(days, nil),
		"",
		fmt.Sprintf("  Peak: %s", lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(peak)),
	}
	if top := m.summary.Data.Content.TopTopics; len(top) > 0 {
		rows = append(rows, fmt.Sprintf("  Top topic: %s (%d)", top[0].Name, top[0].Count))
	}

	return m.card("🕐", "Patterns", rows)
}
