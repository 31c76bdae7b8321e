package stats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/report"
	"github.com/j-veylop/chatstats-tui/internal/ui/components"
	"github.com/j-veylop/chatstats-tui/internal/ui/styles"
)

const indentSpace = "    "

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// View renders the tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.loader.View(m.state.Window(), m.width, m.height)
	}

	sections := []string{m.renderTitle()}

	snap := m.state.Snapshot()
	switch {
	case snap == nil:
		sections = append(sections, m.renderEmpty())
	case m.category == Models:
		sections = append(sections, m.renderModels(snap.Data.Models))
	case m.category == Activity:
		sections = append(sections, m.renderActivity(snap.Data.Time))
	case m.category == Content:
		sections = append(sections, m.renderContent(snap.Data.Content))
	case m.category == Resources:
		sections = append(sections, m.renderResources(snap.Data.Resources))
	default:
		sections = append(sections, m.renderOverview(snap))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderTitle() string {
	window := m.state.Window()
	title := styles.TitleStyle.Render(fmt.Sprintf("%s · %s", m.category, window))

	subtitle := "No data loaded"
	if snap := m.state.Snapshot(); snap != nil {
		subtitle = "Since " + snap.Date
		if window == models.WindowAllTime {
			subtitle = "All recorded activity"
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) card(title string, rows ...string) string {
	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	head := fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render(title))
	body := append([]string{head}, rows...)
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func (m *Model) renderEmpty() string {
	emptyIcon := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
	return m.card("Statistics",
		"",
		fmt.Sprintf("  %s %s", emptyIcon, styles.HelpStyle.Render("No statistics recorded yet")),
		"",
		styles.HelpStyle.Render("  ╰─▶ New conversations are counted as they are saved"),
	)
}

func metricRow(label string, value any) string {
	l := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(22).Render(label)
	v := lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true).Render(fmt.Sprint(value))
	return "  " + l + v
}

func (m *Model) renderOverview(snap *models.AggregateSnapshot) string {
	d := snap.Data
	u := d.Usage

	peak := d.Time.PeakUsageTime
	if peak == "" {
		peak = "---"
	}

	usage := m.card("Usage",
		"",
		metricRow("Sessions", u.TotalSessions),
		metricRow("Messages", fmt.Sprintf("%d (%d user, %d assistant)", u.TotalMessages, u.UserMessages, u.AssistantMessages)),
		metricRow("Avg session length", fmt.Sprintf("%.1f msgs", u.AvgSessionLength)),
		metricRow("Usage time", formatMinutes(u.TotalUsageTime)),
		metricRow("Active users", u.ActiveUsers),
		metricRow("Peak time", peak),
	)

	hours := make([]float64, len(d.Time.UsageByHour))
	for i, p := range d.Time.UsageByHour {
		hours[i] = float64(p.Count)
	}
	activity := m.card("Activity by hour", "", indentSpace+components.RenderHourlyHeatmap(hours))

	var top []string
	total := float64(d.Models.TotalCalls)
	for i, mu := range report.SortedModels(d.Models) {
		if i == 3 {
			break
		}
		top = append(top, m.shareBar.View(components.Share(float64(mu.Count), total), report.ModelLabel(mu), m.cardWidth()-4))
	}
	if len(top) == 0 {
		top = append(top, styles.HelpStyle.Render("  No model responses yet"))
	}
	modelCard := m.card(fmt.Sprintf("Top models (%d calls, %s tokens)", d.Models.TotalCalls, formatCount(d.Resources.TotalTokenUsage)),
		append([]string{""}, top...)...)

	return lipgloss.JoinVertical(lipgloss.Left, usage, activity, modelCard)
}

func (m *Model) renderModels(stats models.ModelStats) string {
	list := m.sortedModels(stats)
	title := fmt.Sprintf("Models (%d calls, sorted by %s)", stats.TotalCalls, m.sort)

	if len(list) == 0 {
		return m.card(title, "", styles.HelpStyle.Render("  No model responses yet"))
	}

	width := m.cardWidth() - 4
	dividerWidth := max(width-8, 20)
	divider := lipgloss.NewStyle().Foreground(styles.Subtle).Render("  ├" + strings.Repeat("─", dividerWidth) + "┤")

	rows := []string{""}
	for i, mu := range list {
		rows = append(rows, m.renderModelRow(i, mu, float64(stats.TotalCalls), width)...)
		if i < len(list)-1 {
			rows = append(rows, "", divider, "")
		}
	}

	return m.card(title, rows...)
}

func (m *Model) renderModelRow(i int, mu *models.ModelUsage, total float64, width int) []string {
	color := styles.SeriesColor(i)
	icon := lipgloss.NewStyle().Foreground(color).Render("⬡")
	label := lipgloss.NewStyle().Foreground(color).Bold(true).Render(report.ModelLabel(mu))

	share := components.Share(float64(mu.Count), total)
	bar := m.renderShareLine(animationKey("model", mu.ID), share, strconv.Itoa(mu.Count), width)

	errPct := mu.ErrorRate * 100
	detail := fmt.Sprintf("%savg %.0fms · %s chars · %s · %s tokens",
		indentSpace,
		mu.AvgResponseTime,
		formatCount(int(mu.AvgResponseLength)),
		styles.GetErrorRateStyle(errPct).Render(fmt.Sprintf("%.1f%% errors", errPct)),
		formatCount(mu.TokenUsage),
	)

	return []string{fmt.Sprintf("  %s %s", icon, label), bar, styles.HelpStyle.Render(detail)}
}

// renderShareLine draws an animated bar with the real share and a count.
func (m *Model) renderShareLine(animKey string, share float64, count string, width int) string {
	const (
		percentWidth = 6
		countWidth   = 10
	)
	barWidth := max(width-len(indentSpace)-percentWidth-countWidth-4, 10)

	percentStr := styles.GetShareStyle(share).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", share))
	countStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).
		Width(countWidth).
		Align(lipgloss.Right).
		Render(count)

	return lipgloss.JoinHorizontal(lipgloss.Left,
		indentSpace,
		components.RenderGradientBar(m.displayPercent(animKey, share), barWidth),
		" ",
		percentStr,
		" ",
		countStr,
	)
}

func (m *Model) renderActivity(t models.TimeStats) string {
	peak := t.PeakUsageTime
	if peak == "" {
		peak = "---"
	}

	hours := counts(t.UsageByHour)
	days := counts(t.UsageByDay)
	months := counts(t.UsageByMonth)

	hourCard := m.card("By hour (peak "+peak+")",
		"",
		indentSpace+components.RenderHourlyHeatmap(hours),
		"",
		components.RenderLineChart(hours, max(m.cardWidth()-16, 20), 6, "messages per hour"),
	)
	dayCard := m.card("By weekday", "", indentSpace+components.RenderWeeklyPattern(days, nil))
	monthCard := m.card("By month", "", components.RenderBarChart(months, monthNames, m.cardWidth()-4))

	return lipgloss.JoinVertical(lipgloss.Left, hourCard, dayCard, monthCard)
}

func (m *Model) renderContent(c models.ContentStats) string {
	var topicRows []string
	if len(c.TopTopics) == 0 {
		topicRows = append(topicRows, styles.HelpStyle.Render("  No topics recorded yet"))
	} else {
		values := make([]float64, len(c.TopTopics))
		labels := make([]string, len(c.TopTopics))
		for i, tag := range c.TopTopics {
			values[i] = float64(tag.Count)
			labels[i] = truncate(tag.Name, 24)
		}
		topicRows = append(topicRows, components.RenderBarChart(values, labels, m.cardWidth()-4))
	}

	values := make([]float64, len(c.SessionLengthDistribution))
	labels := make([]string, len(c.SessionLengthDistribution))
	for i, n := range c.SessionLengthDistribution {
		values[i] = float64(n)
		labels[i] = report.SessionBucketLabel(i)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.card(fmt.Sprintf("Top topics (%d)", len(c.TopTopics)), append([]string{""}, topicRows...)...),
		m.card("Session length", "", components.RenderBarChart(values, labels, m.cardWidth()-4)),
	)
}

func (m *Model) renderResources(r models.ResourceStats) string {
	width := m.cardWidth() - 4

	tokenRows := []string{""}
	if len(r.TokenUsageByModel) == 0 {
		tokenRows = append(tokenRows, styles.HelpStyle.Render("  No token usage reported"))
	}
	for _, id := range sortedByCount(r.TokenUsageByModel) {
		n := r.TokenUsageByModel[id]
		tokenRows = append(tokenRows,
			"  "+lipgloss.NewStyle().Bold(true).Render(id),
			m.renderShareLine(animationKey("tokens", id), components.Share(float64(n), float64(r.TotalTokenUsage)), formatCount(n), width),
		)
	}

	kbRows := []string{""}
	if len(r.KnowledgeBaseUsage) == 0 {
		kbRows = append(kbRows, styles.HelpStyle.Render("  No knowledge base lookups"))
	}
	for _, name := range sortedByCount(r.KnowledgeBaseUsage) {
		kbRows = append(kbRows, metricRow(name, r.KnowledgeBaseUsage[name]))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.card("Totals", "", metricRow("API calls", r.TotalAPICalls), metricRow("Tokens", formatCount(r.TotalTokenUsage))),
		m.card("Tokens by model", tokenRows...),
		m.card("Knowledge bases", kbRows...),
	)
}

func counts(points []models.TimePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.Count)
	}
	return out
}

func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// formatMinutes renders a minute count as "2h 05m" or "3d 04h".
func formatMinutes(minutes int) string {
	if minutes <= 0 {
		return "---"
	}
	h, mins := minutes/60, minutes%60
	if h >= 24 {
		return fmt.Sprintf("%dd %02dh", h/24, h%24)
	}
	return fmt.Sprintf("%dh %02dm", h, mins)
}

// formatCount abbreviates large counts, e.g. 1234 -> "1.2k".
func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return strconv.Itoa(n)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
