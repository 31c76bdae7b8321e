package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/ui/styles"
	"github.com/j-veylop/chatstats-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderWindowsCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.config != nil {
		logFile := m.config.LogFile
		if logFile == "" {
			logFile = "(stderr)"
		}
		rows = append(rows,
			renderRow("Database", m.config.DatabasePath),
			renderRow("Topics Directory", m.config.TopicsDir),
			renderRow("Default Window", m.config.DefaultWindow.String()),
			renderRow("Refresh Interval", m.config.RefreshInterval.String()),
			renderRow("Log Level", m.config.LogLevel),
			renderRow("Log File", logFile),
			renderRow("Rollover Alerts", onOff(m.config.NotifyRollover)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderWindowsCard lists the live snapshot date of every loaded window.
func (m *Model) renderWindowsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Windows"), ""}

	for _, w := range models.Windows {
		value := styles.HelpStyle.Render("not loaded")
		if snap := m.state.SnapshotFor(w); snap != nil {
			value = fmt.Sprintf("since %s · %d messages", snap.Date, snap.Data.Usage.TotalMessages)
		}
		label := w.String()
		if w == m.state.Window() {
			label = "▸ " + label
		}
		rows = append(rows, renderRow(label, value))
	}

	updated := "never"
	if last := m.state.GetLastUpdated(); !last.IsZero() {
		updated = last.Format("2006-01-02 15:04:05")
	}
	rows = append(rows, "", renderRow("Last Updated", updated))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About chatstats"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
