package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/ui/styles"
)

var loaderLabelStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary)

// Loader is the placeholder a tab shows while its window's statistics load.
type Loader struct {
	spinner spinner.Model
	subject string
}

// NewLoader returns a loader for subject, such as a tab name.
func NewLoader(subject string) Loader {
	return Loader{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
		),
		subject: strings.ToLower(subject),
	}
}

// Tick starts the animation.
func (l Loader) Tick() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the animation on spinner ticks.
func (l Loader) Update(msg tea.Msg) (Loader, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// Label describes what is loading for window.
func (l Loader) Label(window models.WindowType) string {
	return fmt.Sprintf("Loading %s · %s...", l.subject, window)
}

// View renders the spinner and label centered in a width x height area.
func (l Loader) View(window models.WindowType, width, height int) string {
	line := l.spinner.View() + " " + loaderLabelStyle.Render(l.Label(window))
	return styles.CenterBoth(line, width, height)
}
