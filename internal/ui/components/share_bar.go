package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/ui/styles"
)

const (
	gradientFrom = "#4285f4"
	gradientTo   = "#7D56F4"
)

// ShareBar renders a labeled bar showing a part of a total, such as one
// model's share of all responses.
type ShareBar struct {
	progress progress.Model
}

// NewShareBar creates a share bar with gradient colors.
func NewShareBar() ShareBar {
	return NewShareBarWithWidth(30)
}

// NewShareBarWithWidth creates a share bar with a specific width.
func NewShareBarWithWidth(width int) ShareBar {
	p := progress.New(
		progress.WithScaledGradient(gradientFrom, gradientTo),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return ShareBar{progress: p}
}

// SetWidth sets the progress bar width.
func (s *ShareBar) SetWidth(width int) {
	s.progress.Width = width
}

// View renders the bar with label and percentage.
func (s ShareBar) View(percent float64, label string, width int) string {
	// label and percentage
	s.progress.Width = max(width-30, 10)

	bar := s.progress.ViewAs(clampPercent(percent) / 100)

	percentStr := styles.GetShareStyle(percent).Width(6).Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))
	labelStr := styles.ProgressLabelStyle.Width(15).Render(truncateLabel(label, 14))

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, " ", percentStr)
}

// ViewCompact renders a compact version without label.
func (s ShareBar) ViewCompact(percent float64, width int) string {
	s.progress.Width = max(width-8, 5)

	bar := s.progress.ViewAs(clampPercent(percent) / 100)
	percentStr := styles.GetShareStyle(percent).Render(fmt.Sprintf("%.0f%%", percent))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", percentStr)
}

// Share returns part as a percentage of total, or 0 when total is zero.
func Share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := clamp(int(float64(width)*percent/100), 0, width)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(gradientFrom, gradientTo, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}

	return b.String()
}

// SimpleShareBar renders a one-line labeled gradient bar.
func SimpleShareBar(percent float64, label string, width int) string {
	const percentWidth = 6
	barWidth := max(width-lipgloss.Width(label)-1-percentWidth-4, 5)

	bar := RenderGradientBar(percent, barWidth)
	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
	percentStr := styles.GetShareStyle(percent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// ShareBarLoading renders a shimmering placeholder bar for frame.
func ShareBarLoading(width, frame int) string {
	const cycle = 120
	barWidth := max(width-10, 10)

	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var b strings.Builder
	for i := 0; i < barWidth; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := lipgloss.NewStyle().Foreground(styles.Primary).Render(dots[(frame/2)%len(dots)])

	return "    " + b.String() + " " + dot
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}

func truncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
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
