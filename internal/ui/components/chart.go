// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/chatstats-tui/internal/ui/styles"
)

// asciigraph colors matching styles.SeriesColors order.
var seriesGraphColors = []asciigraph.AnsiColor{
	asciigraph.SlateBlue,
	asciigraph.DodgerBlue,
	asciigraph.Coral,
	asciigraph.LimeGreen,
	asciigraph.Gold,
	asciigraph.Red,
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	return RenderMultiLineChart([][]float64{data}, width, height, caption)
}

// RenderMultiLineChart plots several series on one chart. Shorter series are
// padded with zeros so every line spans the same x range.
func RenderMultiLineChart(series [][]float64, width, height int, caption string) string {
	maxLen := 0
	for _, s := range series {
		maxLen = max(maxLen, len(s))
	}
	if maxLen == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	data := make([][]float64, len(series))
	colors := make([]asciigraph.AnsiColor, len(series))
	for i, s := range series {
		data[i] = make([]float64, maxLen)
		copy(data[i], s)
		colors[i] = seriesGraphColors[i%len(seriesGraphColors)]
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := maxOf(values)

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	// room for label and value
	barWidth := max(width-maxLabelLen-10, 10)

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := fmt.Sprintf("%*s", maxLabelLen, label)
		barLen := max(int((v/maxVal)*float64(barWidth)), 0)

		bar := lipgloss.NewStyle().Foreground(styles.SeriesColor(0)).Render(strings.Repeat("█", barLen))
		lines = append(lines, paddedLabel+" │"+bar+fmt.Sprintf(" %.0f", v))
	}

	return strings.Join(lines, "\n")
}

// HeatmapBlocks are Unicode block characters for heatmaps (low to high intensity).
var HeatmapBlocks = []rune{'░', '▒', '▓', '█'}

// RenderHourlyHeatmap creates a 24-hour usage heatmap.
func RenderHourlyHeatmap(patterns []float64) string {
	if len(patterns) != 24 {
		padded := make([]float64, 24)
		copy(padded, patterns)
		patterns = padded
	}

	maxVal := maxOf(patterns)

	var result strings.Builder
	result.WriteString("00 ")

	for i, v := range patterns {
		intensity := clamp(int((v/maxVal)*float64(len(HeatmapBlocks)-1)), 0, len(HeatmapBlocks)-1)

		var style lipgloss.Style
		switch intensity {
		case 0:
			style = lipgloss.NewStyle().Foreground(styles.Subtle)
		case 1:
			style = lipgloss.NewStyle().Foreground(styles.Success)
		case 2:
			style = lipgloss.NewStyle().Foreground(styles.Warning)
		case 3:
			style = lipgloss.NewStyle().Foreground(styles.Error)
		}

		result.WriteString(style.Render(string(HeatmapBlocks[intensity])))

		// gap at noon
		if i == 11 {
			result.WriteString(" ")
		}
	}

	result.WriteString(" 23")
	return result.String()
}

// RenderWeeklyPattern creates a weekly usage visualization.
func RenderWeeklyPattern(patterns []float64, dayNames []string) string {
	if len(patterns) != 7 {
		padded := make([]float64, 7)
		copy(padded, patterns)
		patterns = padded
	}
	if len(dayNames) != 7 {
		dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	}

	maxVal := maxOf(patterns)

	parts := make([]string, 0, len(patterns))
	for i, v := range patterns {
		intensity := clamp(int((v/maxVal)*float64(len(sparkChars)-1)), 0, len(sparkChars)-1)
		parts = append(parts, fmt.Sprintf("%s %s", dayNames[i], string(sparkChars[intensity])))
	}

	return strings.Join(parts, " ")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	return renderSparkline(values, width, nil)
}

// RenderColoredSparkline creates a sparkline colored by each point's share of the peak.
func RenderColoredSparkline(values []float64, width int) string {
	return renderSparkline(values, width, func(share float64) lipgloss.Style {
		return styles.GetShareStyle(share * 100)
	})
}

func renderSparkline(values []float64, width int, color func(float64) lipgloss.Style) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := maxOf(values)

	var result strings.Builder
	step := max(float64(len(values))/float64(width), 1)

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		ch := string(sparkChars[clamp(int((val/maxVal)*float64(len(sparkChars)-1)), 0, len(sparkChars)-1)])
		if color != nil {
			ch = color(val / maxVal).Render(ch)
		}
		result.WriteString(ch)
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// SeriesLegend builds a legend for labels colored in series order.
func SeriesLegend(labels ...string) string {
	items := make([]LegendItem, len(labels))
	for i, l := range labels {
		items[i] = LegendItem{Label: l, Color: styles.SeriesColor(i)}
	}
	return RenderLegend(items)
}

// maxOf returns the largest value, or 1 when nothing is positive.
func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = max(m, v)
	}
	if m == 0 {
		return 1
	}
	return m
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
