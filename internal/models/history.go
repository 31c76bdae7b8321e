package models

import (
	"time"

	"github.com/j-veylop/chatstats-tui/internal/timewindow"
)

// TimeRange is a preset span for custom range statistics.
type TimeRange int

const (
	// TimeRange7Days covers the last 7 days including today.
	TimeRange7Days TimeRange = iota
	// TimeRange30Days covers the last 30 days.
	TimeRange30Days
	// TimeRange90Days covers the last 90 days.
	TimeRange90Days
	// TimeRangeYear covers the current calendar year.
	TimeRangeYear
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRange90Days:
		return "90 Days"
	case TimeRangeYear:
		return "This Year"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = year to date).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRange90Days:
		return 90
	case TimeRangeYear:
		return 0
	default:
		return 30
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// Bounds returns the first and last day covered when evaluated at now.
func (t TimeRange) Bounds(now time.Time) (start, end time.Time) {
	end = timewindow.StartOfDay(now)
	if days := t.Days(); days > 0 {
		return end.AddDate(0, 0, -(days - 1)), end
	}
	return timewindow.StartOfYear(now), end
}
