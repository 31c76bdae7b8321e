// Package models defines data structures and domain types.
package models

import "fmt"

// WindowType identifies one of the aggregation periods.
type WindowType string

const (
	// WindowDaily covers the current calendar day.
	WindowDaily WindowType = "daily"
	// WindowWeekly covers the current Monday-based week.
	WindowWeekly WindowType = "weekly"
	// WindowMonthly covers the current calendar month.
	WindowMonthly WindowType = "monthly"
	// WindowAllTime never rotates.
	WindowAllTime WindowType = "all_time"
)

// Windows lists every window type in rotation order.
var Windows = []WindowType{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// String returns the display name for a window.
func (w WindowType) String() string {
	switch w {
	case WindowDaily:
		return "Today"
	case WindowWeekly:
		return "This Week"
	case WindowMonthly:
		return "This Month"
	case WindowAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Valid reports whether w is a known window type.
func (w WindowType) Valid() bool {
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime:
		return true
	}
	return false
}

// Next cycles to the next window type.
func (w WindowType) Next() WindowType {
	for i, win := range Windows {
		if win == w {
			return Windows[(i+1)%len(Windows)]
		}
	}
	return WindowDaily
}

// ParseWindow converts a user supplied name into a WindowType.
func ParseWindow(s string) (WindowType, error) {
	switch s {
	case "daily", "day", "today":
		return WindowDaily, nil
	case "weekly", "week":
		return WindowWeekly, nil
	case "monthly", "month":
		return WindowMonthly, nil
	case "all_time", "all", "alltime":
		return WindowAllTime, nil
	}
	return "", fmt.Errorf("unknown window %q", s)
}
