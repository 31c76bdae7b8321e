package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 30 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// LoadTimeout bounds a single read issued from the UI.
	LoadTimeout = 10 * time.Second

	recalcTimeout = 5 * time.Minute
)

// Operations named in error toasts.
const (
	OpFetch       = "fetch"
	OpRange       = "range"
	OpRecalculate = "recalculate"
)

// Services is the part of the service manager the UI drives.
type Services interface {
	Statistics(ctx context.Context, window models.WindowType) (*models.AggregateSnapshot, error)
	StatsForRange(ctx context.Context, start, end time.Time) (*models.AggregateSnapshot, error)
	History(ctx context.Context, window models.WindowType, limit int) ([]*models.AggregateSnapshot, error)
	Recalculate(ctx context.Context) error
	Subscribe() (chan services.ServiceEvent, tea.Cmd)
}

var _ Services = (*services.Manager)(nil)

// UserMessage turns a failed operation into toast text.
func UserMessage(op string, err error) string {
	var what string
	switch op {
	case OpFetch:
		what = "Could not load statistics"
	case OpRange:
		what = "Could not load statistics for the selected range"
	case OpRecalculate:
		what = "Recalculation failed"
	default:
		what = "Something went wrong"
	}
	if err == nil {
		return what
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return what + ": timed out"
	}
	return fmt.Sprintf("%s: %v", what, err)
}

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// loadStatsCmd reads the live snapshot of a window.
func loadStatsCmd(svc Services, window models.WindowType) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
		defer cancel()

		snap, err := svc.Statistics(ctx, window)
		return StatsLoadedMsg{Window: window, Snapshot: snap, Error: err}
	}
}

// recalculateCmd rebuilds every live snapshot.
func recalculateCmd(svc Services) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), recalcTimeout)
		defer cancel()

		start := time.Now()
		err := svc.Recalculate(ctx)
		return RecalculatedMsg{Error: err, Duration: time.Since(start)}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(svc Services) tea.Cmd {
	ch, _ := svc.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// NotifySuccess returns a command that adds a success notification.
func NotifySuccess(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// NotifyError returns a command that adds an error notification.
func NotifyError(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// NotifyInfo returns a command that adds an info notification.
func NotifyInfo(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}
