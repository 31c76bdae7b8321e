package app

import (
	"time"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// StatsLoadedMsg carries a freshly read window snapshot.
type StatsLoadedMsg struct {
	Snapshot *models.AggregateSnapshot
	Error    error
	Window   models.WindowType
}

// RecalculatedMsg reports the outcome of a full recalculation.
type RecalculatedMsg struct {
	Error    error
	Duration time.Duration
}

// WindowChangedMsg is sent after the selected window changes.
type WindowChangedMsg struct {
	Window models.WindowType
}

// RefreshMsg requests the selected window to be re-read.
type RefreshMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
