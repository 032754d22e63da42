package app

import (
	"time"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
	"github.com/j-veylop/codex-switcher-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// AccountsLoadedMsg contains the current account pool.
type AccountsLoadedMsg struct {
	Accounts      []models.Account
	ActiveAccount *models.Account
	Candidates    []models.Account
}

// SwitchAccountMsg requests switching to a specific profile.
type SwitchAccountMsg struct {
	FilePath string
	Name     string
}

// SwitchAccountResultMsg contains the result of an account switch.
type SwitchAccountResultMsg struct {
	Name    string
	Success bool
	Error   error
}

// DeleteAccountMsg requests deletion of a profile.
type DeleteAccountMsg struct {
	FilePath string
	Name     string
}

// DeleteAccountResultMsg contains the result of a profile deletion.
type DeleteAccountResultMsg struct {
	Name    string
	Success bool
	Error   error
}

// SetPriorityMsg requests changing an account's priority.
type SetPriorityMsg struct {
	Account  models.Account
	Priority int
}

// ToggleAutoSwitchMsg requests flipping the auto switch enabled flag.
type ToggleAutoSwitchMsg struct{}

// AutoSwitchChangedMsg confirms a new auto switch configuration.
type AutoSwitchChangedMsg struct {
	Config models.AutoSwitchConfig
	Error  error
}

// RefreshMsg requests a full rescan and usage refresh.
type RefreshMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
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

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// SelectedAccountChangedMsg signals that the selected account in the UI changed.
type SelectedAccountChangedMsg struct {
	Index int
	Name  string
}
