package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
	"github.com/j-veylop/codex-switcher-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadAccountsCmd returns a command that snapshots the account pool.
func loadAccountsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return AccountsLoadedMsg{
			Accounts:      mgr.Accounts(),
			ActiveAccount: mgr.ActiveAccount(),
			Candidates:    mgr.Candidates(),
		}
	}
}

// refreshCmd returns a command that triggers a full usage refresh.
func refreshCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Refresh()
		return nil
	}
}

// switchAccountCmd returns a command that switches the active profile.
func switchAccountCmd(mgr *services.Manager, filePath, name string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Switch(filePath)
		return SwitchAccountResultMsg{
			Name:    name,
			Success: err == nil,
			Error:   err,
		}
	}
}

// deleteAccountCmd returns a command that deletes a profile file.
func deleteAccountCmd(mgr *services.Manager, filePath, name string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Store().Delete(filePath)
		return DeleteAccountResultMsg{
			Name:    name,
			Success: err == nil,
			Error:   err,
		}
	}
}

// setPriorityCmd returns a command that persists an account priority.
func setPriorityCmd(mgr *services.Manager, acc models.Account, priority int) tea.Cmd {
	return func() tea.Msg {
		mgr.SetPriority(acc, priority)
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  "Priority updated for " + acc.Name,
			Duration: QuickNotificationDuration,
		}
	}
}

// toggleAutoSwitchCmd flips the auto switch enabled flag.
func toggleAutoSwitchCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		cfg := mgr.AutoSwitchConfig().Normalized()
		cfg.Enabled = !cfg.Enabled
		mgr.SetAutoSwitch(cfg)
		return AutoSwitchChangedMsg{Config: cfg}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
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

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// LoadAccounts returns a command that loads the account pool.
func (c *Commands) LoadAccounts() tea.Cmd {
	return loadAccountsCmd(c.manager)
}

// Refresh returns a command that triggers a usage refresh.
func (c *Commands) Refresh() tea.Cmd {
	return refreshCmd(c.manager)
}

// SwitchAccount returns a command that switches the active profile.
func (c *Commands) SwitchAccount(filePath, name string) tea.Cmd {
	return switchAccountCmd(c.manager, filePath, name)
}

// DeleteAccount returns a command that deletes a profile.
func (c *Commands) DeleteAccount(filePath, name string) tea.Cmd {
	return deleteAccountCmd(c.manager, filePath, name)
}

// SetPriority returns a command that persists an account priority.
func (c *Commands) SetPriority(acc models.Account, priority int) tea.Cmd {
	return setPriorityCmd(c.manager, acc, priority)
}

// ToggleAutoSwitch returns a command that flips auto switching.
func (c *Commands) ToggleAutoSwitch() tea.Cmd {
	return toggleAutoSwitchCmd(c.manager)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}
