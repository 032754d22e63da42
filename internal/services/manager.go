// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/codex-switcher-tui/internal/config"
	"github.com/j-veylop/codex-switcher-tui/internal/db"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
	"github.com/j-veylop/codex-switcher-tui/internal/services/rotation"
	"github.com/j-veylop/codex-switcher-tui/internal/services/store"
	"github.com/j-veylop/codex-switcher-tui/internal/services/usage"
)

type (
	// AccountsChangedEvent is emitted when the account list changes.
	AccountsChangedEvent struct {
		Accounts      []models.Account
		ActiveAccount *models.Account
	}

	// UsageUpdatedEvent is emitted when usage lands for one account.
	UsageUpdatedEvent struct {
		Account models.Account
	}

	// CycleSettledEvent is emitted when every usage result of a refresh
	// cycle has been applied.
	CycleSettledEvent struct{}

	// AutoSwitchedEvent is emitted after an automatic rotation.
	AutoSwitchedEvent struct {
		From *models.Account
		To   models.Account
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (AccountsChangedEvent) isServiceEvent() {}
func (UsageUpdatedEvent) isServiceEvent()    {}
func (CycleSettledEvent) isServiceEvent()    {}
func (AutoSwitchedEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()           {}

// criticalUsagePercent marks when a window is about to run out.
const criticalUsagePercent = 95.0

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	store       *store.Service
	controller  *rotation.Controller
	database    *db.DB
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	// notified tracks accounts already flagged as critical so a single
	// crossing produces a single desktop notification.
	notified map[string]bool
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		notified:  make(map[string]bool),
	}

	var err error
	m.store, err = store.New(cfg.AccountsDir, cfg.CodexAuthPath)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	autoSwitch := m.database.LoadAutoSwitchConfig(cfg.AutoSwitch)

	m.controller = rotation.NewController(m.store, usage.NewProvider(), m.database, rotation.Config{
		AutoSwitch:      autoSwitch,
		Priorities:      m.database.LoadPriorities(),
		RefreshInterval: cfg.UsageRefreshInterval,
		MaxConcurrent:   4,
	})

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.store.Events():
			m.handleStoreEvent(event)

		case event := <-m.controller.Events():
			m.handleControllerEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleStoreEvent reacts to filesystem changes with a rescan.
func (m *Manager) handleStoreEvent(event store.Event) {
	switch event.Type {
	case store.EventChanged:
		go func() {
			_ = m.controller.Refresh()
		}()
	case store.EventError:
		m.broadcast(ErrorEvent{Service: "store", Error: event.Error})
	}
}

func (m *Manager) handleControllerEvent(event rotation.Event) {
	switch event.Type {
	case rotation.EventAccountsUpdated:
		m.broadcast(AccountsChangedEvent{
			Accounts:      m.controller.Accounts(),
			ActiveAccount: m.controller.ActiveAccount(),
		})

	case rotation.EventUsageUpdated:
		if event.Account != nil {
			m.broadcast(UsageUpdatedEvent{Account: *event.Account})
			m.recordHistory(*event.Account)
			m.checkNotifications(*event.Account)
		}

	case rotation.EventSettled:
		m.broadcast(CycleSettledEvent{})

	case rotation.EventAutoSwitched:
		if event.Account != nil {
			m.broadcast(AutoSwitchedEvent{From: event.From, To: *event.Account})

			title := "Account Switched"
			body := fmt.Sprintf("Now using %s", event.Account.Name)
			if event.From != nil {
				body = fmt.Sprintf("Switched from %s to %s", event.From.Name, event.Account.Name)
			}
			_ = beeep.Notify(title, body, "")
		}

	case rotation.EventError:
		m.broadcast(ErrorEvent{Service: "rotation", Error: event.Error})
	}
}

// recordHistory appends a usage sample for the history chart.
func (m *Manager) recordHistory(acc models.Account) {
	if m.database == nil || acc.Usage == nil {
		return
	}
	m.database.InsertUsagePoint(acc.CacheKey(), acc.PrimaryUsedPercent(), acc.SecondaryUsedPercent())
	m.database.PruneUsageHistory(30 * 24 * time.Hour)
}

// checkNotifications fires a desktop notification the first time an
// account crosses the critical usage mark, and rearms once it drops back.
func (m *Manager) checkNotifications(acc models.Account) {
	if acc.Usage == nil {
		return
	}

	key := acc.CacheKey()
	critical := acc.PrimaryUsedPercent() >= criticalUsagePercent ||
		acc.SecondaryUsedPercent() >= criticalUsagePercent

	m.mu.Lock()
	already := m.notified[key]
	m.notified[key] = critical
	m.mu.Unlock()

	if critical && !already {
		title := fmt.Sprintf("Critical Usage: %s", acc.Name)
		body := fmt.Sprintf("Usage is at %.0f%% (5h) / %.0f%% (weekly)",
			acc.PrimaryUsedPercent(), acc.SecondaryUsedPercent())
		_ = beeep.Notify(title, body, "")
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Accounts returns the current account list.
func (m *Manager) Accounts() []models.Account {
	return m.controller.Accounts()
}

// ActiveAccount returns the currently active account, or nil.
func (m *Manager) ActiveAccount() *models.Account {
	return m.controller.ActiveAccount()
}

// Candidates returns the ranked switch candidates.
func (m *Manager) Candidates() []models.Account {
	return m.controller.Candidates()
}

// BestTarget returns the best overall switch target.
func (m *Manager) BestTarget() *models.Account {
	return m.controller.BestTarget()
}

// Refresh forces a full rescan and usage refresh.
func (m *Manager) Refresh() {
	go func() {
		_ = m.controller.Refresh()
	}()
}

// Switch activates the account at filePath.
func (m *Manager) Switch(filePath string) error {
	return m.controller.Switch(filePath)
}

// SetPriority persists an account's priority and reapplies it.
func (m *Manager) SetPriority(acc models.Account, priority int) {
	m.database.SetPriority(acc.CacheKey(), models.NormalizePriority(float64(priority)))
	m.reloadControllerConfig()
	m.Refresh()
}

// AutoSwitchConfig returns the persisted auto switch configuration.
func (m *Manager) AutoSwitchConfig() models.AutoSwitchConfig {
	return m.database.LoadAutoSwitchConfig(m.cfg.AutoSwitch)
}

// SetAutoSwitch persists and applies the auto switch configuration.
func (m *Manager) SetAutoSwitch(cfg models.AutoSwitchConfig) {
	m.database.SaveAutoSwitchConfig(cfg)
	m.reloadControllerConfig()
}

func (m *Manager) reloadControllerConfig() {
	m.controller.SetConfig(rotation.Config{
		AutoSwitch: m.database.LoadAutoSwitchConfig(m.cfg.AutoSwitch),
		Priorities: m.database.LoadPriorities(),
	})
}

// UsageHistory returns recent usage samples for an account.
func (m *Manager) UsageHistory(acc models.Account, limit int) []db.UsagePoint {
	return m.database.GetUsageHistory(acc.CacheKey(), limit)
}

// Store exposes the underlying account store for file operations.
func (m *Manager) Store() *store.Service {
	return m.store
}

// Close shuts down all services.
func (m *Manager) Close() {
	close(m.stopChan)
	m.controller.Close()
	_ = m.store.Close()
	if m.database != nil {
		_ = m.database.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
}
