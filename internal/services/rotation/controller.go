package rotation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/j-veylop/codex-switcher-tui/internal/logger"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
	"github.com/j-veylop/codex-switcher-tui/internal/services/store"
)

// Store provides account discovery and activation.
type Store interface {
	Scan() (*store.ScanResult, error)
	Activate(filePath string) error
}

// UsageFetcher retrieves a usage snapshot for one account.
type UsageFetcher interface {
	Fetch(ctx context.Context, acc models.Account) (*models.UsageSnapshot, error)
}

// Cache persists usage snapshots across restarts. Write failures are the
// implementation's problem; the live state is the source of truth.
type Cache interface {
	LoadUsageCache() map[string]models.CacheEntry
	SaveUsageEntry(key string, entry models.CacheEntry)
	MigrateUsageKey(oldKey, newKey string)
}

// Phase describes where the controller is in its refresh cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseAwaitingUsage
	PhaseSettled
)

// EventType defines the type of controller event.
type EventType int

const (
	// EventAccountsUpdated fires after a scan replaces the account list.
	EventAccountsUpdated EventType = iota
	// EventUsageUpdated fires after one account's usage result lands.
	EventUsageUpdated
	// EventSettled fires once all usage results of a cycle are in.
	EventSettled
	// EventAutoSwitched fires after an automatic rotation.
	EventAutoSwitched
	// EventError reports a scan or switch failure.
	EventError
)

// Event represents a controller event.
type Event struct {
	Type    EventType
	Account *models.Account
	From    *models.Account
	Error   error
}

// Config controls refresh cadence and auto-switch behavior.
type Config struct {
	AutoSwitch      models.AutoSwitchConfig
	Priorities      map[string]int
	RefreshInterval time.Duration
	MaxConcurrent   int
}

// Controller owns the account list, drives usage refresh cycles, and
// performs manual and automatic switches.
type Controller struct {
	mu       sync.RWMutex
	accounts []models.Account
	cache    map[string]models.CacheEntry
	config   Config
	phase    Phase

	// generation increments per refresh; stale fan-out results from a
	// superseded cycle still apply but never settle it.
	generation int64
	pending    int

	switchMu sync.Mutex

	store   Store
	fetcher UsageFetcher
	db      Cache

	eventChan chan Event
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewController creates a controller. The first refresh is driven by the
// caller (or the interval timer); construction does no I/O beyond loading
// the usage cache.
func NewController(st Store, fetcher UsageFetcher, db Cache, config Config) *Controller {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	config.AutoSwitch = config.AutoSwitch.Normalized()

	c := &Controller{
		store:     st,
		fetcher:   fetcher,
		db:        db,
		config:    config,
		cache:     make(map[string]models.CacheEntry),
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if db != nil {
		c.cache = db.LoadUsageCache()
	}

	if config.RefreshInterval > 0 {
		go c.run()
	}

	return c
}

// Events returns the controller's event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventChan
}

// Phase returns the current cycle phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Accounts returns a copy of the current account list.
func (c *Controller) Accounts() []models.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Account, len(c.accounts))
	for i := range c.accounts {
		out[i] = c.accounts[i].Clone()
	}
	return out
}

// ActiveAccount returns the currently active account, or nil.
func (c *Controller) ActiveAccount() *models.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.accounts {
		if c.accounts[i].IsActive {
			acc := c.accounts[i].Clone()
			return &acc
		}
	}
	return nil
}

// Candidates returns the ranked switch candidates.
func (c *Controller) Candidates() []models.Account {
	return RankedCandidates(c.Accounts(), time.Now(), DefaultCandidateLimit)
}

// BestTarget returns the best switch target across all accounts.
func (c *Controller) BestTarget() *models.Account {
	return BestSwitchTarget(c.Accounts(), time.Now())
}

// SetConfig replaces the controller configuration.
func (c *Controller) SetConfig(config Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = c.config.MaxConcurrent
	}
	config.AutoSwitch = config.AutoSwitch.Normalized()
	config.RefreshInterval = c.config.RefreshInterval
	c.config = config

	for i := range c.accounts {
		c.accounts[i].Priority = priorityFor(config.Priorities, &c.accounts[i])
	}
}

// Refresh rescans the accounts directory, seeds each account from the
// usage cache, and kicks off a concurrent usage fan-out. On scan failure
// the previous account list is retained untouched.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	c.phase = PhaseScanning
	c.mu.Unlock()

	result, err := c.store.Scan()
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseIdle
		c.mu.Unlock()
		c.sendEvent(Event{Type: EventError, Error: err})
		return err
	}

	accounts := result.Accounts
	now := time.Now()

	c.mu.Lock()
	prev := make(map[string]models.Account, len(c.accounts))
	for i := range c.accounts {
		prev[c.accounts[i].FilePath] = c.accounts[i]
	}

	for i := range accounts {
		acc := &accounts[i]
		acc.Priority = priorityFor(c.config.Priorities, acc)

		// Entries keyed by file path predate id keying; move them over once.
		if acc.ID != "" {
			if _, ok := c.cache[acc.ID]; !ok {
				if entry, ok := c.cache[acc.FilePath]; ok {
					c.cache[acc.ID] = entry
					delete(c.cache, acc.FilePath)
					if c.db != nil {
						c.db.MigrateUsageKey(acc.FilePath, acc.ID)
					}
				}
			}
		}

		if entry, ok := c.cache[acc.CacheKey()]; ok {
			usage := entry.Usage.Clone()
			acc.Usage = &usage
			acc.LastUsageUpdate = entry.CachedAt
		}
		if p, ok := prev[acc.FilePath]; ok {
			acc.IsTokenExpired = p.IsTokenExpired
		}
	}

	SortByExhaustion(accounts, now)
	c.accounts = accounts
	c.generation++
	gen := c.generation
	c.pending = len(accounts)
	if c.pending == 0 {
		c.phase = PhaseSettled
	} else {
		c.phase = PhaseAwaitingUsage
	}
	snapshot := make([]models.Account, len(accounts))
	for i := range accounts {
		snapshot[i] = accounts[i].Clone()
	}
	c.mu.Unlock()

	c.sendEvent(Event{Type: EventAccountsUpdated})

	if len(snapshot) == 0 {
		c.sendEvent(Event{Type: EventSettled})
		return nil
	}

	go c.fanOutUsage(gen, snapshot)
	return nil
}

// fanOutUsage fetches usage for every account with bounded concurrency.
func (c *Controller) fanOutUsage(gen int64, accounts []models.Account) {
	c.mu.RLock()
	maxConcurrent := c.config.MaxConcurrent
	c.mu.RUnlock()

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i := range accounts {
		acc := accounts[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
			defer cancel()

			snapshot, err := c.fetcher.Fetch(ctx, acc)
			c.applyUsageResult(gen, acc, snapshot, err)
		}()
	}

	wg.Wait()
}

// applyUsageResult merges one fetch outcome into the account list. A
// credential rejection marks the account expired; any other failure keeps
// the cached usage and leaves the expired flag alone.
func (c *Controller) applyUsageResult(gen int64, fetched models.Account, snapshot *models.UsageSnapshot, err error) {
	now := time.Now()

	c.mu.Lock()
	var updated *models.Account
	for i := range c.accounts {
		if c.accounts[i].FilePath != fetched.FilePath {
			continue
		}
		acc := &c.accounts[i]
		acc.LastUsageUpdate = now.UnixMilli()

		if err == nil && snapshot != nil {
			usage := snapshot.Clone()
			acc.Usage = &usage
			acc.IsTokenExpired = false

			entry := models.CacheEntry{Usage: usage, CachedAt: now.UnixMilli()}
			c.cache[acc.CacheKey()] = entry
			if c.db != nil {
				c.db.SaveUsageEntry(acc.CacheKey(), entry)
			}
		} else if err != nil {
			var authErr interface{ Unauthorized() bool }
			if errors.As(err, &authErr) && authErr.Unauthorized() {
				acc.IsTokenExpired = true
			}
			logger.Debug("usage fetch failed", "account", acc.Name, "error", err)
		}

		clone := acc.Clone()
		updated = &clone
		break
	}

	SortByExhaustion(c.accounts, now)

	settled := false
	if gen == c.generation {
		c.pending--
		if c.pending <= 0 {
			c.pending = 0
			c.phase = PhaseSettled
			settled = true
		}
	}
	c.mu.Unlock()

	if updated != nil {
		c.sendEvent(Event{Type: EventUsageUpdated, Account: updated})
	}
	if settled {
		c.sendEvent(Event{Type: EventSettled})
		c.evaluateAutoSwitch()
	}
}

// evaluateAutoSwitch runs once per settled cycle. It rotates away from
// the active account when it has crossed the usage limit or expired, and
// stays put when no viable candidate exists.
func (c *Controller) evaluateAutoSwitch() {
	c.mu.RLock()
	cfg := c.config.AutoSwitch
	accounts := make([]models.Account, len(c.accounts))
	for i := range c.accounts {
		accounts[i] = c.accounts[i].Clone()
	}
	c.mu.RUnlock()

	if !cfg.Enabled {
		return
	}

	var active *models.Account
	for i := range accounts {
		if accounts[i].IsActive {
			active = &accounts[i]
			break
		}
	}

	now := time.Now()
	limit := cfg.UsedPercentLimit()

	if !ShouldAutoSwitch(active, limit) {
		return
	}

	target := AutoSwitchTarget(accounts, limit, now)
	if target == nil {
		logger.Info("auto switch triggered but no viable candidate available")
		return
	}

	logger.Info("auto switching account", "from", nameOf(active), "to", target.Name)

	if err := c.Switch(target.FilePath); err != nil {
		c.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	c.sendEvent(Event{Type: EventAutoSwitched, Account: target, From: active})
}

// Switch activates the account at filePath. On success the active flag is
// flipped optimistically and a reconciling refresh is started; on failure
// nothing changes.
func (c *Controller) Switch(filePath string) error {
	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	if err := c.store.Activate(filePath); err != nil {
		return err
	}

	c.mu.Lock()
	for i := range c.accounts {
		c.accounts[i].IsActive = c.accounts[i].FilePath == filePath
	}
	c.mu.Unlock()

	c.sendEvent(Event{Type: EventAccountsUpdated})

	go func() {
		if err := c.Refresh(); err != nil {
			logger.Warn("post-switch refresh failed", "error", err)
		}
	}()

	return nil
}

// run drives periodic refreshes.
func (c *Controller) run() {
	c.mu.RLock()
	interval := c.config.RefreshInterval
	c.mu.RUnlock()

	if err := c.Refresh(); err != nil {
		logger.Warn("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Refresh(); err != nil {
				logger.Warn("periodic refresh failed", "error", err)
			}
		case <-c.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (c *Controller) sendEvent(event Event) {
	select {
	case c.eventChan <- event:
	default:
		select {
		case <-c.eventChan:
		default:
		}
		select {
		case c.eventChan <- event:
		default:
		}
	}
}

// Close stops the refresh loop.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
}

func priorityFor(priorities map[string]int, acc *models.Account) int {
	if priorities != nil {
		if p, ok := priorities[acc.CacheKey()]; ok {
			return models.NormalizePriority(float64(p))
		}
	}
	return models.DefaultPriority
}

func nameOf(acc *models.Account) string {
	if acc == nil {
		return "none"
	}
	return acc.Name
}
