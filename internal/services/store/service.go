// Package store provides access to the on-disk pool of Codex credential
// profiles and to the runtime auth file that designates the active one.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/codex-switcher-tui/internal/logger"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

// ScanError reports a failure to read the accounts directory. The caller
// treats the cycle as a no-op and keeps its previous state.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("account scan failed: %v", e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ActivationError reports a failure to make a profile the active one.
// No state is mutated when activation fails.
type ActivationError struct {
	FilePath string
	Err      error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("failed to activate %s: %v", e.FilePath, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// ScanResult is the outcome of one directory scan.
type ScanResult struct {
	Accounts    []models.Account
	AccountsDir string
}

// Event represents a store event.
type Event struct {
	Type  EventType
	Error error
}

// EventType defines the type of store event.
type EventType int

const (
	// EventChanged indicates the accounts directory or the runtime auth
	// file changed on disk.
	EventChanged EventType = iota
	// EventError indicates a watcher failure.
	EventError
)

// Service reads and mutates the profile directory, and watches it for
// external changes.
type Service struct {
	mu            sync.RWMutex
	accountsDir   string
	codexAuthPath string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// New creates a store service and starts watching the accounts directory.
func New(accountsDir, codexAuthPath string) (*Service, error) {
	s := &Service{
		accountsDir:   accountsDir,
		codexAuthPath: codexAuthPath,
		eventChan:     make(chan Event, 100),
		stopChan:      make(chan struct{}),
	}

	if err := os.MkdirAll(accountsDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create accounts directory: %w", err)
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	return s, nil
}

// Events returns the event channel for subscribing to store changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// AccountsDir returns the current profile directory.
func (s *Service) AccountsDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountsDir
}

// SetAccountsDir switches the profile directory, copying existing profiles
// into the new location (without overwriting) so no account is lost.
func (s *Service) SetAccountsDir(path string) error {
	s.mu.Lock()
	oldDir := s.accountsDir
	s.mu.Unlock()

	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("failed to create new accounts directory: %w", err)
	}

	if oldDir != path {
		entries, err := os.ReadDir(oldDir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
					continue
				}
				target := filepath.Join(path, entry.Name())
				if _, err := os.Stat(target); err == nil {
					continue
				}
				data, err := os.ReadFile(filepath.Join(oldDir, entry.Name()))
				if err != nil {
					continue
				}
				_ = os.WriteFile(target, data, 0o600)
			}
		}
	}

	s.mu.Lock()
	s.accountsDir = path
	watcher := s.watcher
	s.mu.Unlock()

	if watcher != nil {
		_ = watcher.Remove(oldDir)
		if err := watcher.Add(path); err != nil {
			logger.Warn("failed to watch new accounts directory", "dir", path, "error", err)
		}
	}

	s.sendEvent(Event{Type: EventChanged})
	return nil
}

// Scan reads every profile in the accounts directory and marks the one
// whose account id matches the runtime auth file as active.
func (s *Service) Scan() (*ScanResult, error) {
	s.mu.RLock()
	accountsDir := s.accountsDir
	codexAuthPath := s.codexAuthPath
	s.mu.RUnlock()

	if err := os.MkdirAll(accountsDir, 0o750); err != nil {
		return nil, &ScanError{Err: err}
	}

	activeAccountID := readActiveAccountID(codexAuthPath)

	entries, err := os.ReadDir(accountsDir)
	if err != nil {
		return nil, &ScanError{Err: err}
	}

	accounts := make([]models.Account, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(accountsDir, entry.Name())

		// Skip the runtime auth mirror so it never lists as its own profile.
		if pathsMatch(path, codexAuthPath) {
			continue
		}

		acc, err := readProfile(path)
		if err != nil {
			logger.Warn("skipping unreadable profile", "path", path, "error", err)
			continue
		}

		acc.IsActive = activeAccountID != "" && acc.ID == activeAccountID
		accounts = append(accounts, acc)
	}

	return &ScanResult{Accounts: accounts, AccountsDir: accountsDir}, nil
}

// Activate makes the given profile the active one by copying it over the
// runtime auth file.
func (s *Service) Activate(filePath string) error {
	s.mu.RLock()
	codexAuthPath := s.codexAuthPath
	s.mu.RUnlock()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return &ActivationError{FilePath: filePath, Err: err}
	}

	if dir := filepath.Dir(codexAuthPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return &ActivationError{FilePath: filePath, Err: err}
		}
	}

	// Write to temp file first, then rename
	tmpFile := codexAuthPath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return &ActivationError{FilePath: filePath, Err: err}
	}
	if err := os.Rename(tmpFile, codexAuthPath); err != nil {
		_ = os.Remove(tmpFile)
		return &ActivationError{FilePath: filePath, Err: err}
	}

	return nil
}

// Add validates and stores a new profile. An empty name falls back to the
// email from the token, then to a timestamped placeholder.
func (s *Service) Add(name, content string) (string, error) {
	var auth models.CodexAuthFile
	if err := json.Unmarshal([]byte(content), &auth); err != nil {
		return "", fmt.Errorf("invalid auth file JSON: %w", err)
	}

	fileName := strings.TrimSpace(name)
	if fileName == "" {
		email, _, _, _ := models.ExtractAuthInfo(&auth)
		if email != "Unknown" {
			fileName = email
		} else {
			fileName = fmt.Sprintf("account_%d", time.Now().Unix())
		}
	}

	s.mu.RLock()
	accountsDir := s.accountsDir
	s.mu.RUnlock()

	if err := os.MkdirAll(accountsDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create accounts directory: %w", err)
	}

	targetPath := filepath.Join(accountsDir, fileName+".json")
	if _, err := os.Stat(targetPath); err == nil {
		return "", fmt.Errorf("account %q already exists", fileName)
	}

	pretty, err := json.MarshalIndent(&auth, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize auth file: %w", err)
	}

	if err := os.WriteFile(targetPath, pretty, 0o600); err != nil {
		return "", fmt.Errorf("failed to write profile: %w", err)
	}

	return targetPath, nil
}

// Rename renames a profile file, keeping the .json extension.
func (s *Service) Rename(oldPath, newName string) (string, error) {
	if _, err := os.Stat(oldPath); err != nil {
		return "", fmt.Errorf("source profile does not exist: %w", err)
	}

	target := filepath.Join(filepath.Dir(oldPath), newName+".json")
	if _, err := os.Stat(target); err == nil {
		return "", errors.New("target name already exists")
	}

	if err := os.Rename(oldPath, target); err != nil {
		return "", fmt.Errorf("failed to rename profile: %w", err)
	}
	return target, nil
}

// Delete removes a profile file.
func (s *Service) Delete(filePath string) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("profile not found: %w", err)
	}
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// ReadContent returns the pretty-printed JSON content of a profile.
func (s *Service) ReadContent(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read profile: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse profile JSON: %w", err)
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format profile JSON: %w", err)
	}
	return string(pretty), nil
}

// UpdateContent validates and rewrites a profile's content in place.
func (s *Service) UpdateContent(filePath, content string) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("profile not found: %w", err)
	}

	var auth models.CodexAuthFile
	if err := json.Unmarshal([]byte(content), &auth); err != nil {
		return fmt.Errorf("invalid auth file JSON: %w", err)
	}

	pretty, err := json.MarshalIndent(&auth, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize auth file: %w", err)
	}

	if err := os.WriteFile(filePath, pretty, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// readProfile loads a single auth file into an Account.
func readProfile(path string) (models.Account, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Account{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Account{}, err
	}

	var auth models.CodexAuthFile
	if err := json.Unmarshal(data, &auth); err != nil {
		return models.Account{}, err
	}

	email, planType, subscriptionEnd, expiresAt := models.ExtractAuthInfo(&auth)

	name := strings.TrimSuffix(filepath.Base(path), ".json")
	if name == "" {
		name = "Untitled"
	}

	return models.Account{
		ID:              auth.Tokens.AccountID,
		Name:            name,
		Email:           email,
		PlanType:        planType,
		SubscriptionEnd: subscriptionEnd,
		FilePath:        path,
		LastRefresh:     auth.LastRefresh,
		AuthUpdatedAt:   info.ModTime().UnixMilli(),
		ExpiresAt:       expiresAt,
		Priority:        models.DefaultPriority,
	}, nil
}

// readActiveAccountID reads tokens.account_id from the runtime auth file,
// returning "" when it is missing or unparsable.
func readActiveAccountID(codexAuthPath string) string {
	data, err := os.ReadFile(codexAuthPath)
	if err != nil {
		return ""
	}
	var auth models.CodexAuthFile
	if err := json.Unmarshal(data, &auth); err != nil {
		return ""
	}
	return auth.Tokens.AccountID
}

// pathsMatch compares two paths after normalization, so the auth mirror is
// recognized even when referenced through different spellings.
func pathsMatch(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return false
	}
	return filepath.Clean(absA) == filepath.Clean(absB)
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	if err := watcher.Add(s.accountsDir); err != nil {
		_ = watcher.Close()
		return err
	}

	// Watch the runtime auth directory too; an external switch changes the
	// active profile without touching the accounts dir.
	authDir := filepath.Dir(s.codexAuthPath)
	if err := os.MkdirAll(authDir, 0o750); err == nil {
		if err := watcher.Add(authDir); err != nil {
			logger.Warn("failed to watch runtime auth directory", "dir", authDir, "error", err)
		}
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 200 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if !s.isRelevant(event) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, func() {
					s.sendEvent(Event{Type: EventChanged})
				})
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// isRelevant filters watcher noise down to profile files and the auth mirror.
func (s *Service) isRelevant(event fsnotify.Event) bool {
	s.mu.RLock()
	codexAuthPath := s.codexAuthPath
	s.mu.RUnlock()

	if pathsMatch(event.Name, codexAuthPath) {
		return true
	}
	return strings.HasSuffix(event.Name, ".json")
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	watcher := s.watcher
	s.mu.Unlock()

	if watcher != nil {
		return watcher.Close()
	}
	return nil
}
