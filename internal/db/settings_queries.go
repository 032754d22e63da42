package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/j-veylop/codex-switcher-tui/internal/logger"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

const autoSwitchSettingName = "auto_switch"

// LoadPriorities returns the persisted per-account priorities. Accounts
// without a row take models.DefaultPriority.
func (db *DB) LoadPriorities() map[string]int {
	result := make(map[string]int)
	if db == nil {
		return result
	}

	rows, err := db.QueryContext(context.Background(),
		`SELECT key, priority FROM account_settings`)
	if err != nil {
		logger.Warn("failed to load account priorities", "error", err)
		return result
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var key string
		var priority int
		if err := rows.Scan(&key, &priority); err != nil {
			continue
		}
		result[key] = models.NormalizePriority(float64(priority))
	}
	return result
}

// SetPriority persists the priority for an account key, normalized into [1,10].
func (db *DB) SetPriority(key string, priority int) {
	if db == nil {
		return
	}

	normalized := models.NormalizePriority(float64(priority))
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO account_settings (key, priority) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET priority = excluded.priority`,
		key, normalized)
	if err != nil {
		logger.Warn("failed to save account priority", "key", key, "error", err)
	}
}

// LoadAutoSwitchConfig returns the persisted auto-switch configuration, or
// the given default when nothing (or garbage) is stored.
func (db *DB) LoadAutoSwitchConfig(fallback models.AutoSwitchConfig) models.AutoSwitchConfig {
	if db == nil {
		return fallback.Normalized()
	}

	var value string
	err := db.QueryRowContext(context.Background(),
		`SELECT value FROM app_settings WHERE name = ?`, autoSwitchSettingName).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("failed to load auto-switch config", "error", err)
		}
		return fallback.Normalized()
	}

	var cfg models.AutoSwitchConfig
	if err := json.Unmarshal([]byte(value), &cfg); err != nil {
		logger.Warn("failed to parse auto-switch config", "error", err)
		return fallback.Normalized()
	}
	return cfg.Normalized()
}

// SaveAutoSwitchConfig persists the auto-switch configuration.
func (db *DB) SaveAutoSwitchConfig(cfg models.AutoSwitchConfig) {
	if db == nil {
		return
	}

	value, err := json.Marshal(cfg.Normalized())
	if err != nil {
		return
	}
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO app_settings (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		autoSwitchSettingName, string(value))
	if err != nil {
		logger.Warn("failed to save auto-switch config", "error", err)
	}
}
