package db

import (
	"context"

	"github.com/j-veylop/codex-switcher-tui/internal/logger"
	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

// LoadUsageCache returns all persisted usage entries keyed by account key.
// A missing or unreadable store degrades to an empty map; refresh cycles
// must never fail because the cache is gone.
func (db *DB) LoadUsageCache() map[string]models.CacheEntry {
	result := make(map[string]models.CacheEntry)
	if db == nil {
		return result
	}

	rows, err := db.QueryContext(context.Background(), `
		SELECT key, has_primary, primary_used, primary_resets_at,
		       has_secondary, secondary_used, secondary_resets_at,
		       plan_type, cached_at
		FROM usage_cache`)
	if err != nil {
		logger.Warn("failed to load usage cache", "error", err)
		return result
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			key               string
			hasPrimary        int
			primaryUsed       float64
			primaryResetsAt   int64
			hasSecondary      int
			secondaryUsed     float64
			secondaryResetsAt int64
			planType          string
			cachedAt          int64
		)
		if err := rows.Scan(&key, &hasPrimary, &primaryUsed, &primaryResetsAt,
			&hasSecondary, &secondaryUsed, &secondaryResetsAt, &planType, &cachedAt); err != nil {
			logger.Warn("failed to scan usage cache row", "error", err)
			continue
		}

		entry := models.CacheEntry{CachedAt: cachedAt}
		entry.Usage.PlanType = planType
		if hasPrimary != 0 {
			entry.Usage.PrimaryWindow = &models.RateLimitWindow{
				UsedPercent: primaryUsed,
				ResetsAt:    primaryResetsAt,
			}
		}
		if hasSecondary != 0 {
			entry.Usage.SecondaryWindow = &models.RateLimitWindow{
				UsedPercent: secondaryUsed,
				ResetsAt:    secondaryResetsAt,
			}
		}
		result[key] = entry
	}

	if err := rows.Err(); err != nil {
		logger.Warn("failed to read usage cache", "error", err)
	}

	return result
}

// SaveUsageEntry upserts the cached usage for an account key. Errors are
// logged, never propagated; the live state is the source of truth.
func (db *DB) SaveUsageEntry(key string, entry models.CacheEntry) {
	if db == nil {
		return
	}

	var (
		hasPrimary, hasSecondary           int
		primaryUsed, secondaryUsed         float64
		primaryResetsAt, secondaryResetsAt int64
	)
	if w := entry.Usage.PrimaryWindow; w != nil {
		hasPrimary = 1
		primaryUsed = models.ClampPercent(w.UsedPercent)
		primaryResetsAt = w.ResetsAt
	}
	if w := entry.Usage.SecondaryWindow; w != nil {
		hasSecondary = 1
		secondaryUsed = models.ClampPercent(w.UsedPercent)
		secondaryResetsAt = w.ResetsAt
	}

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO usage_cache (key, has_primary, primary_used, primary_resets_at,
			has_secondary, secondary_used, secondary_resets_at, plan_type, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			has_primary = excluded.has_primary,
			primary_used = excluded.primary_used,
			primary_resets_at = excluded.primary_resets_at,
			has_secondary = excluded.has_secondary,
			secondary_used = excluded.secondary_used,
			secondary_resets_at = excluded.secondary_resets_at,
			plan_type = excluded.plan_type,
			cached_at = excluded.cached_at`,
		key, hasPrimary, primaryUsed, primaryResetsAt,
		hasSecondary, secondaryUsed, secondaryResetsAt,
		entry.Usage.PlanType, entry.CachedAt)
	if err != nil {
		logger.Warn("failed to save usage cache entry", "key", key, "error", err)
	}
}

// MigrateUsageKey renames a cache row from an old (file-path) key to the
// account-id key. When a row already exists under the new key the old row is
// simply dropped, so the migration happens at most once per account.
func (db *DB) MigrateUsageKey(oldKey, newKey string) {
	if db == nil || oldKey == newKey {
		return
	}

	_, err := db.ExecContext(context.Background(), `
		UPDATE OR IGNORE usage_cache SET key = ? WHERE key = ?`, newKey, oldKey)
	if err != nil {
		logger.Warn("failed to migrate usage cache key", "from", oldKey, "to", newKey, "error", err)
		return
	}
	// Drop the old row if the rename was skipped due to a conflict.
	_, err = db.ExecContext(context.Background(), `DELETE FROM usage_cache WHERE key = ?`, oldKey)
	if err != nil {
		logger.Warn("failed to drop stale usage cache row", "key", oldKey, "error", err)
	}
}
