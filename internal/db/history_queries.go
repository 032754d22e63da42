package db

import (
	"context"
	"time"

	"github.com/j-veylop/codex-switcher-tui/internal/logger"
)

// UsagePoint is one historical usage reading for an account.
type UsagePoint struct {
	RecordedAt    time.Time
	PrimaryUsed   float64
	SecondaryUsed float64
}

// InsertUsagePoint appends a usage reading to the history series.
func (db *DB) InsertUsagePoint(key string, primaryUsed, secondaryUsed float64) {
	if db == nil {
		return
	}

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO usage_history (key, primary_used, secondary_used)
		VALUES (?, ?, ?)`, key, primaryUsed, secondaryUsed)
	if err != nil {
		logger.Warn("failed to record usage history", "key", key, "error", err)
	}
}

// GetUsageHistory returns up to limit most recent readings for an account,
// oldest first.
func (db *DB) GetUsageHistory(key string, limit int) []UsagePoint {
	if db == nil {
		return nil
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.QueryContext(context.Background(), `
		SELECT primary_used, secondary_used, recorded_at
		FROM usage_history
		WHERE key = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, key, limit)
	if err != nil {
		logger.Warn("failed to load usage history", "key", key, "error", err)
		return nil
	}
	defer func() {
		_ = rows.Close()
	}()

	var points []UsagePoint
	for rows.Next() {
		var p UsagePoint
		if err := rows.Scan(&p.PrimaryUsed, &p.SecondaryUsed, &p.RecordedAt); err != nil {
			continue
		}
		points = append(points, p)
	}

	// Reverse into chronological order for charting.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}

// PruneUsageHistory deletes readings older than the retention window.
func (db *DB) PruneUsageHistory(retention time.Duration) {
	if db == nil {
		return
	}

	cutoff := time.Now().Add(-retention).UTC().Format("2006-01-02 15:04:05")
	_, err := db.ExecContext(context.Background(),
		`DELETE FROM usage_history WHERE recorded_at < ?`, cutoff)
	if err != nil {
		logger.Warn("failed to prune usage history", "error", err)
	}
}
