// Package db manages the database connection
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database connection
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	// Configure database
	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	// Create schema
	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas for optimal performance.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createUsageCacheTable(); err != nil {
		return err
	}
	if err := db.createPoolSettingsTables(); err != nil {
		return err
	}
	return db.createUsageHistoryTable()
}

func (db *DB) createUsageCacheTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_cache (
		key TEXT PRIMARY KEY,
		has_primary INTEGER NOT NULL DEFAULT 0,
		primary_used REAL NOT NULL DEFAULT 0,
		primary_resets_at INTEGER NOT NULL DEFAULT 0,
		has_secondary INTEGER NOT NULL DEFAULT 0,
		secondary_used REAL NOT NULL DEFAULT 0,
		secondary_resets_at INTEGER NOT NULL DEFAULT 0,
		plan_type TEXT NOT NULL DEFAULT '',
		cached_at INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createPoolSettingsTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS account_settings (
		key TEXT PRIMARY KEY,
		priority INTEGER NOT NULL DEFAULT 5
	);
	CREATE TABLE IF NOT EXISTS app_settings (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createUsageHistoryTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		primary_used REAL NOT NULL,
		secondary_used REAL NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_usage_history_key ON usage_history(key, recorded_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}
