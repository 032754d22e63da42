// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

// Config holds the application configuration.
type Config struct {
	AccountsDir          string
	CodexAuthPath        string
	DatabasePath         string
	UsageRefreshInterval time.Duration
	AutoSwitch           models.AutoSwitchConfig
}

// Default values
const (
	defaultUsageRefreshInterval = 60 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		AccountsDir:          getEnvString("ACCOUNTS_DIR", getDefaultAccountsDir()),
		CodexAuthPath:        getEnvString("CODEX_AUTH_PATH", getDefaultCodexAuthPath()),
		DatabasePath:         getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		UsageRefreshInterval: getEnvDuration("USAGE_REFRESH_INTERVAL", defaultUsageRefreshInterval),
		AutoSwitch: models.AutoSwitchConfig{
			Enabled:          getEnvBool("AUTO_SWITCH_ENABLED", false),
			ThresholdPercent: getEnvInt("AUTO_SWITCH_THRESHOLD", models.DefaultAutoSwitchThreshold),
		}.Normalized(),
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure accounts directory exists
	if err := ensureDir(cfg.AccountsDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "codex-switcher", ".env"),
			filepath.Join(home, ".codex", ".env"),
		)
	}

	return paths
}

// getDefaultAccountsDir returns the default directory of credential profiles.
func getDefaultAccountsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codex-accounts"
	}
	return filepath.Join(home, ".codex-accounts")
}

// getDefaultCodexAuthPath returns the path of the runtime auth file the
// active profile is copied to.
func getDefaultCodexAuthPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".codex", "auth.json")
	}
	return filepath.Join(home, ".codex", "auth.json")
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usage.db"
	}
	return filepath.Join(home, ".config", "codex-switcher", "usage.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
