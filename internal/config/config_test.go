package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ACCOUNTS_DIR", filepath.Join(tmpDir, "accounts"))
	t.Setenv("CODEX_AUTH_PATH", filepath.Join(tmpDir, "auth.json"))
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "data", "usage.db"))
	t.Setenv("USAGE_REFRESH_INTERVAL", "")
	t.Setenv("AUTO_SWITCH_ENABLED", "")
	t.Setenv("AUTO_SWITCH_THRESHOLD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.UsageRefreshInterval != defaultUsageRefreshInterval {
		t.Errorf("UsageRefreshInterval = %v, want %v", cfg.UsageRefreshInterval, defaultUsageRefreshInterval)
	}
	if cfg.AutoSwitch.Enabled {
		t.Error("AutoSwitch.Enabled should default to false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	accountsDir := filepath.Join(tmpDir, "pool")
	t.Setenv("ACCOUNTS_DIR", accountsDir)
	t.Setenv("CODEX_AUTH_PATH", filepath.Join(tmpDir, "auth.json"))
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "usage.db"))
	t.Setenv("USAGE_REFRESH_INTERVAL", "30s")
	t.Setenv("AUTO_SWITCH_ENABLED", "true")
	t.Setenv("AUTO_SWITCH_THRESHOLD", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AccountsDir != accountsDir {
		t.Errorf("AccountsDir = %q, want %q", cfg.AccountsDir, accountsDir)
	}
	if cfg.UsageRefreshInterval != 30*time.Second {
		t.Errorf("UsageRefreshInterval = %v, want 30s", cfg.UsageRefreshInterval)
	}
	if !cfg.AutoSwitch.Enabled {
		t.Error("AutoSwitch.Enabled = false, want true")
	}
	if cfg.AutoSwitch.ThresholdPercent != 25 {
		t.Errorf("AutoSwitch.ThresholdPercent = %d, want 25", cfg.AutoSwitch.ThresholdPercent)
	}
}

func TestLoad_IntervalWithoutUnit(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ACCOUNTS_DIR", filepath.Join(tmpDir, "accounts"))
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "usage.db"))
	t.Setenv("USAGE_REFRESH_INTERVAL", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.UsageRefreshInterval != 45*time.Second {
		t.Errorf("UsageRefreshInterval = %v, want 45s (bare seconds)", cfg.UsageRefreshInterval)
	}
}

func TestLoad_ThresholdClamped(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ACCOUNTS_DIR", filepath.Join(tmpDir, "accounts"))
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "usage.db"))
	t.Setenv("AUTO_SWITCH_THRESHOLD", "95")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AutoSwitch.ThresholdPercent != 50 {
		t.Errorf("ThresholdPercent = %d, want clamped 50", cfg.AutoSwitch.ThresholdPercent)
	}
}

func TestLoad_CreatesDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	accountsDir := filepath.Join(tmpDir, "nested", "accounts")
	dbPath := filepath.Join(tmpDir, "nested", "db", "usage.db")
	t.Setenv("ACCOUNTS_DIR", accountsDir)
	t.Setenv("DATABASE_PATH", dbPath)

	if _, err := Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if _, err := os.Stat(accountsDir); err != nil {
		t.Errorf("accounts directory was not created: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
}
