package db

import (
	"testing"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

func sampleEntry() models.CacheEntry {
	return models.CacheEntry{
		Usage: models.UsageSnapshot{
			PrimaryWindow:   &models.RateLimitWindow{UsedPercent: 42.5, ResetsAt: 1700000000},
			SecondaryWindow: &models.RateLimitWindow{UsedPercent: 12, ResetsAt: 1700600000},
			PlanType:        "plus",
		},
		CachedAt: 1699999999000,
	}
}

func TestUsageCache_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	db.SaveUsageEntry("acc-1", sampleEntry())

	cache := db.LoadUsageCache()
	entry, ok := cache["acc-1"]
	if !ok {
		t.Fatal("expected entry for acc-1")
	}

	if entry.Usage.PrimaryWindow == nil || entry.Usage.PrimaryWindow.UsedPercent != 42.5 {
		t.Errorf("primary window not preserved: %+v", entry.Usage.PrimaryWindow)
	}
	if entry.Usage.SecondaryWindow == nil || entry.Usage.SecondaryWindow.ResetsAt != 1700600000 {
		t.Errorf("secondary window not preserved: %+v", entry.Usage.SecondaryWindow)
	}
	if entry.Usage.PlanType != "plus" {
		t.Errorf("plan_type = %q, want %q", entry.Usage.PlanType, "plus")
	}
	if entry.CachedAt != 1699999999000 {
		t.Errorf("cached_at = %d, want 1699999999000", entry.CachedAt)
	}
}

func TestUsageCache_Upsert(t *testing.T) {
	db := newTestDB(t)

	db.SaveUsageEntry("acc-1", sampleEntry())

	updated := sampleEntry()
	updated.Usage.PrimaryWindow.UsedPercent = 80
	updated.CachedAt = 1700000001000
	db.SaveUsageEntry("acc-1", updated)

	cache := db.LoadUsageCache()
	if len(cache) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(cache))
	}
	if got := cache["acc-1"].Usage.PrimaryWindow.UsedPercent; got != 80 {
		t.Errorf("primary used = %v, want 80", got)
	}
}

func TestUsageCache_MissingWindows(t *testing.T) {
	db := newTestDB(t)

	db.SaveUsageEntry("acc-1", models.CacheEntry{CachedAt: 1})

	cache := db.LoadUsageCache()
	entry := cache["acc-1"]
	if entry.Usage.PrimaryWindow != nil {
		t.Error("primary window should round-trip as nil")
	}
	if entry.Usage.SecondaryWindow != nil {
		t.Error("secondary window should round-trip as nil")
	}
}

func TestUsageCache_ClampsOnSave(t *testing.T) {
	db := newTestDB(t)

	entry := sampleEntry()
	entry.Usage.PrimaryWindow.UsedPercent = 150
	db.SaveUsageEntry("acc-1", entry)

	cache := db.LoadUsageCache()
	if got := cache["acc-1"].Usage.PrimaryWindow.UsedPercent; got != 100 {
		t.Errorf("primary used = %v, want clamped 100", got)
	}
}

func TestMigrateUsageKey(t *testing.T) {
	db := newTestDB(t)

	db.SaveUsageEntry("/old/path.json", sampleEntry())
	db.MigrateUsageKey("/old/path.json", "acc-1")

	cache := db.LoadUsageCache()
	if _, ok := cache["/old/path.json"]; ok {
		t.Error("old key should be gone after migration")
	}
	if _, ok := cache["acc-1"]; !ok {
		t.Error("entry should exist under the new key")
	}
}

func TestMigrateUsageKey_NewKeyAlreadyExists(t *testing.T) {
	db := newTestDB(t)

	old := sampleEntry()
	old.Usage.PrimaryWindow.UsedPercent = 10
	db.SaveUsageEntry("/old/path.json", old)

	current := sampleEntry()
	current.Usage.PrimaryWindow.UsedPercent = 55
	db.SaveUsageEntry("acc-1", current)

	db.MigrateUsageKey("/old/path.json", "acc-1")

	cache := db.LoadUsageCache()
	if len(cache) != 1 {
		t.Fatalf("expected 1 entry after migration, got %d", len(cache))
	}
	if got := cache["acc-1"].Usage.PrimaryWindow.UsedPercent; got != 55 {
		t.Errorf("existing entry was overwritten, primary used = %v, want 55", got)
	}
}

func TestUsageCache_NilDB(t *testing.T) {
	var db *DB

	// None of these may panic.
	db.SaveUsageEntry("acc-1", sampleEntry())
	db.MigrateUsageKey("a", "b")

	if cache := db.LoadUsageCache(); len(cache) != 0 {
		t.Errorf("nil db should yield empty cache, got %d entries", len(cache))
	}
}
